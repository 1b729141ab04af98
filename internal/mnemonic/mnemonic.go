// Package mnemonic implements the recovery-phrase codec: a human-memorable
// word sequence that deterministically derives the agent boot passcode and a
// compact invite token for embedding in a claim link. Pure functions, no I/O.
package mnemonic

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// PhraseWords is the fixed phrase length: 11 data words plus one checksum
// word, each drawn from the 256-entry wordlist.
const PhraseWords = 12

// PasscodeLength is the length of the derived agent boot passcode.
const PasscodeLength = 21

var (
	// ErrInvalidPhrase marks a phrase that is the wrong length, contains
	// words outside the list, or fails its checksum.
	ErrInvalidPhrase = errors.New("invalid recovery phrase")

	// ErrDecodeToken marks a malformed invite token. Decoding fails closed:
	// a corrupt token never yields a phrase.
	ErrDecodeToken = errors.New("malformed invite token")
)

// GeneratePhrase creates a fresh random recovery phrase.
func GeneratePhrase() (string, error) {
	data := make([]byte, PhraseWords-1)
	if _, err := rand.Read(data); err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	words := make([]string, 0, PhraseWords)
	for _, b := range data {
		words = append(words, wordlist[b])
	}
	words = append(words, wordlist[checksumByte(data)])
	return strings.Join(words, " "), nil
}

// ValidatePhrase reports whether the phrase is well formed: correct length,
// every word on the list, checksum word consistent. Used to short-circuit
// obviously-invalid input before any agent connection is attempted.
func ValidatePhrase(phrase string) bool {
	_, err := phraseBytes(phrase)
	return err == nil
}

// DeriveBootSecret derives the agent boot passcode from a recovery phrase.
// The transform is pure and one-way; the same phrase always yields the same
// passcode and the phrase cannot be recovered from it.
func DeriveBootSecret(phrase string) string {
	sum := sha256.Sum256([]byte("vouch/boot:" + normalize(phrase)))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:PasscodeLength]
}

// EncodeInviteToken packs a valid recovery phrase into a compact URL-safe
// token for embedding in a claim link fragment.
func EncodeInviteToken(phrase string) (string, error) {
	data, err := phraseBytes(phrase)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeInviteToken reverses EncodeInviteToken. Anything other than a token
// produced from a valid phrase returns ErrDecodeToken.
func DecodeInviteToken(token string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeToken, err)
	}
	if len(data) != PhraseWords-1 {
		return "", fmt.Errorf("%w: unexpected length %d", ErrDecodeToken, len(data))
	}
	words := make([]string, 0, PhraseWords)
	for _, b := range data {
		words = append(words, wordlist[b])
	}
	words = append(words, wordlist[checksumByte(data)])
	return strings.Join(words, " "), nil
}

// phraseBytes converts a phrase back to its data bytes, verifying the
// checksum word along the way.
func phraseBytes(phrase string) ([]byte, error) {
	words := strings.Fields(normalize(phrase))
	if len(words) != PhraseWords {
		return nil, fmt.Errorf("%w: expected %d words, got %d", ErrInvalidPhrase, PhraseWords, len(words))
	}
	data := make([]byte, 0, PhraseWords-1)
	for _, w := range words[:PhraseWords-1] {
		b, ok := wordIndex[w]
		if !ok {
			return nil, fmt.Errorf("%w: unknown word %q", ErrInvalidPhrase, w)
		}
		data = append(data, b)
	}
	check, ok := wordIndex[words[PhraseWords-1]]
	if !ok || check != checksumByte(data) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidPhrase)
	}
	return data, nil
}

func checksumByte(data []byte) byte {
	sum := sha256.Sum256(data)
	return sum[0]
}

func normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(phrase))), " ")
}
