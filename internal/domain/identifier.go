package domain

// Identifier is an autonomic identifier controlled by a rotating key set.
// SequenceNumber is the current key-event sequence; zero means the key set
// has never been rotated, which marks a pre-provisioned identifier as
// unclaimed. The first rotation is the claim act and happens exactly once.
type Identifier struct {
	Prefix         string
	Name           string
	SequenceNumber int
}

// Claimed reports whether control has been transferred to an end user.
func (i Identifier) Claimed() bool {
	return i.SequenceNumber > 0
}
