package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean.
type Server struct {
	Addr string

	// Identity agent endpoints. AgentPasscode opens the server's own wallet
	// session for the admin and watcher paths; claim sessions dial with the
	// applicant's boot secret instead.
	AgentURL      string
	AgentBootURL  string
	AgentPasscode string

	// Data-sync backend (identity binding, community spaces).
	SpacesURL string

	// Optional infrastructure. Empty values disable the component and the
	// in-memory fallback is wired instead.
	RedisURL     string
	DatabaseURL  string
	KafkaBrokers []string
	AuditTopic   string

	// Admin API auth.
	AdminJWTKey string

	// Stored organization identifier prefix, if provisioning recorded one.
	OrgIdentifier string

	// Membership credential issuance.
	RegistryID       string
	CredentialSchema string

	PollInterval time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("VOUCH_ADDR", ":8080"),
		AgentURL:         envOr("VOUCH_AGENT_URL", "http://localhost:3901"),
		AgentBootURL:     envOr("VOUCH_AGENT_BOOT_URL", "http://localhost:3903"),
		AgentPasscode:    os.Getenv("VOUCH_AGENT_PASSCODE"),
		SpacesURL:        envOr("VOUCH_SPACES_URL", "http://localhost:4000"),
		RedisURL:         os.Getenv("VOUCH_REDIS_URL"),
		DatabaseURL:      os.Getenv("VOUCH_DATABASE_URL"),
		AuditTopic:       envOr("VOUCH_AUDIT_TOPIC", "vouch.audit"),
		AdminJWTKey:      envOr("VOUCH_ADMIN_JWT_KEY", "dev-secret-key-change-in-production"),
		OrgIdentifier:    os.Getenv("VOUCH_ORG_IDENTIFIER"),
		RegistryID:       os.Getenv("VOUCH_REGISTRY_ID"),
		CredentialSchema: os.Getenv("VOUCH_CREDENTIAL_SCHEMA"),
		PollInterval:     durationOr("VOUCH_POLL_INTERVAL", 5*time.Second),
	}
	if brokers := os.Getenv("VOUCH_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
