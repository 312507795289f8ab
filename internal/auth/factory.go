package auth

import (
	"fmt"
	"os"
	"strings"
)

const (
	AuthModeMemory   = "memory"
	AuthModeSQLite   = "sqlite"
	AuthModePostgres = "postgres"

	// AuthModeHeader keeps the in-memory manager but additionally lets the
	// HTTP layer trust X-User-Id for identity. Local development only.
	AuthModeHeader = "header"
)

func authModeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	switch raw {
	case "", AuthModeMemory, "mem":
		return AuthModeMemory
	case AuthModeSQLite, "local":
		return AuthModeSQLite
	case AuthModePostgres, "postgresql", "db":
		return AuthModePostgres
	case AuthModeHeader, "trust-header":
		return AuthModeHeader
	default:
		return raw
	}
}

// NewServiceFromEnv builds the auth service selected by AUTH_MODE. The
// default is the in-memory manager, which needs no external services.
func NewServiceFromEnv() (Service, string, error) {
	mode := authModeFromEnv()
	switch mode {
	case AuthModeMemory, AuthModeHeader:
		return NewManager(), mode, nil
	case AuthModeSQLite:
		manager, err := NewSQLiteManagerFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return manager, mode, nil
	case AuthModePostgres:
		manager, err := NewPostgresManagerFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return manager, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid AUTH_MODE %q (supported: %s, %s, %s, %s)", mode, AuthModeMemory, AuthModeSQLite, AuthModePostgres, AuthModeHeader)
	}
}
