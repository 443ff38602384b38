package repository

import (
	"fmt"

	"familybudget/internal/config"
	"familybudget/internal/database"
)

// Backend pairs a FamilyStore with the connection a database.Manager drives
type Backend struct {
	Name  string
	Store FamilyStore
	Conn  database.Connector
}

// OpenBackend builds the store selected by cfg.StoreBackend. No connection
// is attempted; hand Conn to a database.Manager to bring it up.
func OpenBackend(cfg *config.Config) (*Backend, error) {
	switch cfg.StoreBackend {
	case "memory":
		repo := NewMemoryFamilyRepository()
		return &Backend{Name: "memory", Store: repo, Conn: repo}, nil
	case "redis":
		repo := NewRedisFamilyRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return &Backend{Name: "redis", Store: repo, Conn: repo}, nil
	}

	dialect, dialectConfig, err := database.DialectFor(cfg.StoreBackend, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unsupported store backend %q: %w", cfg.StoreBackend, err)
	}
	db, err := database.Open(dialect, dialectConfig)
	if err != nil {
		return nil, err
	}
	name := cfg.StoreBackend
	if name == "" {
		name = "sqlite"
	}
	return &Backend{Name: name, Store: NewSQLFamilyRepository(db), Conn: db}, nil
}
