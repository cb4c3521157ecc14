// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwhitfield/ria-analyst/internal/ria"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ProfileStoreConfig controls the Postgres connection pool used for profiles.
type ProfileStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ProfileStore persists profiles as JSONB rows.
type ProfileStore struct {
	pool  dbPool
	table string
}

// NewProfileStore creates a Postgres-backed ProfileStore using the provided config.
func NewProfileStore(ctx context.Context, cfg ProfileStoreConfig) (*ProfileStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "profiles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProfileStore{pool: pool, table: table}, nil
}

// NewProfileStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProfileStoreWithPool(pool dbPool, table string) (*ProfileStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "profiles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ProfileStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ProfileStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Create inserts a profile row.
func (s *ProfileStore) Create(ctx context.Context, p ria.Profile) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("profile store is not configured")
	}
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, created_at, payload) VALUES ($1,$2,$3)`, s.table)
	if _, err := s.pool.Exec(ctx, query, p.ID, p.CreatedAt, payload); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Get loads a profile row.
func (s *ProfileStore) Get(ctx context.Context, id string) (ria.Profile, error) {
	if s == nil || s.pool == nil {
		return ria.Profile{}, fmt.Errorf("profile store is not configured")
	}
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = $1`, s.table)
	var payload []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ria.Profile{}, ria.ErrProfileNotFound
		}
		return ria.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	var p ria.Profile
	if err := json.Unmarshal(payload, &p); err != nil {
		return ria.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, nil
}

// Update replaces a profile row's payload.
func (s *ProfileStore) Update(ctx context.Context, p ria.Profile) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("profile store is not configured")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s SET payload = $2 WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, p.ID, payload)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ria.ErrProfileNotFound
	}
	return nil
}
