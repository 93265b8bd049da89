// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package store is the Postgres persistence layer: credentials, classes and
// share links, accessed through a process-wide pgxpool.Pool.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns          = 10
	minConns          = 1
	healthCheckPeriod = 30 * time.Second
	maxConnLifetime   = 55 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	pingTimeout       = 5 * time.Second
)

// Store wraps the connection pool shared by every table-specific method in
// this package.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses dsn, builds a bounded connection pool, and verifies
// connectivity with a short-lived ping before returning.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.HealthCheckPeriod = healthCheckPeriod
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()

		return nil, err
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()

		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)

	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	user_id         UUID PRIMARY KEY,
	service         TEXT NOT NULL,
	username        TEXT NOT NULL,
	sealed_password BYTEA NOT NULL,
	school          BYTEA,
	class_reference TEXT,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS classes (
	school    BYTEA NOT NULL,
	reference TEXT NOT NULL,
	name      TEXT NOT NULL,
	PRIMARY KEY (school, reference)
);

CREATE TABLE IF NOT EXISTS links (
	id          BYTEA PRIMARY KEY,
	owner_id    UUID NOT NULL,
	expires_at  TIMESTAMPTZ,
	date_range  DATERANGE NOT NULL,
	last_used   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_credentials_class ON credentials (school, class_reference);
CREATE INDEX IF NOT EXISTS idx_links_owner ON links (owner_id);
`
