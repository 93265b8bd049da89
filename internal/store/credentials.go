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

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brunnsviken/skool-api/internal/domain"
)

// ErrNotFound is returned by lookups that find no matching row.
var ErrNotFound = errors.New("store: not found")

// GetCredentials loads the stored credentials for userID.
func (s *Store) GetCredentials(ctx context.Context, userID uuid.UUID) (domain.Credentials, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, service, username, sealed_password, school, class_reference, updated_at
		FROM credentials
		WHERE user_id = $1
	`, userID)

	var (
		c       domain.Credentials
		service string
		school  []byte
		class   *string
	)

	if err := row.Scan(&c.UserID, &service, &c.Username, &c.SealedPassword, &school, &class, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Credentials{}, ErrNotFound
		}

		return domain.Credentials{}, fmt.Errorf("loading credentials: %w", err)
	}

	c.Service = domain.Service(service)
	c.ClassReference = class

	if len(school) == 32 {
		var sh domain.SchoolHash

		copy(sh[:], school)

		c.School = &sh
	}

	return c, nil
}

// UpsertCredentials inserts or replaces userID's credentials. If class is
// non-nil it upserts the owning class row and stamps the credentials row
// with (school, class_reference) in the same transaction, matching the
// "credentials + class-upsert happen in a single transaction" rule.
func (s *Store) UpsertCredentials(ctx context.Context, c domain.Credentials, class *domain.Class) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning credentials transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var (
		school    []byte
		reference *string
	)

	if class != nil {
		school = class.School[:]
		reference = &class.Reference

		if err := upsertClassTx(ctx, tx, class); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO credentials (user_id, service, username, sealed_password, school, class_reference, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
			service = EXCLUDED.service,
			username = EXCLUDED.username,
			sealed_password = EXCLUDED.sealed_password,
			school = EXCLUDED.school,
			class_reference = EXCLUDED.class_reference,
			updated_at = now()
	`, c.UserID, string(c.Service), c.Username, c.SealedPassword, school, reference); err != nil {
		return fmt.Errorf("upserting credentials: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing credentials transaction: %w", err)
	}

	return nil
}

func upsertClassTx(ctx context.Context, tx pgx.Tx, class *domain.Class) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO classes (school, reference, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (school, reference) DO UPDATE SET name = EXCLUDED.name
	`, class.School[:], class.Reference, class.DisplayName); err != nil {
		return fmt.Errorf("upserting class: %w", err)
	}

	return nil
}

// UpdateCredentialsClass transactionally upserts class and stamps userID's
// credentials row with its (school, class_reference), leaving every other
// credentials field — including updated_at — untouched. Used to re-derive a
// caller's class outside of a credentials save, e.g. on every classes list.
func (s *Store) UpdateCredentialsClass(ctx context.Context, userID uuid.UUID, class *domain.Class) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning class update transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := upsertClassTx(ctx, tx, class); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE credentials SET school = $1, class_reference = $2 WHERE user_id = $3
	`, class.School[:], class.Reference, userID); err != nil {
		return fmt.Errorf("stamping credentials with class: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing class update transaction: %w", err)
	}

	return nil
}

// DeleteCredentials removes userID's stored credentials.
func (s *Store) DeleteCredentials(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}

	return nil
}

// FindClassmateCredentials finds the credentials of whichever user has
// registered as belonging to (school, classReference), excluding the
// caller themself. Used by classmate aggregation to locate a peer's
// session without ever exposing their password to the requester.
func (s *Store) FindClassmateCredentials(ctx context.Context, school domain.SchoolHash, classReference string, exclude uuid.UUID) (domain.Credentials, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, service, username, sealed_password, school, class_reference, updated_at
		FROM credentials
		WHERE school = $1 AND class_reference = $2 AND user_id != $3
		LIMIT 1
	`, school[:], classReference, exclude)

	var (
		c       domain.Credentials
		service string
		sch     []byte
		class   *string
	)

	if err := row.Scan(&c.UserID, &service, &c.Username, &c.SealedPassword, &sch, &class, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Credentials{}, ErrNotFound
		}

		return domain.Credentials{}, fmt.Errorf("finding classmate credentials: %w", err)
	}

	c.Service = domain.Service(service)
	c.ClassReference = class

	if len(sch) == 32 {
		var sh domain.SchoolHash

		copy(sh[:], sch)

		c.School = &sh
	}

	return c, nil
}
