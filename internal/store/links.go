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
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brunnsviken/skool-api/internal/domain"
)

// InsertLink stores a freshly minted share link.
func (s *Store) InsertLink(ctx context.Context, link domain.ShareLink) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO links (id, owner_id, expires_at, date_range)
		VALUES ($1, $2, $3, daterange($4, $5, '[)'))
	`, link.ID[:], link.OwnerUserID, link.ExpiresAt, link.Range.Start, link.Range.End); err != nil {
		return fmt.Errorf("inserting share link: %w", err)
	}

	return nil
}

// GetLink loads a share link by id.
func (s *Store) GetLink(ctx context.Context, id [32]byte) (domain.ShareLink, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, expires_at, lower(date_range), upper(date_range), last_used
		FROM links
		WHERE id = $1
	`, id[:])

	var (
		link    domain.ShareLink
		rawID   []byte
		rangeLo *time.Time
		rangeHi *time.Time
	)

	if err := row.Scan(&rawID, &link.OwnerUserID, &link.ExpiresAt, &rangeLo, &rangeHi, &link.LastUsed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ShareLink{}, ErrNotFound
		}

		return domain.ShareLink{}, fmt.Errorf("loading share link: %w", err)
	}

	copy(link.ID[:], rawID)

	link.Range = domain.DateRange{Start: rangeLo, End: rangeHi}

	return link, nil
}

// TouchLink best-effort updates last_used to now; failures are logged by
// the caller and never fail the enclosing request.
func (s *Store) TouchLink(ctx context.Context, id [32]byte) error {
	if _, err := s.pool.Exec(ctx, `UPDATE links SET last_used = now() WHERE id = $1`, id[:]); err != nil {
		return fmt.Errorf("touching share link: %w", err)
	}

	return nil
}

// DeleteLink removes a share link owned by ownerID, reporting ErrNotFound
// if no such link exists under that owner.
func (s *Store) DeleteLink(ctx context.Context, id [32]byte, ownerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM links WHERE id = $1 AND owner_id = $2`, id[:], ownerID)
	if err != nil {
		return fmt.Errorf("deleting share link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListLinks returns every share link owned by ownerID.
func (s *Store) ListLinks(ctx context.Context, ownerID uuid.UUID) ([]domain.ShareLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, expires_at, lower(date_range), upper(date_range), last_used
		FROM links
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing share links: %w", err)
	}
	defer rows.Close()

	var out []domain.ShareLink

	for rows.Next() {
		var (
			link    domain.ShareLink
			rawID   []byte
			rangeLo *time.Time
			rangeHi *time.Time
		)

		if err := rows.Scan(&rawID, &link.OwnerUserID, &link.ExpiresAt, &rangeLo, &rangeHi, &link.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning share link: %w", err)
		}

		copy(link.ID[:], rawID)

		link.Range = domain.DateRange{Start: rangeLo, End: rangeHi}

		out = append(out, link)
	}

	return out, rows.Err()
}
