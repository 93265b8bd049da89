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
	"fmt"

	"github.com/brunnsviken/skool-api/internal/domain"
)

// ListClasses returns every class registered under school.
func (s *Store) ListClasses(ctx context.Context, school domain.SchoolHash) ([]domain.Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT school, reference, name
		FROM classes
		WHERE school = $1
		ORDER BY name
	`, school[:])
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	var out []domain.Class

	for rows.Next() {
		var (
			c   domain.Class
			sch []byte
		)

		if err := rows.Scan(&sch, &c.Reference, &c.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}

		copy(c.School[:], sch)

		out = append(out, c)
	}

	return out, rows.Err()
}
