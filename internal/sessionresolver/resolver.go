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

// Package sessionresolver implements the single path every component uses
// to turn a user id into an authenticated upstream.Session: cache hit, or
// load credentials and log in fresh.
package sessionresolver

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/brunnsviken/skool-api/internal/cache"
	"github.com/brunnsviken/skool-api/internal/cryptutil"
	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/internal/upstream"
	"github.com/brunnsviken/skool-api/logger"
)

// Resolver resolves a user id to a live upstream.Session, filling the
// session cache on a miss. No global lock guards concurrent resolution for
// the same user: the upstream login is idempotent and the cache write is
// last-writer-wins.
type Resolver struct {
	store  *store.Store
	cache  *cache.SessionCache
	sealer *cryptutil.Sealer
}

// New builds a Resolver over the given store, cache, and password sealer.
func New(st *store.Store, sc *cache.SessionCache, sealer *cryptutil.Sealer) *Resolver {
	return &Resolver{store: st, cache: sc, sealer: sealer}
}

// Resolve returns the Session for userID: a cache hit short-circuits
// everything else; a cache miss loads stored credentials, logs in, fills
// the cache, and returns the fresh session.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (upstream.Session, error) {
	if sess, ok := r.cache.Get(ctx, userID); ok {
		return sess, nil
	}

	creds, err := r.store.GetCredentials(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return upstream.Session{}, domain.MissingCredentials()
		}

		return upstream.Session{}, domain.Internal(err)
	}

	password, err := r.sealer.OpenPassword(creds.SealedPassword)
	if err != nil {
		return upstream.Session{}, domain.MissingCredentials()
	}

	client, err := upstream.NewClient(creds.Username, password)
	if err != nil {
		return upstream.Session{}, domain.Internal(err)
	}

	sess, err := client.Login(ctx)
	if err != nil {
		return upstream.Session{}, err
	}

	if err := r.cache.Set(ctx, userID, sess); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("session cache fill failed, session will not be reused")
	}

	return sess, nil
}

// Purge invalidates userID's cached session; callers ignore a failure here
// other than logging it, since the stale entry will still expire by TTL.
func (r *Resolver) Purge(ctx context.Context, userID uuid.UUID) error {
	return r.cache.Purge(ctx, userID)
}
