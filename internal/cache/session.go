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

// Package cache is the Redis-backed session cache: a sealed envelope over a
// Session, keyed by user id, with a TTL that bounds how long a login is
// reusable before the adapter must authenticate again.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brunnsviken/skool-api/internal/cryptutil"
	"github.com/brunnsviken/skool-api/internal/upstream"
	"github.com/brunnsviken/skool-api/logger"
)

// keyVersion namespaces the key format so a future change to the sealed
// envelope shape can be rolled out without colliding with old entries.
const keyVersion = "v1"

// SessionTTL bounds how long a cached login is reused before the session
// extractor re-authenticates against upstream.
const SessionTTL = 15 * time.Minute

// SessionCache stores and retrieves sealed upstream.Session blobs in Redis.
type SessionCache struct {
	rdb    *redis.Client
	sealer *cryptutil.Sealer
}

// New builds a SessionCache over an existing Redis client and Sealer.
func New(rdb *redis.Client, sealer *cryptutil.Sealer) *SessionCache {
	return &SessionCache{rdb: rdb, sealer: sealer}
}

func sessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:sessions:%s", keyVersion, userID.String())
}

// Get returns the cached Session for userID. A missing key and a
// decryption failure are both reported as ok=false, never as an error:
// a corrupted or expired entry is just a cache miss to every caller.
func (c *SessionCache) Get(ctx context.Context, userID uuid.UUID) (sess upstream.Session, ok bool) {
	blob, err := c.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("user_id", userID.String()).Msg("session cache read failed")
		}

		return upstream.Session{}, false
	}

	if err := c.sealer.Open(blob, &sess); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("session cache entry failed to decrypt, treating as miss")

		return upstream.Session{}, false
	}

	return sess, true
}

// Set seals sess and stores it with SessionTTL, in a single SET+EXPIRE
// pipeline.
func (c *SessionCache) Set(ctx context.Context, userID uuid.UUID, sess upstream.Session) error {
	blob, err := c.sealer.Seal(sess)
	if err != nil {
		return fmt.Errorf("sealing session for cache: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(userID), blob, 0)
	pipe.Expire(ctx, sessionKey(userID), SessionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing session cache entry: %w", err)
	}

	return nil
}

// Purge removes any cached session for userID. Called on credential
// update, credential delete, and explicit logout.
func (c *SessionCache) Purge(ctx context.Context, userID uuid.UUID) error {
	if err := c.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("purging session cache entry: %w", err)
	}

	return nil
}
