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

package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/corpix/uarand"

	"github.com/brunnsviken/skool-api/internal/domain"
)

const (
	LoginTimeout = 15 * time.Second
	RPCTimeout   = 30 * time.Second
)

// Client drives one authentication-and-fetch session against upstream. A
// Client is single-use for Login: build one per login attempt, then
// either discard it or keep it for the RPC calls of that same session.
type Client struct {
	httpClient *http.Client
	jar        *cookiejar.Jar
	userAgent  string
	username   string
	password   string
	scope      string
	captured   map[string]Cookie
}

// NewClient builds a Client with a fresh cookie jar and a random
// per-session User-Agent: no two logins ever share a jar.
func NewClient(username, password string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, domain.Internal(err)
	}

	ua := uarand.GetRandom()
	if ua == "" {
		ua = userAgentFallback
	}

	return &Client{
		httpClient: &http.Client{Jar: jar},
		jar:        jar,
		userAgent:  ua,
		username:   username,
		password:   password,
		captured:   make(map[string]Cookie),
	}, nil
}

// FromSession rebuilds a Client around a previously persisted Session,
// restoring its cookie jar snapshot, for issuing RPC calls without a
// fresh login.
func FromSession(sess Session) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, domain.Internal(err)
	}

	restore(jar, sess.Cookies)

	return &Client{
		httpClient: &http.Client{Jar: jar},
		jar:        jar,
		userAgent:  userAgentFallback,
		scope:      sess.Scope,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, rawURL string, body []byte, contentType string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, domain.Internal(err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.scope != "" {
		req.Header.Set("X-Scope", c.scope)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return nil, domain.Http(ctx.Err())
		default:
			return nil, domain.Http(err)
		}
	}

	if c.captured != nil {
		host := req.URL.Hostname()
		for _, ck := range resp.Cookies() {
			domainName := ck.Domain
			if domainName == "" {
				domainName = host
			}

			key := domainName + "|" + ck.Path + "|" + ck.Name
			c.captured[key] = Cookie{
				Name:     ck.Name,
				Value:    ck.Value,
				Domain:   domainName,
				Path:     ck.Path,
				Expires:  ck.Expires,
				Secure:   ck.Secure,
				HTTPOnly: ck.HttpOnly,
			}
		}
	}

	return resp, nil
}

func resolveRef(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	return baseURL.ResolveReference(refURL).String(), nil
}

// snapshot returns every cookie captured off Set-Cookie response headers
// during the session, implementing the "snapshot as list" half of the jar
// contract. net/http/cookiejar.Jar.Cookies only ever returns Name/Value
// (it drops Domain, Path, Expires and the Secure/HttpOnly flags), so the
// full RFC 6265 attributes have to be harvested from the responses
// themselves rather than read back out of the jar.
func (c *Client) snapshot() []Cookie {
	out := make([]Cookie, 0, len(c.captured))
	for _, ck := range c.captured {
		out = append(out, ck)
	}

	return out
}

// restore rebuilds the jar from a persisted snapshot, implementing the
// "send-and-update on round trip" half of the jar contract: once restored,
// ordinary http.Client.Do calls keep the jar current.
func restore(jar *cookiejar.Jar, cookies []Cookie) {
	byHost := make(map[string][]*http.Cookie)

	for _, ck := range cookies {
		scheme := "https://" + ck.Domain
		byHost[scheme] = append(byHost[scheme], &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     ck.Path,
			Domain:   ck.Domain,
			Expires:  ck.Expires,
			Secure:   ck.Secure,
			HttpOnly: ck.HTTPOnly,
		})
	}

	for host, cks := range byHost {
		if u, err := url.Parse(host); err == nil {
			jar.SetCookies(u, cks)
		}
	}
}
