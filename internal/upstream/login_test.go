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
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/brunnsviken/skool-api/internal/domain"
)

// canonicalLoginServer builds an httptest server that plays back the
// canonical seven-page flow: bootstrap -> landing -> credentials form ->
// login.fcc -> saml2sso -> saml response -> scope landing page.
func canonicalLoginServer(t *testing.T, badPassword bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a class="navBtn" href="/landing">Elever</a></body></html>`))
	})

	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a class="beta" href="/credentials">Logga in</a></body></html>`))
	})

	mux.HandleFunc("/credentials", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><form action="/login.fcc"><input name="SAMLRequest" value="abc"></form></body></html>`))
	})

	mux.HandleFunc("/login.fcc", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><form action="/saml2sso"><input name="SAMLResponse" value="xyz"></form></body></html>`))
	})

	mux.HandleFunc("/saml2sso", func(w http.ResponseWriter, r *http.Request) {
		if badPassword {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		w.Write([]byte(`<html><body><form action="/saml-response"><input name="SAMLResponse" value="final"></form></body></html>`))
	})

	mux.HandleFunc("/saml-response", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SimpleSAMLSessionID", Value: "s1", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/viewer", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><nova-widget scope="Z"></nova-widget></body></html>`))
	})

	mux.HandleFunc("/viewer-no-scope", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div>no widget here</div></body></html>`))
	})

	return httptest.NewServer(mux)
}

func pointURLsAt(srv *httptest.Server, scopePath string) func() {
	origBootstrap, origResponse, origFcc, origSaml2, origViewer, origBase :=
		ssoBootstrapURL, samlResponseURL, loginFccURL, saml2SSOURL, timetableViewURL, loginHostBase

	ssoBootstrapURL = srv.URL + "/bootstrap"
	samlResponseURL = srv.URL + "/saml-response"
	loginFccURL = srv.URL + "/login.fcc"
	saml2SSOURL = srv.URL + "/saml2sso"
	timetableViewURL = srv.URL + scopePath
	loginHostBase = srv.URL

	return func() {
		ssoBootstrapURL, samlResponseURL, loginFccURL, saml2SSOURL, timetableViewURL, loginHostBase =
			origBootstrap, origResponse, origFcc, origSaml2, origViewer, origBase
	}
}

func TestLoginHappyPath(t *testing.T) {
	srv := canonicalLoginServer(t, false)
	defer srv.Close()

	restore := pointURLsAt(srv, "/viewer")
	defer restore()

	c, err := NewClient("student", "hunter2")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	c.httpClient = srv.Client()

	jar, _ := cookiejar.New(nil)
	c.jar = jar
	c.httpClient.Jar = jar

	sess, err := c.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if sess.Scope != "Z" {
		t.Errorf("Scope = %q, want %q", sess.Scope, "Z")
	}

	if len(sess.Cookies) == 0 {
		t.Error("expected at least one cookie in session snapshot")
	}
}

func TestLoginBadPassword(t *testing.T) {
	srv := canonicalLoginServer(t, true)
	defer srv.Close()

	restore := pointURLsAt(srv, "/viewer")
	defer restore()

	c, err := NewClient("student", "wrong")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	c.httpClient = srv.Client()

	_, err = c.Login(context.Background())
	if err == nil {
		t.Fatal("Login() error = nil, want BadCredentials")
	}

	var de *domain.Error
	if !errors.As(err, &de) || de.Code != domain.CodeBadCredentials {
		t.Errorf("Login() error = %v, want CodeBadCredentials", err)
	}
}

func TestLoginMissingScope(t *testing.T) {
	srv := canonicalLoginServer(t, false)
	defer srv.Close()

	restore := pointURLsAt(srv, "/viewer-no-scope")
	defer restore()

	c, err := NewClient("student", "hunter2")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	c.httpClient = srv.Client()

	_, err = c.Login(context.Background())
	if err == nil {
		t.Fatal("Login() error = nil, want ScrapingFailed")
	}

	var de *domain.Error
	if !errors.As(err, &de) || de.Code != domain.CodeScrapingFailed {
		t.Errorf("Login() error = %v, want CodeScrapingFailed", err)
	}
}
