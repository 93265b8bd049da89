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
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunnsviken/skool-api/internal/domain"
)

const (
	studentAnchorClass     = "navBtn"
	studentAnchorText      = "Elever"
	credentialsAnchorClass = "beta"
)

// Login executes the seven-leg SAML/form-scraping flow in strict sequence,
// sharing this Client's cookie jar across every request. No leg is
// parallelised with another; each consumes cookies the previous leg set.
func (c *Client) Login(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()

	studentHref, err := c.legFindStudentLink(ctx)
	if err != nil {
		return Session{}, err
	}

	credentialsHref, err := c.legFindCredentialsLink(ctx, studentHref)
	if err != nil {
		return Session{}, err
	}

	form, err := c.legFetchCredentialsForm(ctx, credentialsHref)
	if err != nil {
		return Session{}, err
	}

	form, err = c.legSubmitCredentials(ctx, form)
	if err != nil {
		return Session{}, err
	}

	form, err = c.legSubmitSAML2SSO(ctx, form)
	if err != nil {
		return Session{}, err
	}

	if err := c.legSubmitSAMLResponse(ctx, form); err != nil {
		return Session{}, err
	}

	scope, err := c.legHarvestScope(ctx)
	if err != nil {
		return Session{}, err
	}

	c.scope = scope

	return Session{Cookies: c.snapshot(), Scope: scope}, nil
}

// leg 1: GET the SSO bootstrap URL, locate the student-login anchor by
// class "navBtn" and Swedish label "Elever".
func (c *Client) legFindStudentLink(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, ssoBootstrapURL, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := parseHTML(resp.Body)
	if err != nil {
		return "", domain.ScrapingFailed("bootstrap page not valid HTML", err)
	}

	href, ok := findAnchorByClassAndText(doc, studentAnchorClass, studentAnchorText)
	if !ok {
		return "", domain.ScrapingFailed("student login link not found", nil)
	}

	return href, nil
}

// leg 2: GET the student landing page under the CA forms host, locate the
// username/password option by anchor class "beta".
func (c *Client) legFindCredentialsLink(ctx context.Context, studentHref string) (string, error) {
	target, err := resolveRef(loginHostBase+"/siteminderagent/forms/", studentHref)
	if err != nil {
		return "", domain.Internal(err)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, target, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := parseHTML(resp.Body)
	if err != nil {
		return "", domain.ScrapingFailed("student landing page not valid HTML", err)
	}

	href, ok := findAnchorByClass(doc, credentialsAnchorClass)
	if !ok {
		return "", domain.ScrapingFailed("username/password option not found", nil)
	}

	return resolveRef(target, href)
}

// leg 3: GET the credentials page, extract the first form's fields,
// injecting user/password/empty submit.
func (c *Client) legFetchCredentialsForm(ctx context.Context, credentialsURL string) (scrapedForm, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, credentialsURL, nil, "")
	if err != nil {
		return scrapedForm{}, err
	}
	defer resp.Body.Close()

	form, ok, err := scrapeFirstForm(resp.Body)
	if err != nil {
		return scrapedForm{}, domain.ScrapingFailed("credentials page not valid HTML", err)
	}

	if !ok {
		return scrapedForm{}, domain.ScrapingFailed("credentials form not found", nil)
	}

	if form.Action, err = resolveRef(credentialsURL, form.Action); err != nil {
		return scrapedForm{}, domain.Internal(err)
	}

	form.Fields["user"] = c.username
	form.Fields["password"] = c.password
	form.Fields["submit"] = ""

	return form, nil
}

// leg 4: POST the form to the login endpoint; extract the returned inner
// form.
func (c *Client) legSubmitCredentials(ctx context.Context, form scrapedForm) (scrapedForm, error) {
	resp, err := c.postForm(ctx, loginFccURL, form.Fields)
	if err != nil {
		return scrapedForm{}, err
	}
	defer resp.Body.Close()

	next, ok, err := scrapeFirstForm(resp.Body)
	if err != nil {
		return scrapedForm{}, domain.ScrapingFailed("login response not valid HTML", err)
	}

	if !ok {
		return scrapedForm{}, domain.ScrapingFailed("no form found after credentials submission", nil)
	}

	if next.Action, err = resolveRef(loginFccURL, next.Action); err != nil {
		return scrapedForm{}, domain.Internal(err)
	}

	return next, nil
}

// leg 5: POST that form to the SAML SSO endpoint; 400 means bad
// credentials (terminal); otherwise extract the returned form.
func (c *Client) legSubmitSAML2SSO(ctx context.Context, form scrapedForm) (scrapedForm, error) {
	resp, err := c.postForm(ctx, saml2SSOURL, form.Fields)
	if err != nil {
		return scrapedForm{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return scrapedForm{}, domain.BadCredentials()
	}

	next, ok, err := scrapeFirstForm(resp.Body)
	if err != nil {
		return scrapedForm{}, domain.ScrapingFailed("saml2sso response not valid HTML", err)
	}

	if !ok {
		return scrapedForm{}, domain.ScrapingFailed("no form found after saml2sso step", nil)
	}

	if next.Action, err = resolveRef(saml2SSOURL, next.Action); err != nil {
		return scrapedForm{}, domain.Internal(err)
	}

	return next, nil
}

// leg 6: POST to the SAML response endpoint. No body inspection; the jar
// picks up whatever cookies this sets.
func (c *Client) legSubmitSAMLResponse(ctx context.Context, form scrapedForm) error {
	resp, err := c.postForm(ctx, samlResponseURL, form.Fields)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}

// leg 7: GET the timetable-viewer landing page and extract the scope
// attribute of the nova-widget element.
func (c *Client) legHarvestScope(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, timetableViewURL, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	scope, ok, err := findScope(resp.Body)
	if err != nil {
		return "", domain.ScrapingFailed("timetable landing page not valid HTML", err)
	}

	if !ok || scope == "" {
		return "", domain.ScrapingFailed("no scope found", nil)
	}

	return scope, nil
}

func (c *Client) postForm(ctx context.Context, target string, fields map[string]string) (*http.Response, error) {
	data := url.Values{}
	for k, v := range fields {
		data.Set(k, v)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, target, []byte(data.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func parseHTML(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}
