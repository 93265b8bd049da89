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
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// scrapedForm is the first <form>'s action plus its name/value field map.
type scrapedForm struct {
	Action string
	Fields map[string]string
}

// findAnchorByClassAndText locates the first <a> with the given class
// whose trimmed text equals want, returning its href.
func findAnchorByClassAndText(doc *goquery.Document, class, want string) (string, bool) {
	var href string

	found := false

	doc.Find("a." + class).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != want {
			return true
		}

		if h, ok := s.Attr("href"); ok {
			href = h
			found = true
		}

		return false
	})

	return href, found
}

// findAnchorByClass locates the first <a> with the given class and
// returns its href, regardless of text content.
func findAnchorByClass(doc *goquery.Document, class string) (string, bool) {
	sel := doc.Find("a." + class).First()
	if sel.Length() == 0 {
		return "", false
	}

	return sel.Attr("href")
}

// scrapeFirstForm extracts the first <form>'s action attribute and its
// <input name=.../value=...> pairs, matching scrape_form in the original
// source's HTML-scraping helper.
func scrapeFirstForm(r io.Reader) (scrapedForm, bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return scrapedForm{}, false, err
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return scrapedForm{}, false, nil
	}

	action, _ := form.Attr("action")

	fields := make(map[string]string)

	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}

		value, _ := input.Attr("value")
		fields[name] = value
	})

	return scrapedForm{Action: action, Fields: fields}, true, nil
}

// findScope extracts the "scope" attribute of the first nova-widget
// element on the page.
func findScope(r io.Reader) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false, err
	}

	sel := doc.Find("nova-widget").First()
	if sel.Length() == 0 {
		return "", false, nil
	}

	scope, ok := sel.Attr("scope")

	return scope, ok, nil
}
