package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"smart-scraper/models"
)

// Document is a parsed page that can be queried with CSS selectors.
type Document struct {
	*goquery.Document
	Response *models.Response
}

func NewDocument(res *models.Response) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html from %s: %w", res.URL, err)
	}
	if u, err := url.Parse(res.URL); err == nil {
		doc.Url = u
	}
	return &Document{Document: doc, Response: res}, nil
}

// Texts returns the trimmed text of every match.
func (d *Document) Texts(selector string) []string {
	return d.Find(selector).Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
}

// Attrs returns attr of every match that has it.
func (d *Document) Attrs(selector, attr string) []string {
	values := []string{}
	d.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			values = append(values, v)
		}
	})
	return values
}

func (d *Document) First(selector string) string {
	return strings.TrimSpace(d.Find(selector).First().Text())
}

func (d *Document) AttrFirst(selector, attr string) (string, bool) {
	values := d.Attrs(selector, attr)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// baseURL is the response URL, adjusted by a <base href> element when present.
func (d *Document) baseURL() *url.URL {
	base, err := url.Parse(d.Response.URL)
	if err != nil {
		base = nil
	}
	href, ok := d.Find("base[href]").First().Attr("href")
	if !ok {
		return base
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return base
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(ref)
}
