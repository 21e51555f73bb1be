package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"smart-scraper/models"
	"smart-scraper/utils"
)

// Links returns the unique hyperlinks of res in page order. When search is
// not empty only links containing it are kept.
func Links(res *models.Response, search string) ([]string, error) {
	doc, err := NewDocument(res)
	if err != nil {
		return nil, err
	}
	return doc.Links(search), nil
}

func (d *Document) Links(search string) []string {
	base := d.baseURL()

	links := []string{}
	seen := make(map[string]bool)
	d.Find("a[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link := makeAbsoluteURL(base, href)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true

		if search != "" && !strings.Contains(link, search) {
			return
		}
		links = append(links, link)
	})

	return links
}

// Resolve turns a reference found on the page into an absolute URL, or "" for
// empty, fragment-only and javascript: references.
func (d *Document) Resolve(ref string) string {
	return makeAbsoluteURL(d.baseURL(), ref)
}

func makeAbsoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}

	link, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		link = base.ResolveReference(link)
	}

	return utils.NormalizeURL(link.String())
}

// ReLinks returns every non-overlapping match of pattern in the raw body. A
// pattern with capture groups yields its first group instead of the whole match.
func ReLinks(res *models.Response, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	text := res.Text()
	matches := []string{}
	if re.NumSubexp() == 0 {
		return append(matches, re.FindAllString(text, -1)...), nil
	}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		matches = append(matches, m[1])
	}
	return matches, nil
}
