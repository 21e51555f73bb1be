package crawler

import (
	"crypto/md5"
	"fmt"
	"strings"

	"smart-scraper/models"
)

// Analyze computes the content metrics of a page.
func Analyze(doc *Document) models.PageMetrics {
	return models.PageMetrics{
		Title:          strings.TrimSpace(doc.Find("title").First().Text()),
		ContentQuality: contentQuality(doc),
		LinkDensity:    linkDensity(doc),
		Importance:     importance(doc),
		Hash:           fmt.Sprintf("%x", md5.Sum(doc.Response.Body)),
	}
}

// NewPage summarizes a fetched document for storage.
func NewPage(doc *Document) *models.Page {
	res := doc.Response
	return &models.Page{
		URL:         res.URL,
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Size:        int64(len(res.Body)),
		LoadTime:    res.Elapsed.Milliseconds(),
		Links:       len(doc.Links("")),
		Metrics:     Analyze(doc),
	}
}

// text lengths, in bytes, that count as a substantial and a long page
const (
	substantialText = 500
	longText        = 2000
	minParagraphs   = 4
)

// contentQuality weights
const (
	substantialTextWeight = 0.3
	longTextWeight        = 0.2
	headingsWeight        = 0.2
	paragraphsWeight      = 0.2
	descriptionWeight     = 0.1
)

// importance starts at baseImportance and gains the weights below
const (
	baseImportance   = 0.5
	titleWeight      = 0.1
	articleWeight    = 0.2
	breadcrumbWeight = 0.1
	sharingWeight    = 0.1

	minTitleLen = 11
	maxTitleLen = 69
)

func contentQuality(doc *Document) float64 {
	score := 0.0

	textLength := len(strings.TrimSpace(doc.Find("body").Text()))
	if textLength > substantialText {
		score += substantialTextWeight
	}
	if textLength > longText {
		score += longTextWeight
	}
	if doc.Find("h1, h2, h3").Length() > 0 {
		score += headingsWeight
	}
	if doc.Find("p").Length() >= minParagraphs {
		score += paragraphsWeight
	}
	if doc.Find("meta[name='description']").Length() > 0 {
		score += descriptionWeight
	}

	return clamp(score)
}

// linkDensity is the share of body text that sits inside anchors.
func linkDensity(doc *Document) float64 {
	textLength := len(doc.Find("body").Text())
	if textLength == 0 {
		return 0
	}
	return clamp(float64(len(doc.Find("a").Text())) / float64(textLength))
}

func importance(doc *Document) float64 {
	score := baseImportance

	title := doc.Find("title").First().Text()
	if n := len(title); n >= minTitleLen && n <= maxTitleLen {
		score += titleWeight
	}
	if doc.Find("article").Length() > 0 {
		score += articleWeight
	}
	if doc.Find("nav, .breadcrumb").Length() > 0 {
		score += breadcrumbWeight
	}
	if doc.Find("[class*='share'], [class*='social']").Length() > 0 {
		score += sharingWeight
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
