// models/models.go
package models

import (
	"net/http"
	"time"
)

type Response struct {
	StatusCode int           `json:"status_code"`
	URL        string        `json:"url"`
	Header     http.Header   `json:"-"`
	Body       []byte        `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
}

func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Record is one entry of a collection headed for persistence.
type Record = map[string]any

type Rank struct {
	Global      int    `json:"global"`
	CountryCode string `json:"country_code"`
	CountryRank int    `json:"country_rank"`
}

type PageMetrics struct {
	Title          string  `json:"title"`
	ContentQuality float64 `json:"content_quality"`
	LinkDensity    float64 `json:"link_density"`
	Importance     float64 `json:"importance"`
	Hash           string  `json:"hash"`
}

type Page struct {
	ID          int64       `json:"id"`
	URL         string      `json:"url"`
	StatusCode  int         `json:"status_code"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	LoadTime    int64       `json:"load_time"`
	Links       int         `json:"links"`
	Metrics     PageMetrics `json:"metrics"`
}
