package crawler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"smart-scraper/utils"
)

type Robots struct {
	// Origin is scheme://domain of the site the file belongs to.
	Origin   string
	Paths    []string
	Sitemaps []string

	data *robotstxt.RobotsData
}

// ParseRobots fetches robots.txt for the domain of rawURL.
func (c *Client) ParseRobots(ctx context.Context, rawURL string) (*Robots, error) {
	target := utils.EnsureSchema(rawURL)
	domain, err := utils.GetDomain(target)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidURL, err)
	}

	origin := fmt.Sprintf("%s://%s", u.Scheme, domain)
	res, err := c.SendRequest(ctx, origin+"/robots.txt", RequestOptions{
		Headers: map[string]string{"Accept": "text/plain,*/*;q=0.8"},
	})
	if err != nil {
		return nil, err
	}
	return NewRobots(origin, res.Body)
}

func NewRobots(origin string, body []byte) (*Robots, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt of %s: %w", origin, err)
	}
	return &Robots{
		Origin:   origin,
		Paths:    robotsPaths(body),
		Sitemaps: data.Sitemaps,
		data:     data,
	}, nil
}

// URLs returns Paths as absolute URLs on Origin.
func (r *Robots) URLs() []string {
	urls := make([]string, 0, len(r.Paths))
	for _, p := range r.Paths {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		urls = append(urls, r.Origin+p)
	}
	return urls
}

func (r *Robots) Allowed(path, agent string) bool {
	return r.data.TestAgent(path, agent)
}

// robotsPaths collects Allow and Disallow targets in file order. robotstxt
// keeps its rules private, so the lines are read here.
func robotsPaths(body []byte) []string {
	paths := []string{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		directive, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(directive)) {
		case "allow", "disallow":
		default:
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		paths = append(paths, value)
	}

	return paths
}
