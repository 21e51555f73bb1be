package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"smart-scraper/models"
	"smart-scraper/utils"
)

var errNotRanked = errors.New("domain is not ranked")

// AlexaRank looks domain up on the configured ranking endpoint. The endpoint
// answers with an XML document carrying POPULARITY and COUNTRY elements.
func (c *Client) AlexaRank(ctx context.Context, domain string) (*models.Rank, error) {
	host, err := utils.GetDomain(domain)
	if err != nil {
		return nil, err
	}

	res, err := c.SendRequest(ctx, c.cfg.RankEndpoint, RequestOptions{
		Params: map[string]string{"url": host},
	})
	if err != nil {
		return nil, err
	}

	// goquery lower-cases element and attribute names of the XML payload
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rank data for %s: %w", host, err)
	}

	popularity, ok := doc.Find("popularity").First().Attr("text")
	if !ok {
		return nil, &UnavailableError{URL: res.URL, StatusCode: res.StatusCode, Err: errNotRanked}
	}
	global, err := strconv.Atoi(strings.TrimSpace(popularity))
	if err != nil {
		return nil, &UnavailableError{URL: res.URL, StatusCode: res.StatusCode, Err: fmt.Errorf("bad popularity %q", popularity)}
	}

	rank := &models.Rank{Global: global}
	country := doc.Find("country").First()
	rank.CountryCode = country.AttrOr("code", "")
	if r, ok := country.Attr("rank"); ok {
		rank.CountryRank, _ = strconv.Atoi(strings.TrimSpace(r))
	}

	return rank, nil
}
