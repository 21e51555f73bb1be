package crawler

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smart-scraper/utils"
)

const defaultImgName = "index"

// GetImgName derives a file name from the last path segment of rawURL. With
// random set the base name is replaced by a fresh uuid, keeping the extension.
func GetImgName(rawURL string, random bool) string {
	segment := ""
	if u, err := url.Parse(utils.EnsureSchema(rawURL)); err == nil {
		segment = path.Base(u.EscapedPath())
	} else {
		segment = rawURL
		if i := strings.IndexAny(segment, "?#"); i >= 0 {
			segment = segment[:i]
		}
		segment = segment[strings.LastIndex(segment, "/")+1:]
	}
	if segment == "." || segment == "/" {
		segment = ""
	}

	name := utils.Rectify(unescape(segment))
	name = strings.ReplaceAll(name, "%", "")
	if name == "" {
		name = defaultImgName
	}

	if random {
		return uuid.NewString() + path.Ext(name)
	}
	return name
}

// unescape decodes repeatedly so double-encoded names come out clean.
func unescape(s string) string {
	for i := 0; i < 3 && strings.Contains(s, "%"); i++ {
		decoded, err := url.PathUnescape(s)
		if err != nil || decoded == s {
			break
		}
		s = decoded
	}
	return s
}

// SaveImg downloads rawURL into filename, or into GetImgName(rawURL) when
// filename is empty. Nothing is written when the download fails.
func (c *Client) SaveImg(ctx context.Context, rawURL, filename string) (int, error) {
	res, err := c.SendRequest(ctx, rawURL, RequestOptions{
		Headers: map[string]string{"Accept": "image/*,*/*;q=0.8"},
	})
	if err != nil {
		return 0, err
	}

	if filename == "" {
		filename = GetImgName(rawURL, false)
	}
	if err := os.WriteFile(filename, res.Body, 0644); err != nil {
		return 0, fmt.Errorf("failed to write image: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("url", res.URL).Str("file", filename).Int("bytes", len(res.Body)).Msg("saved image")
	return len(res.Body), nil
}
