package crawler

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"smart-scraper/config"
	"smart-scraper/models"
	"smart-scraper/utils"
)

const indexPage = `<html><head><title>Index of posts</title></head><body>
<nav class="breadcrumb">home</nav>
<a href="">empty</a>
<a href="#">hash</a>
<a href="#top">top</a>
<a href="/wiki/sky">sky</a>
<a href="/wiki/sky">sky again</a>
<a href="wiki/sea#section">sea</a>
<a href="https://other.org/wiki">other wiki</a>
<a href="https://other.org/post">other post</a>
<a href="javascript:void(0)">js</a>
<a>no href</a>
<a class="directlink" href="/img/cat%20pic.png">image</a>
</body></html>`

const robotsFile = `User-agent: *
Disallow: /admin
Disallow: /private/ # not for crawlers
allow: /public
Disallow:
DISALLOW: /admin

User-agent: BadBot
Disallow: /

Sitemap: https://example.org/sitemap.xml
`

var imageBytes = []byte(strings.Repeat("\x89PNG-fake-image-data", 16))

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, indexPage)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, robotsFile)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(imageBytes)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil {
			fmt.Fprintf(w, "q=%s cookie=", r.URL.Query().Get("q"))
			return
		}
		fmt.Fprintf(w, "q=%s cookie=%s", r.URL.Query().Get("q"), c.Value)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.ParseForm()
		if r.PostForm.Get("username") != "scraper" || r.PostForm.Get("password") != "hunter2" || r.URL.Query().Get("product") != "mail" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "42", Path: "/"})
		fmt.Fprint(w, `welcome, index at href = "/me"`)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil {
			fmt.Fprint(w, "anonymous")
			return
		}
		fmt.Fprintf(w, "sid=%s", c.Value)
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		if r.URL.Query().Get("cli") != "10" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		switch r.URL.Query().Get("url") {
		case "ranked.example":
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ALEXA VER="0.9" URL="ranked.example/" HOME="0" AID="=">
<SD><POPULARITY URL="ranked.example/" TEXT="1234" SOURCE="panel"/><REACH RANK="1500"/><RANK DELTA="+12"/><COUNTRY CODE="JP" NAME="Japan" RANK="321"/></SD>
</ALEXA>`)
		default:
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><ALEXA VER="0.9" URL="unknown" HOME="0" AID="="></ALEXA>`)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&config.Config{
		UserAgent:      "smart-scraper-test/1.0",
		RequestTimeout: 5,
		RankEndpoint:   srv.URL + "/data?cli=10",
	})
}

// closedURL points at a port nothing listens on anymore.
func closedURL(t *testing.T) string {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func TestSendRequest(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	res, err := client.SendRequest(ctx, srv.URL, RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Text(), "Index of posts")
	require.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))

	res, err = client.SendRequest(ctx, srv.URL+"/echo", RequestOptions{
		Params:  map[string]string{"q": "sky"},
		Cookies: []*http.Cookie{{Name: "session", Value: "abc123"}},
	})
	require.NoError(t, err)
	require.Equal(t, "q=sky cookie=abc123", res.Text())
}

func TestSendRequestUnavailable(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	_, err := client.SendRequest(ctx, srv.URL+"/missing", RequestOptions{})
	require.ErrorIs(t, err, ErrUnavailable)
	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	require.Equal(t, http.StatusNotFound, unavailable.StatusCode)

	_, err = client.SendRequest(ctx, closedURL(t), RequestOptions{})
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = client.SendRequest(ctx, srv.URL+"/slow", RequestOptions{Timeout: 100 * time.Millisecond})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendRequestTimeoutOverride(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(&config.Config{RequestTimeout: 1})
	ctx := context.Background()

	// /slow answers after two seconds, past the configured one second
	_, err := client.SendRequest(ctx, srv.URL+"/slow", RequestOptions{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := client.SendRequest(ctx, srv.URL+"/slow", RequestOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestFetch(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	doc, err := client.Fetch(ctx, srv.URL, RequestOptions{})
	require.NoError(t, err)
	imgs := doc.Attrs("a.directlink", "href")
	require.Equal(t, []string{"/img/cat%20pic.png"}, imgs)
	first, ok := doc.AttrFirst("a.directlink", "href")
	require.True(t, ok)
	require.Equal(t, imgs[0], first)
	require.Equal(t, "Index of posts", doc.First("title"))
	require.Contains(t, doc.Texts("a"), "other wiki")

	_, ok = doc.AttrFirst("img", "src")
	require.False(t, ok)

	require.Equal(t, srv.URL+"/img/cat%20pic.png", doc.Resolve(first))
	require.Equal(t, "", doc.Resolve("#top"))

	doc, err = client.Fetch(ctx, closedURL(t), RequestOptions{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, doc)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	postdata := map[string]string{"username": "scraper", "password": "hunter2"}
	params := map[string]string{"product": "mail"}

	res, session, err := client.Login(ctx, srv.URL+"/login", postdata, params)
	require.NoError(t, err)
	require.NotNil(t, session)

	hrefs, err := ReLinks(res, `href = "(.*?)"`)
	require.NoError(t, err)
	require.Equal(t, []string{"/me"}, hrefs)

	index, err := session.SendRequest(ctx, srv.URL+hrefs[0], RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, "sid=42", index.Text())

	// the client that started the login stays anonymous
	index, err = client.SendRequest(ctx, srv.URL+"/me", RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, "anonymous", index.Text())

	_, session, err = client.Login(ctx, srv.URL+"/login", map[string]string{"username": "scraper"}, params)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, session)

	_, _, err = client.Login(ctx, closedURL(t), postdata, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestLinks(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)

	res, err := client.SendRequest(context.Background(), srv.URL, RequestOptions{})
	require.NoError(t, err)

	links, err := Links(res, "")
	require.NoError(t, err)
	require.Equal(t, []string{
		srv.URL + "/wiki/sky",
		srv.URL + "/wiki/sea",
		"https://other.org/wiki",
		"https://other.org/post",
		srv.URL + "/img/cat%20pic.png",
	}, links)
	require.NotContains(t, links, "")
	require.NotContains(t, links, "#")

	unique := make(map[string]bool)
	for _, l := range links {
		unique[l] = true
	}
	require.Len(t, unique, len(links))

	wikis, err := Links(res, "wiki")
	require.NoError(t, err)
	require.Len(t, wikis, 3)
	for _, w := range wikis {
		require.Contains(t, w, "wiki")
	}

	none, err := Links(res, "no-such-fragment")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestLinksBaseElement(t *testing.T) {
	res := &models.Response{
		URL:  "https://example.org/gallery/index.html",
		Body: []byte(`<html><head><base href="https://cdn.example.org/static/"></head><body><a href="a.png">a</a><a href="/b.png">b</a></body></html>`),
	}
	links, err := Links(res, "")
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.example.org/static/a.png", "https://cdn.example.org/b.png"}, links)
}

func TestReLinks(t *testing.T) {
	res := &models.Response{URL: "https://example.org/", Body: []byte(indexPage)}

	hrefs, err := ReLinks(res, `/wiki/[a-z]+`)
	require.NoError(t, err)
	require.Equal(t, []string{"/wiki/sky", "/wiki/sky"}, hrefs)

	hrefs, err = ReLinks(res, `href="(https://other\.org/[a-z]+)"`)
	require.NoError(t, err)
	require.Equal(t, []string{"https://other.org/wiki", "https://other.org/post"}, hrefs)

	hrefs, err = ReLinks(res, `nothing-like-this`)
	require.NoError(t, err)
	require.NotNil(t, hrefs)
	require.Empty(t, hrefs)

	hrefs, err = ReLinks(&models.Response{}, `.+`)
	require.NoError(t, err)
	require.Empty(t, hrefs)

	_, err = ReLinks(res, `(`)
	require.Error(t, err)
}

func TestParseRobots(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	robots, err := client.ParseRobots(ctx, srv.URL+"/post?page=2")
	require.NoError(t, err)
	require.Equal(t, []string{"/admin", "/private/", "/public", "/"}, robots.Paths)
	require.Equal(t, srv.URL+"/admin", robots.URLs()[0])
	require.Equal(t, []string{"https://example.org/sitemap.xml"}, robots.Sitemaps)

	require.False(t, robots.Allowed("/admin", "smart-scraper"))
	require.True(t, robots.Allowed("/public", "smart-scraper"))
	require.False(t, robots.Allowed("/public", "BadBot"))

	empty := httptest.NewServer(http.NotFoundHandler())
	defer empty.Close()
	_, err = client.ParseRobots(ctx, empty.URL)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = client.ParseRobots(ctx, closedURL(t))
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = client.ParseRobots(ctx, "http://")
	require.ErrorIs(t, err, utils.ErrInvalidURL)
}

func TestNewRobotsEmpty(t *testing.T) {
	robots, err := NewRobots("https://example.org", []byte("User-agent: *\n"))
	require.NoError(t, err)
	require.Empty(t, robots.Paths)
	require.Empty(t, robots.URLs())
	require.True(t, robots.Allowed("/anything", "smart-scraper"))
}

func TestAlexaRank(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	rank, err := client.AlexaRank(ctx, "https://ranked.example/post")
	require.NoError(t, err)
	require.Equal(t, &models.Rank{Global: 1234, CountryCode: "JP", CountryRank: 321}, rank)

	rank, err = client.AlexaRank(ctx, "unranked.example")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, rank)

	offline := NewClient(&config.Config{RequestTimeout: 5, RankEndpoint: closedURL(t) + "/data"})
	_, err = offline.AlexaRank(ctx, "ranked.example")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGetImgName(t *testing.T) {
	img := "https://konachan.com/image/0f3e/Konachan.com%20-%20300123%20sky%20clouds.jpg"

	name := GetImgName(img, false)
	require.Equal(t, "Konachan.com - 300123 sky clouds.jpg", name)
	require.NotContains(t, name, "%")

	random := GetImgName(img, true)
	require.NotEqual(t, name, random)
	require.True(t, strings.HasSuffix(random, ".jpg"))
	require.NotEqual(t, random, GetImgName(img, true))

	require.Equal(t, "a b.png", GetImgName("//cdn.example.org/x/a%2520b.png?size=large", false))
	require.Equal(t, "zz.png", GetImgName("https://example.org/%zz.png", false))
	require.Equal(t, "ab.gif", GetImgName("https://example.org/a%3Fb.gif", false))
	require.Equal(t, "index", GetImgName("example.org", false))
}

func TestSaveImg(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(srv)
	ctx := context.Background()
	dir := t.TempDir()

	doc, err := client.Fetch(ctx, srv.URL, RequestOptions{})
	require.NoError(t, err)
	href, ok := doc.AttrFirst("a.directlink", "href")
	require.True(t, ok)
	img := srv.URL + href

	filename := filepath.Join(dir, GetImgName(img, false))
	n, err := client.SaveImg(ctx, img, filename)
	require.NoError(t, err)
	require.Equal(t, len(imageBytes), n)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Equal(t, imageBytes, data)
	require.Greater(t, len(data), 100)

	missing := filepath.Join(dir, "missing.png")
	n, err = client.SaveImg(ctx, srv.URL+"/missing.png", missing)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Zero(t, n)
	_, err = os.Stat(missing)
	require.ErrorIs(t, err, fs.ErrNotExist)

	offline := filepath.Join(dir, "offline.png")
	_, err = client.SaveImg(ctx, closedURL(t)+"/a.png", offline)
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = os.Stat(offline)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestAnalyze(t *testing.T) {
	body := []byte(indexPage)
	doc, err := NewDocument(&models.Response{
		StatusCode: http.StatusOK,
		URL:        "https://example.org/",
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       body,
		Elapsed:    120 * time.Millisecond,
	})
	require.NoError(t, err)

	metrics := Analyze(doc)
	require.Equal(t, "Index of posts", metrics.Title)
	require.Equal(t, fmt.Sprintf("%x", md5.Sum(body)), metrics.Hash)
	// title length and breadcrumb nav
	require.InDelta(t, 0.7, metrics.Importance, 1e-9)
	require.Zero(t, metrics.ContentQuality)
	require.Greater(t, metrics.LinkDensity, 0.5)
	require.LessOrEqual(t, metrics.LinkDensity, 1.0)

	page := NewPage(doc)
	require.Equal(t, "https://example.org/", page.URL)
	require.Equal(t, "text/html", page.ContentType)
	require.Equal(t, int64(len(body)), page.Size)
	require.Equal(t, int64(120), page.LoadTime)
	require.Equal(t, 5, page.Links)
	require.Equal(t, metrics, page.Metrics)
}

func TestAnalyzeFullScores(t *testing.T) {
	body := `<html><head><title>A long enough title</title><meta name="description" content="d"></head><body>
<nav class="breadcrumb"><a href="/">home</a></nav>
<article><h1>Heading</h1>` + strings.Repeat("<p>"+strings.Repeat("plain words ", 50)+"</p>", 4) + `</article>
<div class="share-bar">share</div>
</body></html>`
	doc, err := NewDocument(&models.Response{URL: "https://example.org/post", Body: []byte(body)})
	require.NoError(t, err)

	metrics := Analyze(doc)
	require.InDelta(t, 1.0, metrics.ContentQuality, 1e-9)
	require.InDelta(t, 1.0, metrics.Importance, 1e-9)
	require.Less(t, metrics.LinkDensity, 0.01)
}
