package utils

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrCookieFormat = errors.New("malformed cookie file")

const httpOnlyPrefix = "#HttpOnly_"

type CookieFormatError struct {
	File string
	Line int
	Msg  string
}

func (e *CookieFormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *CookieFormatError) Unwrap() error { return ErrCookieFormat }

// ReadCookies loads a Netscape cookie file (the format curl and browser
// exporters write): domain, include-subdomains, path, secure, expiry, name, value.
func ReadCookies(filename string) ([]*http.Cookie, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, &CookieFormatError{File: filename, Line: lineNo, Msg: fmt.Sprintf("expected 7 tab-separated fields, got %d", len(fields))}
		}
		if fields[5] == "" {
			return nil, &CookieFormatError{File: filename, Line: lineNo, Msg: "empty cookie name"}
		}
		secure, err := parseFlag(fields[3])
		if err != nil {
			return nil, &CookieFormatError{File: filename, Line: lineNo, Msg: err.Error()}
		}
		if _, err := parseFlag(fields[1]); err != nil {
			return nil, &CookieFormatError{File: filename, Line: lineNo, Msg: err.Error()}
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, &CookieFormatError{File: filename, Line: lineNo, Msg: "bad expiry " + strconv.Quote(fields[4])}
		}

		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   secure,
			HttpOnly: httpOnly,
			Name:     fields[5],
			Value:    fields[6],
		}
		// 0 marks a session cookie
		if expiry > 0 {
			cookie.Expires = time.Unix(expiry, 0).UTC()
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	return cookies, nil
}

// CookieValues flattens cookies into a name to value map.
func CookieValues(cookies []*http.Cookie) map[string]string {
	values := make(map[string]string, len(cookies))
	for _, c := range cookies {
		values[c.Name] = c.Value
	}
	return values
}

func parseFlag(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("bad flag %q", s)
}
