package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/probeexporter/internal/domain"
)

type client struct {
	base string
	key  string
	http *http.Client
}

func newClient() *client {
	return &client{
		base: strings.TrimRight(apiBase, "/"),
		key:  apiKey,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func parseKind(s string) (domain.Kind, error) {
	k := domain.Kind(strings.ToLower(s))
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q (want domain, ssl, port or http)", s)
	}
	return k, nil
}

func triggerPath(arg string) (string, error) {
	if strings.EqualFold(arg, "all") {
		return "/api/check/all", nil
	}
	k, err := parseKind(arg)
	if err != nil {
		return "", err
	}
	return "/api/" + string(k) + "/check", nil
}

// statusPath maps a target to the key the server indexes it by.
func statusPath(kind, target string) (string, error) {
	k, err := parseKind(kind)
	if err != nil {
		return "", err
	}
	p := "/api/" + string(k) + "/status"
	if target == "" {
		return p, nil
	}
	if k == domain.KindHTTP {
		return p + "/" + domain.URLHash(target), nil
	}
	return p + "/" + url.PathEscape(target), nil
}

// print performs the request and writes the body to out, indenting JSON.
func (c *client) print(ctx context.Context, out io.Writer, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var buf bytes.Buffer
	if json.Indent(&buf, body, "", "  ") == nil {
		body = buf.Bytes()
	}
	_, err = fmt.Fprintln(out, strings.TrimSpace(string(body)))
	return err
}
