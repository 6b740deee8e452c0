package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPInvoker posts commands to the backend's HTTP bridge.
type HTTPInvoker struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

var _ Invoker = (*HTTPInvoker)(nil)

const (
	defaultBackendAddr = "127.0.0.1:7487"
	defaultUserAgent   = "ntdash/0.1"
	requestTimeout     = 5 * time.Second
	maxReplyBytes      = 64 << 20
)

// NewHTTPInvoker builds an invoker for a host:port or URL.
func NewHTTPInvoker(addr string) (*HTTPInvoker, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	return &HTTPInvoker{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Invoke sends POST /invoke/<command> with args as the JSON body.
func (c *HTTPInvoker) Invoke(ctx context.Context, command string, args any, dest any) error {
	if c == nil {
		return fmt.Errorf("invoker is nil")
	}
	body, err := encodeArgs(command, args)
	if err != nil {
		return err
	}
	rel := &url.URL{Path: "/invoke/" + url.PathEscape(command)}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return decodeReply(command, reply, dest)
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultBackendAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend_addr %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
