// Package remoteapi клиент удаленного REST API контента: портфолио, студии,
// публикации, статус подписки и платежи. Ответы 429 и 404 превращаются в
// apperr.ErrRateLimited и apperr.ErrNotFound, прочие сбои: в apperr.ErrTransient.
package remoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/lib/metrics"
)

// Client клиент удаленного API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент удаленного API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError ответ удаленного API с неуспешным статусом.
type StatusError struct {
	Status  int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote api: status %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func classify(status int, body []byte) error {
	msg := gjson.GetBytes(body, "message").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "error").String()
	}
	kind := apperr.ErrTransient
	switch status {
	case http.StatusTooManyRequests:
		kind = apperr.ErrRateLimited
	case http.StatusNotFound:
		kind = apperr.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = apperr.ErrValidation
	}
	return &StatusError{Status: status, Message: msg, kind: kind}
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b := &bytes.Buffer{}
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return nil, err
		}
		buf = b
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do выполняет запрос и декодирует JSON-ответ в out (если out не nil).
func (c *Client) do(ctx context.Context, endpoint, method, path, token string, body, out any) error {
	op := "remoteapi." + endpoint

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrTransient, err)
	}
	defer resp.Body.Close()
	metrics.RemoteRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode/100)+"xx").Observe(time.Since(start).Seconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, classify(resp.StatusCode, data))
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", op, apperr.ErrTransient, err)
	}
	return nil
}

func pageQuery(page, size int, extra map[string]string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	for k, v := range extra {
		if v != "" {
			q.Set(k, v)
		}
	}
	return "?" + q.Encode()
}
