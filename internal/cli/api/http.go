package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"DocPlatform/internal/cli/repo"
)

// send выполняет одну попытку запроса. Возвращает ответ с любым статусом и
// access-токен, с которым запрос ушёл.
func (c *Client) send(ctx context.Context, req Request, body []byte, contentType string) (*Response, string, error) {
	target, err := resolve(c.baseURL, req.Path, req.Query)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(actx, req.Method, target, rdr)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	for k, vs := range req.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	if contentType != "" && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	if hreq.Header.Get("Accept") == "" {
		hreq.Header.Set("Accept", "application/json")
	}
	hreq.Header.Set(RequestIDHeader, req.requestID)

	sent, err := c.authorize(hreq, req)
	if err != nil {
		return nil, "", err
	}

	op := req.Method + " " + req.Path
	hres, err := c.http.Do(hreq)
	if err != nil {
		return nil, sent, &NetworkError{Op: op, Err: err}
	}
	defer hres.Body.Close()

	data, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, sent, &NetworkError{Op: op, Err: err}
	}
	c.logger.Debugw("api response",
		"request_id", req.requestID,
		"method", req.Method,
		"path", req.Path,
		"status", hres.StatusCode,
		"retry", req.retries,
	)
	return &Response{StatusCode: hres.StatusCode, Header: hres.Header, Body: data}, sent, nil
}

// authorize подставляет bearer-токен, если заголовок не задан вызывающим.
func (c *Client) authorize(hreq *http.Request, req Request) (string, error) {
	if req.AuthExempt {
		return "", nil
	}
	if req.bearer != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.bearer)
		return req.bearer, nil
	}
	if h := hreq.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer "), nil
	}
	pair, err := c.store.Load()
	switch {
	case errors.Is(err, repo.ErrNoTokens):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("load tokens: %w", err)
	}
	if pair.Access != "" {
		hreq.Header.Set("Authorization", "Bearer "+pair.Access)
	}
	return pair.Access, nil
}
