package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	backendSessionCookie = "session"
	requestIDHeader      = "X-Request-ID"
)

var ErrBackendUnavailable = errors.New("backend unavailable")

// Client talks to the quizbox backend on behalf of a browser session.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Response is a buffered backend reply. Session holds the backend session
// token when the reply set one.
type Response struct {
	Status  int
	Body    []byte
	Session string
}

// ErrorMessage returns the "error" field of a JSON error body, or the status text.
func (r *Response) ErrorMessage() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(r.Status)
}

func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (c *Client) Get(ctx context.Context, path, session string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, session)
}

func (c *Client) Post(ctx context.Context, path string, body []byte, session string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, session)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, session string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: backendSessionCookie, Value: session})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrBackendUnavailable, err)
	}

	out := &Response{Status: resp.StatusCode, Body: data}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == backendSessionCookie && cookie.Value != "" {
			out.Session = cookie.Value
		}
	}
	return out, nil
}

type contextKey string

const requestIDKey contextKey = "requestID"

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
