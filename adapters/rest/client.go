package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/core"
)

const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the AssessAssist REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *BearerAuthorizer
	log     logrus.FieldLogger
}

var _ core.Authenticator = (*Client)(nil)

type Options struct {
	// Timeout applies to resource calls; zero means DefaultTimeout.
	// Login relies on the caller's context instead.
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    logrus.FieldLogger
}

func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	auth := &BearerAuthorizer{}
	return &Client{
		baseURL: u.String(),
		http: &http.Client{
			Transport: &bearerTransport{base: opts.Transport, auth: auth},
			Timeout:   opts.Timeout,
		},
		auth: auth,
		log:  log.WithField("component", "rest"),
	}, nil
}

// Authorizer controls the bearer token of every request this client sends.
func (c *Client) Authorizer() *BearerAuthorizer {
	return c.auth
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts the credentials to /auth/login.
// Non-2xx responses and transport failures become *core.AuthError carrying
// the backend's message or core.DefaultAuthReason.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (*core.LoginResult, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, core.NewAuthError("", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewAuthError("", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// login must not be cut short by the resource timeout
	login := *c.http
	login.Timeout = 0

	resp, err := login.Do(req)
	if err != nil {
		return nil, core.NewAuthError("", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.Body)
		authErr := core.NewAuthError(msg, fmt.Errorf("login returned status %d", resp.StatusCode))
		authErr.Status = resp.StatusCode
		return nil, authErr
	}

	var result core.LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.NewAuthError("", fmt.Errorf("decode login response: %w", err))
	}
	return &result, nil
}

// APIError is a non-2xx response from a resource endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body.
// Recognised shapes: {"error":{"message":"..."}}, {"error":"..."}, {"message":"..."}.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}

	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return ""
	}

	if len(body.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(body.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	return body.Message
}
