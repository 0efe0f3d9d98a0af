package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/logger"
	"go-raffle-images/internal/messages"
	"go-raffle-images/pkg/models"
	"go-raffle-images/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Options configures a Client
type Options struct {
	BaseURL string
	// Token is sent as a bearer token when set
	Token   string
	Timeout time.Duration
	Catalog *messages.Catalog
	// HTTPClient overrides the default tuned client
	HTTPClient *http.Client
}

// FilePart is one file of a multipart upload
type FilePart struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Client sends API requests and normalizes every failure.
// Successful responses are passed through; no call is retried.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	catalog *messages.Catalog
}

// New creates an API client
func New(opts Options) (*Client, error) {
	if err := validation.NewURLValidator().ValidateEndpoint(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = messages.Default()
	}

	client := opts.HTTPClient
	if client == nil {
		client = newHTTPClient(opts.Timeout)
	}

	return &Client{
		baseURL: base,
		token:   opts.Token,
		http:    client,
		catalog: catalog,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("too many redirects (limit: 3)")
			}
			return nil
		},
	}
}

// Catalog returns the message catalogue used for validation errors
func (c *Client) Catalog() *messages.Catalog {
	return c.catalog
}

// Do sends req. On a 2xx response the envelope's data member is decoded into
// out (when out is non-nil and data is present). Any other outcome is returned
// as a normalized *errors.AppError.
func (c *Client) Do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	fields := logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	}

	resp, err := c.http.Do(req)
	if err != nil {
		appErr := Normalize(RawFailure{Err: err}, c.catalog)
		logger.WithError(err).WithFields(fields).Warn("API request failed before a response was received")
		return appErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		appErr := Normalize(RawFailure{Err: err}, c.catalog)
		logger.WithError(err).WithFields(fields).Warn("Failed to read API response")
		return appErr
	}

	fields["status_code"] = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := Normalize(RawFailure{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Header:     resp.Header,
			Body:       body,
		}, c.catalog)
		fields["error_type"] = appErr.Type
		logger.WithFields(fields).Debug("API request returned an error")
		return appErr
	}

	logger.WithFields(fields).Debug("API request succeeded")

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env models.SuccessEnvelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return apperrors.NewUnrecognizedError(resp.StatusCode, statusText(resp), body)
	}
	if env.Data == nil || string(*env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(*env.Data, out); err != nil {
		return apperrors.NewUnrecognizedError(resp.StatusCode, statusText(resp), body)
	}
	return nil
}

// Get issues a GET request for path
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// Delete issues a DELETE request for path
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// PutJSON issues a PUT request with a JSON body
func (c *Client) PutJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternalError("failed to encode request", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req, out)
}

// PostMultipart uploads files under a single form field
func (c *Client) PostMultipart(ctx context.Context, path, field string, files []FilePart, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return apperrors.NewInternalError("failed to build upload", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to read %s", f.Name), err)
		}
	}
	if err := mw.Close(); err != nil {
		return apperrors.NewInternalError("failed to build upload", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.Do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create request", err)
	}
	req.Header.Set("User-Agent", "go-raffle-images/1.0")
	return req, nil
}

// statusText returns the reason phrase the server sent, or the standard text for the code
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != resp.Status && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
