package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL points at the local development payment service.
	DefaultBaseURL = "http://localhost:8084"
	// DefaultTimeout bounds every request issued by the client.
	DefaultTimeout = 10 * time.Second
)

// Options configures a RestyClient.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// RestyClient adapts resty.Client to the httpclient.Doer interface.
type RestyClient struct {
	client *resty.Client
}

// New creates a RestyClient with the given base URL, headers and timeout.
// Zero values fall back to DefaultBaseURL, DefaultTimeout and a JSON content type.
func New(opts Options) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(normalizeOptions(opts))}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

func normalizeOptions(opts Options) Options {
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range opts.Headers {
		if k = strings.TrimSpace(k); k != "" {
			headers[k] = v
		}
	}
	opts.Headers = headers
	return opts
}

// newRestyBaseClient creates a resty.Client from normalized options.
func newRestyBaseClient(opts Options) *resty.Client {
	c := NewRestyHTTPClient(opts.Timeout)
	c.SetBaseURL(opts.BaseURL)
	c.SetHeaders(opts.Headers)
	c.SetRetryCount(0)
	return c
}

// BaseURL returns the address requests are resolved against.
func (r *RestyClient) BaseURL() string { return r.client.BaseURL }

// Do issues a single request for path relative to the base URL. A non-nil body
// is encoded as JSON. Non-2xx responses are returned as *StatusError.
func (r *RestyClient) Do(ctx context.Context, method, path string, body any) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Get performs an HTTP GET request for path.
func (r *RestyClient) Get(ctx context.Context, path string) (Response, error) {
	return r.Do(ctx, http.MethodGet, path, nil)
}

// Post performs an HTTP POST request for path with an optional JSON body.
func (r *RestyClient) Post(ctx context.Context, path string, body any) (Response, error) {
	return r.Do(ctx, http.MethodPost, path, body)
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
