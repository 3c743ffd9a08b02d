package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Doer abstracts HTTP calls so callers can inject mocks or different transports.
type Doer interface {
	Do(ctx context.Context, method, path string, body any) (Response, error)
}
