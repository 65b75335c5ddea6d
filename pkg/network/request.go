package network

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request describes one API call and how to decode its response body.
type Request[T any] struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// Path is resolved against the manager's base URL. An absolute URL
	// overrides the base, which is how override URLs from the server work.
	Path string

	// Query holds query string parameters.
	Query url.Values

	// Body is sent as-is with ContentType.
	Body        []byte
	ContentType string

	// RequiresAuth applies the manager's Authorizer.
	RequiresAuth bool

	// Resource names the content for error messages, e.g. "announcements".
	Resource string

	// Decode turns a 2xx response body into T.
	Decode func(body []byte) (T, error)
}

func (r Request[T]) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r Request[T]) resource() string {
	if r.Resource != "" {
		return r.Resource
	}
	return r.Path
}

// DecodeJSON returns a decoder that unmarshals a JSON body into T.
func DecodeJSON[T any]() func([]byte) (T, error) {
	return func(body []byte) (T, error) {
		var v T
		err := json.Unmarshal(body, &v)
		return v, err
	}
}

// DecodeNothing accepts any body. Use it for requests whose response is
// irrelevant, such as fire-and-forget updates.
func DecodeNothing(body []byte) (struct{}, error) {
	return struct{}{}, nil
}

// JSONBody marshals v for use as a request body.
func JSONBody(v interface{}) ([]byte, string, error) {
	body, err := json.Marshal(v)
	return body, "application/json", err
}
