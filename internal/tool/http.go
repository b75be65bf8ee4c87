package tool

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

// maxResponseSize bounds http_request response bodies (10 MB).
const maxResponseSize = 10 * 1024 * 1024

// allowedMethods is the enumerated set of permitted HTTP methods.
var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
	http.MethodPatch:  {},
	http.MethodHead:   {},
}

type httpRequestArgs struct {
	Method  string          `json:"method"`
	URL     string          `json:"url"`
	Headers map[string]any  `json:"headers"`
	Body    json.RawMessage `json:"body"`
}

// httpRequest performs a bounded HTTP request. A structured body is
// forwarded as JSON, a string body as raw text. Timeouts and transport
// failures become error results, never exceptions past the boundary.
func (e *Executor) httpRequest(ctx context.Context, args json.RawMessage) Result {
	var a httpRequestArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}

	method := strings.ToUpper(strings.TrimSpace(a.Method))
	if _, ok := allowedMethods[method]; !ok {
		return Errorf("unsupported HTTP method: %s", a.Method)
	}
	if strings.TrimSpace(a.URL) == "" {
		return Errorf("http_request requires %q", "url")
	}

	headers := make(map[string]string, len(a.Headers))
	for k, v := range a.Headers {
		s, ok := v.(string)
		if !ok {
			return Errorf("header %q must be a string", k)
		}
		headers[k] = s
	}

	body, contentType, err := encodeBody(a.Body)
	if err != nil {
		return FromError(err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeouts.HTTP)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, a.URL, body)
	if err != nil {
		return Errorf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Errorf("request timed out after %s", e.timeouts.HTTP)
		}
		return Errorf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Errorf("read response: %v", err)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k, vals := range resp.Header {
		respHeaders[k] = strings.Join(vals, ", ")
	}

	return Success(map[string]any{
		"statusCode": resp.StatusCode,
		"headers":    respHeaders,
		"body":       decodeBody(respBody),
		"success":    resp.StatusCode >= 200 && resp.StatusCode < 300,
	})
}

// encodeBody prepares the outgoing request body. A JSON string becomes raw
// text; any other JSON value is forwarded verbatim as application/json.
func encodeBody(raw json.RawMessage) (io.Reader, string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, "", nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.NewReader(asString), "", nil
	}

	if !json.Valid(raw) {
		return nil, "", fmt.Errorf("body is not valid JSON")
	}
	return bytes.NewReader(raw), "application/json", nil
}

// decodeBody parses a response body as JSON when possible, falling back to
// the raw text.
func decodeBody(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		return v
	}
	return string(data)
}
