package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 32 * 1024 * 1024

// HTTPTransport sends one JSON-RPC request per HTTP POST. Failed calls are
// never retried here; retry policy belongs to the caller.
type HTTPTransport struct {
	url        string
	httpClient *http.Client
	headers    http.Header
	nextID     atomic.Uint64
}

func NewHTTPTransport(url string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		headers:    make(http.Header),
	}
}

// SetHeader adds a header to every outgoing request (e.g. Authorization).
func (t *HTTPTransport) SetHeader(key, value string) {
	t.headers.Set(key, value)
}

func (t *HTTPTransport) URL() string { return t.url }

// Execute POSTs method with params and returns the raw result.
func (t *HTTPTransport) Execute(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	req := newRequest(t.nextID.Add(1), method, params)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, Wrap(KindValidation, err, "encode request "+method)
	}

	start := time.Now()
	resp, err := t.doRequest(ctx, body)
	log.Trace("RPC call", "transport", "http", "method", method, "id", req.ID, "elapsed", time.Since(start), "err", err)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.toError()
	}
	if resp.ID != req.ID {
		return nil, Errorf(KindProtocol, "response id %d does not match request id %d", resp.ID, req.ID)
	}
	return resp.Result, nil
}

func (t *HTTPTransport) doRequest(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, Wrap(KindValidation, err, "build http request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range t.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(err, "http request failed")
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(err, "read http response")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(httpResp.StatusCode)
		}
		// Some nodes answer JSON-RPC errors with a non-2xx status.
		var resp Response
		if json.Unmarshal(respBody, &resp) == nil && resp.Error != nil {
			return nil, resp.Error.toError()
		}
		return nil, &Error{Kind: KindHTTP, Code: httpResp.StatusCode, Message: msg}
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, Wrap(KindParse, err, "invalid JSON response")
	}
	return &resp, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
