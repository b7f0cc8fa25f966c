package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler answers one call made against a MockTransport.
type Handler func(params []interface{}) (interface{}, error)

// MockTransport is a scripted in-memory Transport. Each method name maps to
// a Handler; unscripted methods fail with KindRPC -32601. Every call is
// recorded so tests can assert on the exact wire params.
type MockTransport struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []MockCall
}

// MockCall is one recorded Execute.
type MockCall struct {
	Method string
	Params []interface{}
}

func NewMockTransport() *MockTransport {
	return &MockTransport{handlers: make(map[string]Handler)}
}

// Handle scripts method with a handler.
func (m *MockTransport) Handle(method string, h Handler) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = h
	return m
}

// Respond scripts method with a fixed result.
func (m *MockTransport) Respond(method string, result interface{}) *MockTransport {
	return m.Handle(method, func([]interface{}) (interface{}, error) { return result, nil })
}

// Fail scripts method with a fixed error.
func (m *MockTransport) Fail(method string, err error) *MockTransport {
	return m.Handle(method, func([]interface{}) (interface{}, error) { return nil, err })
}

func (m *MockTransport) Execute(_ context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Params: params})
	h, ok := m.handlers[method]
	m.mu.Unlock()

	if !ok {
		return nil, &Error{Kind: KindRPC, Code: -32601, Message: fmt.Sprintf("the method %s does not exist/is not available", method)}
	}
	result, err := h(params)
	if err != nil {
		return nil, err
	}
	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, Wrap(KindParse, err, "encode mock result")
	}
	return raw, nil
}

func (m *MockTransport) Close() error { return nil }

// Calls returns a copy of the recorded calls.
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls of one method.
func (m *MockTransport) CallsTo(method string) []MockCall {
	var out []MockCall
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
