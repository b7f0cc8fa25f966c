// =============================================================================
// FILE: internal/rpc/types.go
// ROLE: JSON-RPC 2.0 envelope shared by every transport
// =============================================================================
//
// Both transports speak the same envelope. A request names a method in the
// "<group>_<method>" convention and carries positional params that the api
// package has already coerced into wire form:
//
//	{"jsonrpc":"2.0","id":7,"method":"eth_getBalance","params":["0xab..","latest"]}
//
// Responses echo the id and carry either "result" or "error". Server push
// notifications (WebSocket only) carry no id and use the method
// "<namespace>_subscription":
//
//	{"jsonrpc":"2.0","method":"eth_subscription",
//	 "params":{"subscription":"0x9ce5..","result":{...}}}
//
// Result stays a json.RawMessage all the way up to the module clients, which
// know what shape to expect and apply the matching format.Out* coercion.
// =============================================================================

package rpc

import (
	"encoding/json"
	"strings"
)

const jsonrpcVersion = "2.0"

// Request is an outgoing JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response is a JSON-RPC 2.0 reply. Error is nil on success.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the "error" member of a JSON-RPC response.
//
// Standard codes: -32700 parse error, -32600 invalid request, -32601 method
// not found, -32602 invalid params, -32603 internal error. Parity adds its
// own range (e.g. -32040 request rejected, -32021 invalid password).
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *ErrorObject) toError() *Error {
	return &Error{Kind: KindRPC, Code: e.Code, Message: e.Message, Data: e.Data}
}

// message is the superset used to decode anything arriving on a socket:
// responses have an ID, notifications have Method and Params.
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

func (m *message) isNotification() bool {
	return m.ID == nil && strings.HasSuffix(m.Method, "_subscription")
}

// subscriptionParams is the params object of a subscription notification.
type subscriptionParams struct {
	Subscription string          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
	Error        *ErrorObject    `json:"error,omitempty"`
}

func newRequest(id uint64, method string, params []interface{}) Request {
	if params == nil {
		params = []interface{}{}
	}
	return Request{JSONRPC: jsonrpcVersion, ID: id, Method: method, Params: params}
}

// IsNull reports whether a raw result is absent or JSON null.
func IsNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
