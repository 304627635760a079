// Package jsonrpc implements the marketd JSON-RPC 2.0 transport.
package jsonrpc

import "encoding/json"

// Request is a JSON-RPC request envelope.
type Request struct {
	JsonRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC success envelope.
type Response struct {
	JsonRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC error codes, plus the range used for marketplace
// result codes (the market.Result value is carried in Error.Data).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeOperationFailed reports a marketplace operation that validated
	// but was not applied.
	CodeOperationFailed = -32000
)
