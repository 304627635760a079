package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// MethodFunc handles one JSON-RPC method. Returning a *MethodError maps to
// that error object; any other error becomes an internal error.
type MethodFunc func(params json.RawMessage) (interface{}, error)

// MethodError carries an explicit JSON-RPC error from a method handler.
type MethodError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Handler dispatches JSON-RPC methods by name.
type Handler struct {
	methods map[string]MethodFunc
}

func NewHandler() *Handler {
	return &Handler{methods: make(map[string]MethodFunc)}
}

// Register adds a method. Registering a duplicate name panics; method sets
// are wired once at startup.
func (h *Handler) Register(name string, fn MethodFunc) {
	if _, exists := h.methods[name]; exists {
		panic(fmt.Sprintf("jsonrpc method %s registered twice", name))
	}
	h.methods[name] = fn
}

// Handle dispatches a request to its method handler.
func (h *Handler) Handle(method string, params json.RawMessage) (interface{}, error) {
	fn, exists := h.methods[method]
	if !exists {
		return nil, &MethodError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %s not found", method)}
	}
	return fn(params)
}
