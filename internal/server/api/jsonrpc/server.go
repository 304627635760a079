package jsonrpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Server serves JSON-RPC 2.0 over HTTP POST.
type Server struct {
	handler *Handler
}

func NewServer(handler *Handler) *Server {
	return &Server{handler: handler}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, &Error{Code: CodeParseError, Message: "Parse error"})
		return
	}

	result, err := s.handler.Handle(req.Method, req.Params)
	if err != nil {
		var methodErr *MethodError
		if errors.As(err, &methodErr) {
			writeError(w, req.ID, &Error{Code: methodErr.Code, Message: methodErr.Message, Data: methodErr.Data})
			return
		}
		zap.L().Error("jsonrpc method failed", zap.String("method", req.Method), zap.Error(err))
		writeError(w, req.ID, &Error{Code: CodeInternalError, Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{JsonRPC: "2.0", Result: result, ID: req.ID})
}

func writeError(w http.ResponseWriter, id interface{}, rpcErr *Error) {
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error":   rpcErr,
		"id":      id,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
