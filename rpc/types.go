// Package rpc serves the chain's JSON-RPC 2.0 API over HTTP.
package rpc

import (
	"encoding/json"
	"errors"

	"github.com/tolelom/arcadechain/core"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC 2.0 codes, then server-defined codes in the -32000 range.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeUnauthorized = -32000
	CodeRejected     = -32001 // tx refused by the mempool
	CodeConflict     = -32009
	CodeNotFound     = -32004
)

// codeFor classifies a core error kind.
func codeFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, core.ErrStateConflict):
		return CodeConflict
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrUnauthorized), errors.Is(err, core.ErrTiming):
		return CodeRejected
	}
	return CodeInternalError
}

func errResponse(id any, code int, msg string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: msg}}
}

func okResponse(id, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}
