package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Request is one line of the JSONL protocol. Params carry every value as a
// string; typed accessors parse them explicitly.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params Params `json:"params"`
}

// Params is the string-typed parameter map of a request
type Params map[string]string

// Response is one line of the JSONL protocol. Exactly one of Result/Error is
// populated.
type Response struct {
	ID     string      `json:"id"`
	OK     bool        `json:"ok"`
	Result interface{} `json:"result"`
	Error  *string     `json:"error"`
}

// OK builds a success response
func OK(id string, result interface{}) Response {
	if result == nil {
		result = struct{}{}
	}
	return Response{ID: id, OK: true, Result: result}
}

// Err builds an error response
func Err(id string, message string) Response {
	return Response{ID: id, OK: false, Error: &message}
}

// ParseRequest decodes a single protocol line
func ParseRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("bad request: %w", err)
	}
	if req.Params == nil {
		req.Params = Params{}
	}
	return req, nil
}

// String returns the value for key, or def when absent or empty
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Require returns the value for key or an error when absent/empty
func (p Params) Require(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return v, nil
}

// Int parses the value for key as an integer, returning def when absent and
// an error when present but unparsable.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer parameter %q: %q", key, v)
	}
	return n, nil
}

// Bool parses the value for key leniently ("1", "true", "yes", "y", "on"),
// returning def when absent.
func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// BoolString renders a bool the way the protocol transmits it
func BoolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
