package ipc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/migmoroni/vaudio/internal/errors"
	"github.com/tidwall/gjson"
)

// Request is the invocation envelope sent by the UI layer.
type Request struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
	Token   string          `json:"token"`
}

// Response is the envelope returned to the UI layer. Exactly one of Result
// and Error is meaningful, selected by OK.
type Response struct {
	Token  string          `json:"token"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is the structured error carried by a failed Response.
type Error struct {
	Kind    string `json:"error_kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// NewToken returns a fresh correlation token.
func NewToken() string {
	return uuid.NewString()
}

// RepeatedKey returns the first top-level key that occurs more than once in
// raw, or "" when every key is unique or raw is not an object. Keys are
// compared case-insensitively, the way encoding/json matches fields.
func RepeatedKey(raw []byte) string {
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return ""
	}
	seen := make(map[string]struct{})
	repeated := ""
	res.ForEach(func(key, _ gjson.Result) bool {
		folded := strings.ToLower(key.Str)
		if _, dup := seen[folded]; dup {
			repeated = key.Str
			return false
		}
		seen[folded] = struct{}{}
		return true
	})
	return repeated
}

// EnvelopeToken returns the token a raw envelope is answered with. It is
// empty when raw carries no string token or repeats a top-level key. Both
// the server and the dispatcher read tokens through it.
func EnvelopeToken(raw []byte) string {
	if RepeatedKey(raw) != "" {
		return ""
	}
	if tok := gjson.GetBytes(raw, "token"); tok.Type == gjson.String {
		return tok.Str
	}
	return ""
}

// NewRequest creates a request with a fresh token.
func NewRequest(command string, args any) (*Request, error) {
	req := &Request{
		Command: command,
		Token:   NewToken(),
	}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal args: %w", err)
		}
		req.Args = data
	}
	return req, nil
}

// NewResponse creates a successful response.
func NewResponse(token string, result any) (Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	return Response{Token: token, OK: true, Result: data}, nil
}

// NewErrorResponse creates an error response classified with
// apperrors.KindOf.
func NewErrorResponse(token string, err error) Response {
	return Response{
		Token: token,
		Error: &Error{
			Kind:    string(apperrors.KindOf(err)),
			Message: messageOf(err),
			Field:   apperrors.FieldOf(err),
		},
	}
}

// messageOf keeps bridge errors free of their kind prefix; the kind travels
// in error_kind.
func messageOf(err error) string {
	if be, ok := err.(*apperrors.Error); ok {
		return be.Message
	}
	return err.Error()
}

// Err returns the response error as a Go error, or nil on success.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == nil {
		return apperrors.New(apperrors.KindInternal, "response carries neither result nor error")
	}
	return &apperrors.Error{
		Kind:    apperrors.Kind(r.Error.Kind),
		Message: r.Error.Message,
		Field:   r.Error.Field,
	}
}

// ParseResult decodes the result into v, or returns the response error.
func (r Response) ParseResult(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if v == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}
	return nil
}
