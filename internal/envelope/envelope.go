// Package envelope implements the flat JSON request/response objects
// exchanged with infrakit-service over stdin and stdout.
package envelope

import (
	"encoding/json"
	"fmt"
	"io"
)

// Request is a loosely-typed, string-keyed mapping decoded from the caller
type Request map[string]any

// String returns the value of key when it is present and a string
func (r Request) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// NonEmpty returns the value of key when it is a non-empty string
func (r Request) NonEmpty(key string) (string, bool) {
	s, ok := r.String(key)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Optional reads an optional string field. A missing, null or empty field
// yields ("", nil); a value of any other type is an error.
func (r Request) Optional(key string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field '%s' must be a string", key)
	}
	return s, nil
}

// Decode reads a single JSON object. A literal null decodes to an empty request.
func Decode(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if req == nil {
		req = Request{}
	}
	return req, nil
}

// Response carries success plus exactly one of Error, Manifest or Message
type Response struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Manifest string `json:"manifest,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Failure builds an error response
func Failure(msg string) Response {
	return Response{Success: false, Error: msg}
}

// Failuref builds an error response from a format string
func Failuref(format string, args ...any) Response {
	return Failure(fmt.Sprintf(format, args...))
}

// WithManifest builds a success response carrying rendered output
func WithManifest(manifest string) Response {
	return Response{Success: true, Manifest: manifest}
}

// WithMessage builds a success response carrying a status message
func WithMessage(msg string) Response {
	return Response{Success: true, Message: msg}
}

// MarshalJSON emits success and exactly one payload field, even when that
// field is the empty string.
func (r Response) MarshalJSON() ([]byte, error) {
	out := struct {
		Success  bool    `json:"success"`
		Error    *string `json:"error,omitempty"`
		Manifest *string `json:"manifest,omitempty"`
		Message  *string `json:"message,omitempty"`
	}{Success: r.Success}

	switch {
	case !r.Success:
		out.Error = &r.Error
	case r.Message != "":
		out.Message = &r.Message
	default:
		out.Manifest = &r.Manifest
	}
	return json.Marshal(out)
}

// Encode writes the response as a single JSON line
func Encode(w io.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data = []byte(`{"success":false,"error":"json marshal error"}`)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// DecodeResponse reads a response produced by Encode
func DecodeResponse(r io.Reader) (*Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}
