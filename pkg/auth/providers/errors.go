package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrAuthorizationFailed  = errors.New("authorize failed")
	ErrStateMismatch        = errors.New("state mismatch")
	ErrMissingCode          = errors.New("authorization code not found in the request")
	ErrProviderRequest      = errors.New("provider request failed")
)

// AuthorizationFailedError is returned when the token exchange did not yield
// an access token. Body is the decoded response, nil when it was not JSON.
type AuthorizationFailedError struct {
	Body map[string]any
	Raw  []byte
}

func (e *AuthorizationFailedError) Error() string {
	return ErrAuthorizationFailed.Error() + ": " + compactJSON(e.Raw)
}

func (e *AuthorizationFailedError) Is(target error) bool {
	return target == ErrAuthorizationFailed
}

// compactJSON renders raw the way it is reported in error messages: compact,
// key order preserved, strings re-encoded so \uXXXX escapes of non-ASCII
// characters come out as UTF-8. Invalid JSON renders as null.
func compactJSON(raw []byte) string {
	if !json.Valid(raw) {
		return "null"
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	// per open container: whether it is an object, and tokens seen so far
	type frame struct {
		object bool
		n      int
	}
	var (
		buf   bytes.Buffer
		stack []frame
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "null"
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			buf.WriteByte(byte(d))
			stack = stack[:len(stack)-1]
			continue
		}

		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			switch {
			case top.object && top.n%2 == 1:
				buf.WriteByte(':')
			case top.n > 0:
				buf.WriteByte(',')
			}
			top.n++
		}

		switch v := tok.(type) {
		case json.Delim:
			buf.WriteByte(byte(v))
			stack = append(stack, frame{object: v == '{'})
		case string:
			writeJSONString(&buf, v)
		case json.Number:
			buf.WriteString(v.String())
		case bool:
			buf.WriteString(strconv.FormatBool(v))
		case nil:
			buf.WriteString("null")
		}
	}
	return buf.String()
}

func writeJSONString(buf *bytes.Buffer, s string) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		buf.WriteString(strconv.Quote(s))
		return
	}
	buf.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
}
