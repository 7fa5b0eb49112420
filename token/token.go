package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Type is the HTTP transport a token is meant for.
type Type string

const (
	// TypeBearer tokens travel in the `Authorization: Bearer` header.
	TypeBearer Type = "bearer"
	// TypeCookie tokens travel in a cookie.
	TypeCookie Type = "cookie"
)

// Valid reports whether t is a known token type.
func (t Type) Valid() bool {
	return t == TypeBearer || t == TypeCookie
}

// ParseType parses a token type name. The empty string yields TypeBearer.
func ParseType(s string) (Type, error) {
	if s == "" {
		return TypeBearer, nil
	}
	t := Type(strings.ToLower(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown token type %q", s)
	}
	return t, nil
}

// Header is the constant first segment of every session token.
var Header = base64.StdEncoding.EncodeToString([]byte(`{"typ":"SESSION"}`))

const separator = "."

// Token is the client facing access token returned by login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   Type   `json:"token_type"`
}

// Payload is the decoded second segment of a token.
type Payload map[string]any

// SessionID returns the session id carried by the payload.
func (p Payload) SessionID() (string, bool) {
	v, ok := p["session"]
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// Encode builds the bearer token for sessionID. It never fails and always
// produces the same token for the same id.
func Encode(sessionID string) Token {
	return EncodeAs(sessionID, TypeBearer)
}

// EncodeAs is Encode with an explicit token type. An empty type means bearer.
func EncodeAs(sessionID string, t Type) Token {
	if t == "" {
		t = TypeBearer
	}
	payload := base64.StdEncoding.EncodeToString(payloadJSON(sessionID))
	return Token{
		AccessToken: Header + separator + payload,
		TokenType:   t,
	}
}

func payloadJSON(sessionID string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"session":`)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string value cannot fail.
	_ = enc.Encode(sessionID)
	buf.Truncate(buf.Len() - 1) // trailing newline from Encode

	buf.WriteByte('}')
	return buf.Bytes()
}

// Decode decodes the token's payload, see Decode.
func (t Token) Decode(validate bool) (Payload, error) {
	return Decode(t.AccessToken, validate)
}

// Decode checks the structure of accessToken and returns its payload.
//
// Segments after the second one are ignored. When validate is true the
// payload must be strictly padded base64; when false, stray characters and
// padding are tolerated.
func Decode(accessToken string, validate bool) (Payload, error) {
	parts := strings.SplitN(accessToken, separator, 3)
	if len(parts) < 2 {
		return nil, newError(ErrTokenFormat, nil)
	}
	if parts[0] != Header {
		return nil, newError(ErrTokenHeader, nil)
	}

	raw, err := decodeSegment(parts[1], validate)
	if err != nil {
		return nil, newError(ErrTokenPayload, err)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, newError(ErrTokenPayload, err)
	}
	if payload == nil {
		return nil, newError(ErrTokenPayload, errors.New("payload is not a JSON object"))
	}
	return payload, nil
}

func decodeSegment(segment string, validate bool) ([]byte, error) {
	if validate {
		return base64.StdEncoding.Strict().DecodeString(segment)
	}

	cleaned := make([]byte, 0, len(segment))
	for i := 0; i < len(segment); i++ {
		if isBase64Alphabet(segment[i]) {
			cleaned = append(cleaned, segment[i])
		}
	}
	return base64.RawStdEncoding.DecodeString(string(cleaned))
}

func isBase64Alphabet(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+' || c == '/':
		return true
	}
	return false
}
