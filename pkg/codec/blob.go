package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBlob = errors.New("invalid blob")

// Blob is an opaque byte payload rendered as 0x-prefixed lowercase hex.
type Blob []byte

func (b Blob) String() string {
	return "0x" + hex.EncodeToString(b)
}

func (b Blob) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	parsed, err := ParseBlob(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBlob decodes the hex form produced by Blob.String. The 0x prefix is optional.
func ParseBlob(s string) (Blob, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return Blob(raw), nil
}

// Encode serializes v as JSON into a blob.
func Encode(v any) (Blob, error) {
	data, err := marshalNoEscape(v)
	if err != nil {
		return nil, fmt.Errorf("encode blob: %w", err)
	}
	return Blob(data), nil
}

// Decode unmarshals the JSON carried by b into v.
func Decode(b Blob, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}
	return nil
}

// QuoteText renders s as a JSON string literal without HTML escaping.
func QuoteText(s string) (string, error) {
	data, err := marshalNoEscape(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
