package utils

import (
	"errors"
	"unicode/utf8"
)

// ErrInvalidUTF8 reports content that cannot be decoded as UTF-8 text.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8 text")

// DecodeText returns data as a string when it is valid UTF-8.
// NUL bytes are accepted; only undecodable sequences are rejected.
func DecodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}
