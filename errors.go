package itre

import (
	"errors"
	"fmt"
)

// Errors reported by decoding.
var (
	// ErrTruncated is returned when a decode step requires more bytes
	// than remain in the buffer.
	ErrTruncated = errors.New("itre: truncated buffer")

	// ErrMalformedText is returned when a reassembled text payload is
	// not valid UTF-8.
	ErrMalformedText = errors.New("itre: malformed text payload")

	// ErrImageNotSupported is returned when decoding an image message.
	// The tag is part of the protocol, its payload format is not.
	ErrImageNotSupported = errors.New("itre: image payload not supported")

	// ErrTrailingBytes is returned by Decode when the buffer holds
	// more bytes after one complete message.
	ErrTrailingBytes = errors.New("itre: trailing bytes after message")
)

// InvalidTypeError is returned when a message tag byte is outside the
// protocol's closed type table.
type InvalidTypeError struct {
	// Code is the offending tag byte.
	Code byte
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("itre: invalid message type 0x%02x", e.Code)
}

// InvalidEmoticonError is returned when an emoticon byte is outside
// the protocol's closed emoticon table.
type InvalidEmoticonError struct {
	// Code is the offending emoticon byte.
	Code byte
}

func (e *InvalidEmoticonError) Error() string {
	return fmt.Sprintf("itre: invalid emoticon code 0x%02x", e.Code)
}
