// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

import (
	"errors"
	"fmt"
	"io"
)

// ErrorKind classifies the fatal errors of the decoder.
type ErrorKind int

// Error kinds reported by the decoder.
const (
	InvalidWindowBits ErrorKind = iota + 1
	InvalidHuffmanCode
	InvalidBlock
	InvalidDistance
	InvalidContextMap
	TruncatedStream
	InvalidLength
	InvalidFormat
)

var kindNames = [...]string{
	InvalidWindowBits:  "invalid window bits",
	InvalidHuffmanCode: "invalid huffman code",
	InvalidBlock:       "invalid block type or length",
	InvalidDistance:    "invalid distance",
	InvalidContextMap:  "invalid context map",
	TruncatedStream:    "truncated stream",
	InvalidLength:      "invalid length",
	InvalidFormat:      "invalid format",
}

// String returns a readable name for the error kind.
func (k ErrorKind) String() string {
	if 0 < k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned for all fatal decoding errors. Once an Error has been
// returned the decoder returns it for every further call until it is
// initialized again.
type Error struct {
	Kind ErrorKind
	Msg  string
}

// Error returns the error message with the prefix "brotli: ".
func (e *Error) Error() string {
	if e.Msg == "" {
		return "brotli: " + e.Kind.String()
	}
	return "brotli: " + e.Kind.String() + ": " + e.Msg
}

// Unwrap supports errors.Is(err, io.ErrUnexpectedEOF) for truncated
// streams.
func (e *Error) Unwrap() error {
	if e.Kind == TruncatedStream {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// newError creates a decoder error of the given kind.
func newError(k ErrorKind, format string, a ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, a...)}
}

// KindOf returns the kind of a decoder error contained in err. It returns
// zero if err doesn't contain an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// errShortInput and errShortOutput signal that a decoding step cannot
// progress. They never leave the package; Decompress translates them into
// results.
var (
	errShortInput  = errors.New("brotli: more input required")
	errShortOutput = errors.New("brotli: more output space required")
)
