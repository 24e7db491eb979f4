// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package brotli

import (
	"io"

	"github.com/pkg/errors"

	"github.com/J-j-4/brotli/dec"
	"github.com/J-j-4/brotli/xlog"
)

// ErrExcessInput indicates that the input contains data after the end of
// the brotli stream.
var ErrExcessInput = errors.New("brotli: data after end of stream")

// errClosed is returned by a closed reader.
var errClosed = errors.New("brotli: reader closed")

// minBufferSize is the smallest supported input buffer size.
const minBufferSize = 16

// ReaderConfig provides the parameters for a brotli reader.
type ReaderConfig struct {
	// BufferSize is the size of the input buffer.
	BufferSize int
	// Dictionary is the custom dictionary the stream has been compressed
	// with. It must not be modified while the reader is used.
	Dictionary []byte
	// Logger receives the decoder traces. Nil switches tracing off.
	Logger xlog.Logger
}

// ApplyDefaults sets the default buffer size.
func (cfg *ReaderConfig) ApplyDefaults() {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 64 << 10
	}
}

// Verify checks the reader configuration for errors.
func (cfg *ReaderConfig) Verify() error {
	if cfg.BufferSize < minBufferSize {
		return errors.Errorf(
			"brotli: buffer size must be at least %d bytes",
			minBufferSize)
	}
	return nil
}

// Reader decompresses a brotli stream.
type Reader struct {
	cfg ReaderConfig
	z   io.Reader
	d   *dec.Decoder
	buf []byte
	// buf[start:end] is input not yet given to the decoder
	start, end int
	eof        bool
	// needInput is set if the decoder requires more input.
	needInput bool
	done      bool
	err       error
}

// NewReader creates a reader decompressing the brotli stream read from z.
func NewReader(z io.Reader) (r *Reader, err error) {
	return NewReaderConfig(z, ReaderConfig{})
}

// NewReaderConfig creates a reader using the given configuration.
func NewReaderConfig(z io.Reader, cfg ReaderConfig) (r *Reader, err error) {
	cfg.ApplyDefaults()
	if err = cfg.Verify(); err != nil {
		return nil, err
	}
	r = &Reader{
		cfg: cfg,
		d:   dec.NewDecoder(),
		buf: make([]byte, cfg.BufferSize),
	}
	r.d.SetLogger(xlog.Prefix(cfg.Logger, "brotli: "))
	if err = r.Reset(z); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset prepares the reader for decompressing a new stream from z. A
// closed reader can be reused after Reset.
func (r *Reader) Reset(z io.Reader) error {
	if z == nil {
		return errors.New("brotli: reader must not be nil")
	}
	if r.d == nil {
		r.d = dec.NewDecoder()
		r.d.SetLogger(xlog.Prefix(r.cfg.Logger, "brotli: "))
	}
	r.d.Init()
	if r.cfg.Dictionary != nil {
		if err := r.d.SetCustomDictionary(r.cfg.Dictionary); err != nil {
			return errors.Wrap(err, "brotli: dictionary")
		}
	}
	r.z = z
	r.start, r.end = 0, 0
	r.eof = false
	r.needInput = true
	r.done = false
	r.err = nil
	return nil
}

// fill reads more input into the buffer. The buffer must be empty.
func (r *Reader) fill() error {
	n, err := r.z.Read(r.buf)
	r.start, r.end = 0, n
	if err != nil {
		if err == io.EOF {
			r.eof = true
			return nil
		}
		return errors.Wrap(err, "brotli: reading input")
	}
	return nil
}

// checkEnd reports whether more data follows the stream.
func (r *Reader) checkEnd() error {
	for r.start == r.end && !r.eof {
		if err := r.fill(); err != nil {
			return err
		}
	}
	if r.start < r.end {
		return ErrExcessInput
	}
	return io.EOF
}

// read decompresses data into p. It doesn't wait for more input if data
// has already been written to p.
func (r *Reader) read(p []byte) (n int, err error) {
	if r.done {
		return 0, r.checkEnd()
	}
	for n < len(p) {
		if r.needInput {
			if n > 0 {
				return n, nil
			}
			if err = r.fill(); err != nil {
				return n, err
			}
			r.needInput = false
		}
		res, nDst, nSrc, err := r.d.Decompress(p[n:],
			r.buf[r.start:r.end], r.eof)
		n += nDst
		r.start += nSrc
		switch res {
		case dec.NeedsMoreInput:
			r.needInput = true
		case dec.Done:
			r.done = true
			if n > 0 {
				return n, nil
			}
			return 0, r.checkEnd()
		case dec.Failed:
			return n, err
		}
	}
	return n, nil
}

// Read decompresses data into p. It returns io.EOF after the end of the
// stream and ErrExcessInput if the input contains more data after it.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err = r.read(p)
	r.err = err
	return n, err
}

// Close releases the decoder. Further reads return an error.
func (r *Reader) Close() error {
	if r.err == errClosed {
		return errClosed
	}
	if r.d != nil {
		r.d.Cleanup()
		r.d = nil
	}
	r.err = errClosed
	return nil
}
