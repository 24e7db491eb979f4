// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package brotli

import (
	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/J-j-4/brotli/dec"
)

// Transformer decompresses a brotli stream as transform.Transformer.
type Transformer struct {
	d    *dec.Decoder
	dict []byte
	done bool
	err  error
}

var _ transform.Transformer = (*Transformer)(nil)

// NewTransformer returns a transformer decompressing a stream compressed
// with the custom dictionary dict, which may be nil.
func NewTransformer(dict []byte) *Transformer {
	t := &Transformer{d: dec.NewDecoder(), dict: dict}
	t.Reset()
	return t
}

// Reset prepares the transformer for a new stream. An error setting the
// dictionary is reported by Transform.
func (t *Transformer) Reset() {
	t.d.Init()
	t.err = nil
	if t.dict != nil {
		if err := t.d.SetCustomDictionary(t.dict); err != nil {
			t.err = errors.Wrap(err, "brotli: dictionary")
		}
	}
	t.done = false
}

// Transform decompresses src into dst. Input following the end of the
// stream results in ErrExcessInput.
func (t *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if t.err != nil {
		return 0, 0, t.err
	}
	if t.done {
		if len(src) > 0 {
			return 0, 0, ErrExcessInput
		}
		return 0, 0, nil
	}
	res, nDst, nSrc, err := t.d.Decompress(dst, src, atEOF)
	switch res {
	case dec.Done:
		t.done = true
		if nSrc < len(src) {
			return nDst, nSrc, ErrExcessInput
		}
		return nDst, nSrc, nil
	case dec.NeedsMoreInput:
		return nDst, nSrc, transform.ErrShortSrc
	case dec.NeedsMoreOutput:
		return nDst, nSrc, transform.ErrShortDst
	}
	return nDst, nSrc, err
}
