// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

import (
	"bytes"
	"testing"

	"github.com/J-j-4/brotli/internal/brtest"
)

func FuzzDecompress(f *testing.F) {
	f.Add([]byte{0x06})
	f.Add([]byte{0x3b})
	for i, tc := range optionTests {
		stream, err := brtest.Encode(testData(200, int64(i)), 16, nil,
			&tc.opts)
		if err != nil {
			f.Fatalf("%s: Encode error %s", tc.name, err)
		}
		f.Add(stream)
	}
	f.Fuzz(func(t *testing.T, stream []byte) {
		d := NewDecoder()
		want, _, err := decompress(d, stream, len(stream), 1<<16)
		d.Init()
		got, _, err2 := decompress(d, stream, 3, 7)
		if (err == nil) != (err2 == nil) || KindOf(err) != KindOf(err2) {
			t.Fatalf("errors %v and %v differ", err, err2)
		}
		if err == nil && !bytes.Equal(got, want) {
			t.Fatalf("output depends on chunk sizes")
		}
	})
}
