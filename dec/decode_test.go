// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/ulikunitz/lz"

	"github.com/J-j-4/brotli/internal/brtest"
)

// decompress decodes stream providing input chunks of inSize bytes and
// output buffers of outSize bytes. It returns the output and the number of
// bytes consumed.
func decompress(d *Decoder, stream []byte, inSize, outSize int) (out []byte, n int, err error) {
	buf := make([]byte, outSize)
	for {
		end := min(n+inSize, len(stream))
		res, nDst, nSrc, err := d.Decompress(buf, stream[n:end],
			end == len(stream))
		out = append(out, buf[:nDst]...)
		n += nSrc
		switch res {
		case Done:
			return out, n, nil
		case Failed:
			return out, n, err
		case NeedsMoreInput:
			if n != end {
				return out, n, fmt.Errorf(
					"NeedsMoreInput with %d bytes left",
					end-n)
			}
		}
	}
}

func decodeAll(t *testing.T, stream []byte) []byte {
	t.Helper()
	d := NewDecoder()
	out, n, err := decompress(d, stream, len(stream), 1<<16)
	if err != nil {
		t.Fatalf("decompress error %s", err)
	}
	if n != len(stream) {
		t.Fatalf("decompress consumed %d bytes; want %d", n, len(stream))
	}
	return out
}

// testData returns text with repetitions and some random bytes.
func testData(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	words := []string{"brotli ", "stream ", "window ", "ring ", "buffer ",
		"the ", "a ", "Decoder ", "\n", "Ünïcödé ", "0123 "}
	var buf bytes.Buffer
	for buf.Len() < n {
		if r.Intn(20) == 0 {
			for i := 0; i < 5; i++ {
				buf.WriteByte(byte(r.Intn(256)))
			}
			continue
		}
		buf.WriteString(words[r.Intn(len(words))])
	}
	return buf.Bytes()[:n]
}

func TestEmptyStream(t *testing.T) {
	for _, stream := range [][]byte{{0x06}, {0x3b}} {
		if out := decodeAll(t, stream); len(out) != 0 {
			t.Fatalf("stream %#v decoded to %d bytes", stream, len(out))
		}
	}
}

func TestUncompressed(t *testing.T) {
	w, err := brtest.NewWriter(10, nil)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	data := testData(5000, 1)
	for _, p := range [][]byte{data[:1], data[1:3000], data[3000:]} {
		if err = w.Uncompressed(p); err != nil {
			t.Fatalf("Uncompressed error %s", err)
		}
	}
	stream := w.Close()
	for _, size := range [][2]int{{1, 1}, {7, 100}, {len(stream), 1 << 16}} {
		out, _, err := decompress(NewDecoder(), stream, size[0],
			size[1])
		if err != nil {
			t.Fatalf("sizes %v: decompress error %s", size, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("sizes %v: output differs from input", size)
		}
	}
}

var optionTests = []struct {
	name string
	opts brtest.Options
}{
	{"default", brtest.Options{}},
	{"literal types", brtest.Options{LiteralTypes: 3,
		LiteralBlockLen: 5}},
	{"command types", brtest.Options{CommandTypes: 4,
		CommandBlockLen: 3, TypeStride: 3}},
	{"distance types", brtest.Options{DistanceTypes: 2,
		DistanceBlockLen: 2, DistanceTrees: 3}},
	{"many types", brtest.Options{LiteralTypes: 256, LiteralBlockLen: 1,
		CommandTypes: 20, CommandBlockLen: 2, TypeStride: 7}},
	{"lsb6", brtest.Options{ContextMode: 0, LiteralTrees: 5}},
	{"msb6", brtest.Options{ContextMode: 1, LiteralTrees: 7}},
	{"utf8", brtest.Options{ContextMode: 2, LiteralTrees: 64,
		LiteralTypes: 2, LiteralBlockLen: 100}},
	{"signed", brtest.Options{ContextMode: 3, LiteralTrees: 3}},
	{"trivial", brtest.Options{LiteralTypes: 4, LiteralBlockLen: 9,
		LiteralTrees: 4, TrivialContext: true, ContextMode: 2}},
	{"postfix", brtest.Options{PostfixBits: 2, DirectCodes: 8}},
	{"direct", brtest.Options{DirectCodes: 15, NoShortCodes: true}},
	{"explicit", brtest.Options{PostfixBits: 3, NoShortCodes: true,
		NoImplicitDistance: true}},
	{"rle", brtest.Options{LiteralTrees: 2, ContextMapRLE: true,
		LiteralTypes: 3, LiteralBlockLen: 50}},
	{"mtf", brtest.Options{LiteralTrees: 9, ContextMapMTF: true}},
	{"rle mtf", brtest.Options{LiteralTrees: 9, ContextMapMTF: true,
		ContextMapRLE: true, DistanceTrees: 4, DistanceTypes: 3,
		DistanceBlockLen: 4}},
}

func TestCompressed(t *testing.T) {
	data := testData(20000, 2)
	for _, tc := range optionTests {
		t.Run(tc.name, func(t *testing.T) {
			stream, err := brtest.Encode(data, 16, nil, &tc.opts)
			if err != nil {
				t.Fatalf("Encode error %s", err)
			}
			if out := decodeAll(t, stream); !bytes.Equal(out, data) {
				t.Fatalf("output differs from input")
			}
		})
	}
}

// TestMixedTrivialContexts uses a literal context map with a trivial block
// type and a block type that differs from a trivial one only in context 63.
func TestMixedTrivialContexts(t *testing.T) {
	cm := make([]byte, 2*64)
	cm[64+63] = 1
	opts := brtest.Options{LiteralTypes: 2, LiteralBlockLen: 13,
		ContextMode: 0, LiteralContextMap: cm}
	data := append([]byte(strings.Repeat("why? so? ok?? ", 40)),
		testData(2000, 5)...)
	stream, err := brtest.Encode(data, 16, nil, &opts)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	if out := decodeAll(t, stream); !bytes.Equal(out, data) {
		t.Fatalf("output differs from input")
	}
}

// TestChunkSizes checks that the output doesn't depend on the sizes of the
// input chunks and output buffers.
func TestChunkSizes(t *testing.T) {
	data := testData(3000, 3)
	opts := brtest.Options{LiteralTypes: 2, LiteralBlockLen: 7,
		CommandTypes: 2, CommandBlockLen: 5, DistanceTypes: 2,
		DistanceBlockLen: 3, ContextMode: 2, LiteralTrees: 3,
		ContextMapRLE: true, ContextMapMTF: true}
	stream, err := brtest.Encode(data, 10, nil, &opts)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	d := NewDecoder()
	for _, inSize := range []int{1, 2, 3, 5, 64, len(stream)} {
		for _, outSize := range []int{1, 3, 1000, 1 << 16} {
			d.Init()
			out, n, err := decompress(d, stream, inSize, outSize)
			if err != nil {
				t.Fatalf("in %d out %d: decompress error %s",
					inSize, outSize, err)
			}
			if n != len(stream) {
				t.Fatalf("in %d out %d: consumed %d; want %d",
					inSize, outSize, n, len(stream))
			}
			if !bytes.Equal(out, data) {
				t.Fatalf("in %d out %d: output differs",
					inSize, outSize)
			}
		}
	}
}

func TestRingWrap(t *testing.T) {
	data := testData(50000, 4)
	stream, err := brtest.Encode(data, 10, nil, nil)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	out, _, err := decompress(NewDecoder(), stream, 100, 333)
	if err != nil {
		t.Fatalf("decompress error %s", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("output differs from input")
	}
}

func TestMultipleMetablocks(t *testing.T) {
	data := testData(6000, 5)
	w, err := brtest.NewWriter(12, nil)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	if err = w.Metadata(nil); err != nil {
		t.Fatalf("Metadata error %s", err)
	}
	if err = w.Uncompressed(data[:1000]); err != nil {
		t.Fatalf("Uncompressed error %s", err)
	}
	blocks, err := brtest.Parse(data[1000:4000], 1<<12-16)
	if err != nil {
		t.Fatalf("Parse error %s", err)
	}
	for i := range blocks {
		err = w.Compressed(&blocks[i], &brtest.Options{ContextMode: 1,
			LiteralTrees: 2}, false)
		if err != nil {
			t.Fatalf("Compressed error %s", err)
		}
	}
	// references reach into the earlier metablocks
	blk := &lz.Block{
		Sequences: []lz.Seq{{LitLen: 3, MatchLen: 100, Offset: 2500}},
		Literals:  data[4000:4003],
	}
	if err = w.Compressed(blk, nil, false); err != nil {
		t.Fatalf("Compressed error %s", err)
	}
	if err = w.Compressed(brtest.Literals(data[:1]), nil, true); err != nil {
		t.Fatalf("Compressed error %s", err)
	}
	want := w.Data()
	if got := decodeAll(t, w.Close()); !bytes.Equal(got, want) {
		t.Fatalf("output differs from input")
	}
}

func TestCustomDictionary(t *testing.T) {
	dict := []byte("the quick brown fox jumps over the lazy dog")
	w, err := brtest.NewWriter(16, dict)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	blk := &lz.Block{
		Sequences: []lz.Seq{
			{LitLen: 0, MatchLen: 9, Offset: uint32(len(dict))},
			{LitLen: 2, MatchLen: 4, Offset: 34},
		},
		Literals: []byte("--"),
	}
	if err = w.Compressed(blk, nil, true); err != nil {
		t.Fatalf("Compressed error %s", err)
	}
	stream := w.Close()
	want := "the quick--jump"

	d := NewDecoder()
	if err = d.SetCustomDictionary(dict); err != nil {
		t.Fatalf("SetCustomDictionary error %s", err)
	}
	out, _, err := decompress(d, stream, 3, 5)
	if err != nil {
		t.Fatalf("decompress error %s", err)
	}
	if string(out) != want {
		t.Fatalf("output %q; want %q", out, want)
	}
	if err = d.SetCustomDictionary(dict); err == nil {
		t.Fatalf("SetCustomDictionary after decoding succeeded")
	}

	d.Init()
	_, _, err = decompress(d, stream, len(stream), 100)
	if KindOf(err) != InvalidDistance {
		t.Fatalf("decoding without dictionary returned %v; want kind %s",
			err, InvalidDistance)
	}
}

func TestMetadataHandler(t *testing.T) {
	w, err := brtest.NewWriter(16, nil)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	meta := testData(300, 6)
	if err = w.Metadata(meta); err != nil {
		t.Fatalf("Metadata error %s", err)
	}
	if err = w.Uncompressed([]byte("data")); err != nil {
		t.Fatalf("Uncompressed error %s", err)
	}
	stream := w.Close()

	d := NewDecoder()
	var got []byte
	d.SetMetadataHandler(func(p []byte) { got = append(got, p...) })
	out, _, err := decompress(d, stream, 7, 10)
	if err != nil {
		t.Fatalf("decompress error %s", err)
	}
	if string(out) != "data" {
		t.Fatalf("output %q; want %q", out, "data")
	}
	if !bytes.Equal(got, meta) {
		t.Fatalf("metadata handler got %d bytes; want %d", len(got),
			len(meta))
	}
}

func TestLastMetadata(t *testing.T) {
	d := NewDecoder()
	out, n, err := decompress(d, []byte{0x1a}, 1, 10)
	if err != nil {
		t.Fatalf("empty last metadata: decompress error %s", err)
	}
	if len(out) != 0 || n != 1 {
		t.Fatalf("empty last metadata: got %q, %d consumed", out, n)
	}

	stream := craft(func(w *brtest.BitWriter) {
		w.WriteBits(2, 1)
		w.WriteBits(2, 3)
		w.WriteBits(1, 0)
		w.WriteBits(2, 1)
		w.WriteBits(8, 2)
		w.Align()
		w.WriteBytes([]byte("abc"))
	})
	d.Init()
	var got []byte
	d.SetMetadataHandler(func(p []byte) { got = append(got, p...) })
	out, n, err = decompress(d, stream, 2, 10)
	if err != nil {
		t.Fatalf("last metadata: decompress error %s", err)
	}
	if len(out) != 0 || n != len(stream) {
		t.Fatalf("last metadata: got %q, %d consumed; want %d",
			out, n, len(stream))
	}
	if string(got) != "abc" {
		t.Fatalf("metadata handler got %q; want %q", got, "abc")
	}
}

func TestTrailingBytes(t *testing.T) {
	stream, err := brtest.Encode([]byte("hello, hello, hello"), 16, nil,
		nil)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	in := append(append([]byte{}, stream...), "trailer"...)
	d := NewDecoder()
	buf := make([]byte, 100)
	res, nDst, nSrc, err := d.Decompress(buf, in, true)
	if err != nil || res != Done {
		t.Fatalf("Decompress returned %s, %v", res, err)
	}
	if nSrc != len(stream) {
		t.Fatalf("consumed %d bytes; want %d", nSrc, len(stream))
	}
	if string(buf[:nDst]) != "hello, hello, hello" {
		t.Fatalf("output %q", buf[:nDst])
	}
	res, nDst, nSrc, err = d.Decompress(buf, in[nSrc:], true)
	if res != Done || nDst != 0 || nSrc != 0 || err != nil {
		t.Fatalf("Decompress after end returned %s, %d, %d, %v",
			res, nDst, nSrc, err)
	}
}

func TestTruncatedStream(t *testing.T) {
	stream, err := brtest.Encode(testData(1000, 7), 16, nil,
		&brtest.Options{LiteralTypes: 2, LiteralBlockLen: 10})
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	d := NewDecoder()
	for n := 0; n < len(stream); n++ {
		d.Init()
		_, _, err := decompress(d, stream[:n], 3, 100)
		if KindOf(err) != TruncatedStream {
			t.Fatalf("prefix %d: error %v; want kind %s", n, err,
				TruncatedStream)
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("prefix %d: error %v doesn't wrap %v", n, err,
				io.ErrUnexpectedEOF)
		}
	}
}

func TestNeedsMoreInput(t *testing.T) {
	stream, err := brtest.Encode([]byte("abcabcabc"), 16, nil, nil)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	d := NewDecoder()
	buf := make([]byte, 100)
	res, _, nSrc, err := d.Decompress(buf, stream[:2], false)
	if res != NeedsMoreInput || nSrc != 2 || err != nil {
		t.Fatalf("Decompress returned %s, %d, %v", res, nSrc, err)
	}
}

func TestNeedsMoreOutput(t *testing.T) {
	w, _ := brtest.NewWriter(16, nil)
	if err := w.Uncompressed([]byte("0123456789")); err != nil {
		t.Fatalf("Uncompressed error %s", err)
	}
	stream := w.Close()
	d := NewDecoder()
	buf := make([]byte, 4)
	res, nDst, _, err := d.Decompress(buf, stream, true)
	if res != NeedsMoreOutput || nDst != 4 || err != nil {
		t.Fatalf("Decompress returned %s, %d, %v", res, nDst, err)
	}
	if string(buf) != "0123" {
		t.Fatalf("output %q; want %q", buf, "0123")
	}
}

// TestPendingOutput checks that decoded data is delivered before more input
// is requested.
func TestPendingOutput(t *testing.T) {
	data := []byte(strings.Repeat("0123456789", 10))
	w, err := brtest.NewWriter(16, nil)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	if err = w.Uncompressed(data); err != nil {
		t.Fatalf("Uncompressed error %s", err)
	}
	stream := w.Close()
	in := stream[:len(stream)-1]

	d := NewDecoder()
	buf := make([]byte, 10)
	res, nDst, nSrc, err := d.Decompress(buf, in, false)
	if res != NeedsMoreOutput || nDst != 10 || nSrc != len(in) ||
		err != nil {
		t.Fatalf("Decompress returned %s, %d, %d, %v; want %s, 10, %d",
			res, nDst, nSrc, err, NeedsMoreOutput, len(in))
	}
	out := append([]byte{}, buf[:nDst]...)
	for res == NeedsMoreOutput {
		res, nDst, _, err = d.Decompress(buf, nil, false)
		if err != nil {
			t.Fatalf("Decompress error %s", err)
		}
		out = append(out, buf[:nDst]...)
	}
	if res != NeedsMoreInput {
		t.Fatalf("Decompress returned %s; want %s", res, NeedsMoreInput)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("got %q; want %q", out, data)
	}
	res, nDst, nSrc, err = d.Decompress(buf, stream[len(in):], true)
	if res != Done || nDst != 0 || nSrc != 1 || err != nil {
		t.Fatalf("Decompress returned %s, %d, %d, %v; want %s, 0, 1",
			res, nDst, nSrc, err, Done)
	}
}

// craft builds a stream starting with a window bits field for 16 bits.
func craft(f func(w *brtest.BitWriter)) []byte {
	var w brtest.BitWriter
	w.WriteBits(1, 0)
	f(&w)
	return w.Bytes()
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		kind   ErrorKind
	}{
		{"large window", []byte{0x11, 0x00}, InvalidWindowBits},
		{"stream padding", []byte{0x86}, InvalidFormat},
		{"uncompressed padding", craft(func(w *brtest.BitWriter) {
			w.WriteBits(1, 0)
			w.WriteBits(2, 0)
			w.WriteBits(16, 0)
			w.WriteBits(1, 1)
			w.WriteBits(3, 5)
			w.WriteBytes([]byte{'a', 3})
		}), InvalidFormat},
		{"exuberant nibble", craft(func(w *brtest.BitWriter) {
			w.WriteBits(1, 0)
			w.WriteBits(2, 1)
			w.WriteBits(20, 0x00ff)
			w.WriteBits(1, 1)
		}), InvalidLength},
		{"reserved bit", craft(func(w *brtest.BitWriter) {
			w.WriteBits(1, 0)
			w.WriteBits(2, 3)
			w.WriteBits(1, 1)
			w.WriteBits(2, 0)
		}), InvalidFormat},
		{"last metadata trailing bits", craft(func(w *brtest.BitWriter) {
			w.WriteBits(2, 1)
			w.WriteBits(2, 3)
			w.WriteBits(1, 0)
			w.WriteBits(2, 0)
			w.WriteBits(1, 1)
		}), InvalidFormat},
		{"exuberant skip length", craft(func(w *brtest.BitWriter) {
			w.WriteBits(1, 0)
			w.WriteBits(2, 3)
			w.WriteBits(1, 0)
			w.WriteBits(2, 2)
			w.WriteBits(16, 0x00ff)
		}), InvalidLength},
		{"metadata padding", craft(func(w *brtest.BitWriter) {
			w.WriteBits(1, 0)
			w.WriteBits(2, 3)
			w.WriteBits(1, 0)
			w.WriteBits(2, 0)
			w.WriteBits(2, 1)
		}), InvalidFormat},
	}
	for _, tc := range tests {
		d := NewDecoder()
		_, _, err := decompress(d, tc.stream, len(tc.stream), 100)
		if KindOf(err) != tc.kind {
			t.Errorf("%s: error %v; want kind %s", tc.name, err,
				tc.kind)
		}
	}
}

func TestStickyError(t *testing.T) {
	d := NewDecoder()
	buf := make([]byte, 10)
	res, _, _, err := d.Decompress(buf, []byte{0x86}, true)
	if res != Failed || err == nil {
		t.Fatalf("Decompress returned %s, %v; want Failed", res, err)
	}
	res, _, nSrc, err2 := d.Decompress(buf, []byte{0x06}, true)
	if res != Failed || err2 != err || nSrc != 0 {
		t.Fatalf("second call returned %s, %v", res, err2)
	}
	d.Init()
	res, _, _, err = d.Decompress(buf, []byte{0x06}, true)
	if res != Done || err != nil {
		t.Fatalf("after Init Decompress returned %s, %v", res, err)
	}
}

func TestNotInitialized(t *testing.T) {
	var d Decoder
	res, _, _, err := d.Decompress(nil, []byte{0x06}, true)
	if res != Failed || err == nil {
		t.Fatalf("Decompress returned %s, %v; want Failed", res, err)
	}
	d.Init()
	d.Cleanup()
	if res, _, _, _ = d.Decompress(nil, []byte{0x06}, true); res != Failed {
		t.Fatalf("Decompress after Cleanup returned %s", res)
	}
}

func TestReuse(t *testing.T) {
	d := NewDecoder()
	for i := int64(0); i < 3; i++ {
		data := testData(int(1000+i*3000), 10+i)
		stream, err := brtest.Encode(data, 10+int(i)*5, nil,
			&optionTests[i].opts)
		if err != nil {
			t.Fatalf("Encode error %s", err)
		}
		d.Init()
		out, _, err := decompress(d, stream, 50, 77)
		if err != nil {
			t.Fatalf("decompress error %s", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("stream %d: output differs", i)
		}
	}
}

type testLogger struct{ lines int }

func (l *testLogger) Output(calldepth int, s string) error {
	l.lines++
	return nil
}

func TestLogger(t *testing.T) {
	stream, err := brtest.Encode([]byte("logging"), 16, nil, nil)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	d := NewDecoder()
	var l testLogger
	d.SetLogger(&l)
	if _, _, err = decompress(d, stream, 4, 4); err != nil {
		t.Fatalf("decompress error %s", err)
	}
	if l.lines == 0 {
		t.Fatalf("no log lines written")
	}
}
