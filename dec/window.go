// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// window is the ring buffer holding the recent output. The bytes
// buf[flushed:pos] have been decoded but not yet delivered to the caller.
// The write position wraps to zero only after all bytes have been flushed,
// so unflushed bytes are never overwritten.
type window struct {
	buf     []byte
	mask    int
	pos     int
	flushed int
	// total number of bytes decoded into the window
	total int64
	// length of the custom dictionary in front of the first byte
	dictLen int
}

// minWindowSize is the smallest ring buffer allocated.
const minWindowSize = 1 << 10

// init allocates a ring buffer of the given size, which must be a power of
// two, and puts dict in front of the first output byte. The dictionary must
// not be longer than the ring buffer.
func (w *window) init(size int, dict []byte) {
	if cap(w.buf) >= size {
		w.buf = w.buf[:size]
		clear(w.buf)
	} else {
		w.buf = make([]byte, size)
	}
	*w = window{
		buf:     w.buf,
		mask:    size - 1,
		dictLen: len(dict),
	}
	copy(w.buf[size-len(dict):], dict)
}

// allocated returns whether init has been called.
func (w *window) allocated() bool {
	return len(w.buf) > 0
}

// available returns the number of bytes that can be written before the
// window needs to be flushed.
func (w *window) available() int {
	return len(w.buf) - w.pos
}

// buffered returns the number of bytes not yet flushed.
func (w *window) buffered() int {
	return w.pos - w.flushed
}

// flush copies unflushed bytes to p and returns the number of bytes copied.
// The write position is wrapped if the window has been flushed completely.
func (w *window) flush(p []byte) int {
	n := copy(p, w.buf[w.flushed:w.pos])
	w.flushed += n
	if w.flushed == len(w.buf) {
		w.pos = 0
		w.flushed = 0
	}
	return n
}

// writeByte appends a byte. The caller must ensure available() > 0.
func (w *window) writeByte(c byte) {
	w.buf[w.pos] = c
	w.pos++
	w.total++
}

// write appends as much of p as fits and returns the number of bytes
// written.
func (w *window) write(p []byte) int {
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	w.total += int64(n)
	return n
}

// byteAt returns the byte dist positions back from the write position.
// Positions in front of the first byte return the dictionary or zero.
func (w *window) byteAt(dist int) byte {
	return w.buf[(w.pos-dist)&w.mask]
}

// maxDistance returns the largest distance that may be referenced given
// the maximum backward distance of the stream.
func (w *window) maxDistance(maxBackward int) int {
	if n := w.total + int64(w.dictLen); n < int64(maxBackward) {
		return int(n)
	}
	return maxBackward
}

// copyMatch copies up to n bytes from distance dist back and returns the
// number of bytes copied; fewer than n if the window has no room. Copies
// with overlapping source and destination repeat the pattern as a byte by
// byte copy would do.
func (w *window) copyMatch(dist, n int) int {
	if a := len(w.buf) - w.pos; n > a {
		n = a
	}
	src := (w.pos - dist) & w.mask
	if src+n <= len(w.buf) && (src+n <= w.pos || w.pos+n <= src) {
		copy(w.buf[w.pos:w.pos+n], w.buf[src:src+n])
		w.pos += n
	} else {
		for i := 0; i < n; i++ {
			w.buf[w.pos] = w.buf[src]
			w.pos++
			src = (src + 1) & w.mask
		}
	}
	w.total += int64(n)
	return n
}
