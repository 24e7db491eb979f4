// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// bitReader reads the bit stream least significant bit first. The bits not
// yet consumed are kept in the accumulator val between calls, so decoding can
// be suspended and resumed in the middle of a byte. Every read either
// succeeds completely or consumes nothing.
type bitReader struct {
	val   uint64
	nbits uint
	in    []byte
	pos   int
	// total number of bytes loaded into the accumulator
	total int64
}

// maxReadBits is the largest bit count supported by readBits.
const maxReadBits = 24

// reset clears the accumulator.
func (br *bitReader) reset() {
	*br = bitReader{}
}

// setInput provides the next input chunk.
func (br *bitReader) setInput(p []byte) {
	br.in = p
	br.pos = 0
}

// fill loads bytes until n bits are available. It returns false if the input
// is exhausted before.
func (br *bitReader) fill(n uint) bool {
	for br.nbits < n {
		if br.pos >= len(br.in) {
			return false
		}
		br.val |= uint64(br.in[br.pos]) << br.nbits
		br.pos++
		br.nbits += 8
		br.total++
	}
	return true
}

// peek returns the next n bits without consuming them.
func (br *bitReader) peek(n uint) (v uint32, ok bool) {
	if !br.fill(n) {
		return 0, false
	}
	return uint32(br.val & (1<<n - 1)), true
}

// peekAvail returns up to n bits and the number of valid bits among them.
// Bits beyond the valid ones are zero.
func (br *bitReader) peekAvail(n uint) (v uint32, avail uint) {
	br.fill(n)
	avail = br.nbits
	if avail > n {
		avail = n
	}
	return uint32(br.val & (1<<avail - 1)), avail
}

// drop consumes n bits that must be available.
func (br *bitReader) drop(n uint) {
	br.val >>= n
	br.nbits -= n
}

// readBits reads n <= 24 bits.
func (br *bitReader) readBits(n uint) (v uint32, ok bool) {
	if n == 0 {
		return 0, true
	}
	if !br.fill(n) {
		return 0, false
	}
	v = uint32(br.val & (1<<n - 1))
	br.drop(n)
	return v, true
}

// alignToByte drops the bits up to the next byte boundary and returns them.
func (br *bitReader) alignToByte() (padding uint32) {
	n := br.nbits & 7
	padding = uint32(br.val & (1<<n - 1))
	br.drop(n)
	return padding
}

// bufferedBytes returns the number of whole bytes in the accumulator. The
// reader must be byte aligned.
func (br *bitReader) bufferedBytes() int {
	return int(br.nbits >> 3)
}

// readByte returns a whole byte from the accumulator. The call requires
// bufferedBytes() > 0.
func (br *bitReader) readByte() byte {
	c := byte(br.val)
	br.drop(8)
	return c
}

// remaining returns the input bytes that haven't been loaded into the
// accumulator.
func (br *bitReader) remaining() []byte {
	return br.in[br.pos:]
}

// skip marks n bytes of remaining() as consumed.
func (br *bitReader) skip(n int) {
	br.pos += n
	br.total += int64(n)
}

// unload returns whole bytes from the accumulator to the current input
// chunk, as far as they have been loaded from it.
func (br *bitReader) unload() {
	k := int(br.nbits >> 3)
	if k > br.pos {
		k = br.pos
	}
	br.pos -= k
	br.total -= int64(k)
	br.nbits -= uint(k) << 3
	br.val &= 1<<br.nbits - 1
}
