// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// huffmanCode is an entry of a Huffman lookup table. In a root table an
// entry with more than root bits is a link: bits-root is the size of the
// second level table in bits and value its offset from the start of the root
// table. All other entries give the code length and the symbol.
type huffmanCode struct {
	bits  uint8
	value uint16
}

const (
	// huffmanRootBits is the size of the root tables for all alphabets
	// except the code length code.
	huffmanRootBits = 8
	// codeLengthRootBits is the size of the code length code table.
	codeLengthRootBits = 5
	maxCodeLength      = 15
	maxCodeLengthCode  = 5
	// maxAlphabetSize is the size of the insert-and-copy alphabet, the
	// largest alphabet of the format.
	maxAlphabetSize = 704
)

// nextKey returns the bit reversed successor of the bit reversed code key
// with the given length.
func nextKey(key, length int) int {
	step := 1 << (length - 1)
	for key&step != 0 {
		step >>= 1
	}
	return key&(step-1) + step
}

// replicate stores code in t[0], t[step], t[2*step] ... up to end.
func replicate(t []huffmanCode, step, end int, code huffmanCode) {
	for i := 0; i < end; i += step {
		t[i] = code
	}
}

// nextTableBitSize computes the number of bits for the second level table
// starting with codes of the given length. count holds the numbers of codes
// of each length not yet placed into the table.
func nextTableBitSize(count *[maxCodeLength + 1]int, length, rootBits int) int {
	left := 1 << (length - rootBits)
	for length < maxCodeLength {
		left -= count[length]
		if left <= 0 {
			break
		}
		length++
		left <<= 1
	}
	return length - rootBits
}

// grow extends t by n zeroed entries.
func grow(t []huffmanCode, n int) []huffmanCode {
	k := len(t) + n
	if k > cap(t) {
		u := make([]huffmanCode, len(t), 2*cap(t)+n)
		copy(u, t)
		t = u
	}
	t = t[:k]
	clear(t[k-n:])
	return t
}

// buildHuffmanTable appends the lookup table for the canonical prefix code
// given by the code lengths to dst. Symbols with length zero are not part of
// the code. A code without symbols results in no table entries. Codes that
// are not complete are rejected; the single symbol code needs
// buildSingleSymbolTable.
func buildHuffmanTable(dst []huffmanCode, lengths []byte, rootBits int) ([]huffmanCode, error) {
	var count [maxCodeLength + 1]int
	for _, l := range lengths {
		if l > maxCodeLength {
			return dst, newError(InvalidHuffmanCode,
				"code length %d out of range", l)
		}
		count[l]++
	}
	count[0] = 0
	n, space := 0, 1<<maxCodeLength
	for l := 1; l <= maxCodeLength; l++ {
		n += count[l]
		space -= count[l] << (maxCodeLength - l)
	}
	if n == 0 {
		return dst, nil
	}
	if space < 0 {
		return dst, newError(InvalidHuffmanCode, "over-subscribed code")
	}
	if space > 0 {
		return dst, newError(InvalidHuffmanCode, "incomplete code")
	}

	var offset [maxCodeLength + 2]int
	for l := 1; l <= maxCodeLength; l++ {
		offset[l+1] = offset[l] + count[l]
	}
	var sorted [maxAlphabetSize]uint16
	if len(lengths) > len(sorted) {
		return dst, newError(InvalidHuffmanCode,
			"alphabet size %d out of range", len(lengths))
	}
	for sym, l := range lengths {
		if l != 0 {
			sorted[offset[l]] = uint16(sym)
			offset[l]++
		}
	}

	base := len(dst)
	rootSize := 1 << rootBits
	dst = grow(dst, rootSize)
	key, idx := 0, 0
	for l, step := 1, 2; l <= rootBits; l, step = l+1, step<<1 {
		for ; count[l] > 0; count[l]-- {
			replicate(dst[base+key:], step, rootSize-key,
				huffmanCode{bits: uint8(l), value: sorted[idx]})
			idx++
			key = nextKey(key, l)
		}
	}

	mask, low := rootSize-1, -1
	table, tableSize := 0, 0
	for l, step := rootBits+1, 2; l <= maxCodeLength; l, step = l+1, step<<1 {
		for ; count[l] > 0; count[l]-- {
			if key&mask != low {
				tableBits := nextTableBitSize(&count, l, rootBits)
				tableSize = 1 << tableBits
				table = len(dst)
				dst = grow(dst, tableSize)
				low = key & mask
				dst[base+low] = huffmanCode{
					bits:  uint8(tableBits + rootBits),
					value: uint16(table - base),
				}
			}
			k := key >> rootBits
			replicate(dst[table+k:], step, tableSize-k,
				huffmanCode{bits: uint8(l - rootBits), value: sorted[idx]})
			idx++
			key = nextKey(key, l)
		}
	}
	return dst, nil
}

// buildSingleSymbolTable appends a root table decoding sym without
// consuming any bits.
func buildSingleSymbolTable(dst []huffmanCode, sym int, rootBits int) []huffmanCode {
	base := len(dst)
	dst = grow(dst, 1<<rootBits)
	replicate(dst[base:], 1, 1<<rootBits, huffmanCode{value: uint16(sym)})
	return dst
}

// readSymbolRoot decodes a symbol using a table with the given root size.
// Nothing is consumed if the available input doesn't cover the code.
func (br *bitReader) readSymbolRoot(table []huffmanCode, rootBits uint) (sym int, ok bool) {
	v, n := br.peekAvail(maxCodeLength)
	e := table[v&(1<<rootBits-1)]
	if uint(e.bits) > rootBits {
		sub := uint(e.bits) - rootBits
		e = table[uint(e.value)+uint(v>>rootBits)&(1<<sub-1)]
		if rootBits+uint(e.bits) > n {
			return 0, false
		}
		br.drop(rootBits + uint(e.bits))
		return int(e.value), true
	}
	if uint(e.bits) > n {
		return 0, false
	}
	br.drop(uint(e.bits))
	return int(e.value), true
}

// readSymbol decodes a symbol using a table with huffmanRootBits root bits.
func (br *bitReader) readSymbol(table []huffmanCode) (sym int, ok bool) {
	return br.readSymbolRoot(table, huffmanRootBits)
}
