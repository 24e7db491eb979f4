// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package brtest

// prefixCode is a prefix code over the symbols used in a stream. The code
// lengths don't depend on symbol frequencies; every used symbol gets a code
// of one of two adjacent lengths, which keeps all codes short enough for the
// format and complete.
type prefixCode struct {
	alphabetSize int
	used         []bool
	lengths      []uint8
	codes        []uint16
}

func newPrefixCode(alphabetSize int) *prefixCode {
	return &prefixCode{
		alphabetSize: alphabetSize,
		used:         make([]bool, alphabetSize),
	}
}

// add records the use of a symbol.
func (c *prefixCode) add(sym int) {
	c.used[sym] = true
}

// symbols returns the used symbols in ascending order.
func (c *prefixCode) symbols() []int {
	var s []int
	for sym, u := range c.used {
		if u {
			s = append(s, sym)
		}
	}
	return s
}

// build computes code lengths and codes. A code without used symbols gets
// symbol 0.
func (c *prefixCode) build() {
	syms := c.symbols()
	if len(syms) == 0 {
		c.used[0] = true
		syms = []int{0}
	}
	c.lengths = make([]uint8, c.alphabetSize)
	c.codes = make([]uint16, c.alphabetSize)
	n := len(syms)
	if n == 1 {
		return
	}
	k := bitLen(n) - 1
	short := 1<<(k+1) - n
	for i, sym := range syms {
		if i < short {
			c.lengths[sym] = uint8(k)
		} else {
			c.lengths[sym] = uint8(k + 1)
		}
	}
	c.codes = canonicalCodes(c.lengths)
}

// canonicalCodes assigns the canonical codes for the given lengths: shorter
// codes first, codes of the same length in symbol order.
func canonicalCodes(lengths []uint8) []uint16 {
	codes := make([]uint16, len(lengths))
	code := 0
	for l := uint8(1); l <= 15; l++ {
		for sym, sl := range lengths {
			if sl == l {
				codes[sym] = uint16(code)
				code++
			}
		}
		code <<= 1
	}
	return codes
}

// reverse reverses the lowest n bits of v.
func reverse(v uint16, n uint8) uint64 {
	var r uint64
	for i := uint8(0); i < n; i++ {
		r = r<<1 | uint64(v>>i&1)
	}
	return r
}

// writeSymbol writes the code of a symbol. Codes are stored most
// significant bit first.
func (c *prefixCode) writeSymbol(w *BitWriter, sym int) {
	if !c.used[sym] {
		panic("brtest: symbol not part of the prefix code")
	}
	l := c.lengths[sym]
	w.WriteBits(uint(l), reverse(c.codes[sym], l))
}

// writeTo writes the description of the code.
func (c *prefixCode) writeTo(w *BitWriter) {
	syms := c.symbols()
	if len(syms) <= 4 {
		c.writeSimple(w, syms)
		return
	}
	c.writeComplex(w)
}

func (c *prefixCode) writeSimple(w *BitWriter, syms []int) {
	w.WriteBits(2, 1)
	w.WriteBits(2, uint64(len(syms)-1))
	n := uint(bitLen(c.alphabetSize - 1))
	for _, s := range syms {
		w.WriteBits(n, uint64(s))
	}
	if len(syms) == 4 {
		w.WriteBits(1, 0)
	}
}

// clItem is a symbol of the code length alphabet with its extra bits.
type clItem struct {
	sym   int
	nbits uint
	extra uint64
}

// rleCodeLengths encodes code lengths using the repeat codes 16 and 17.
// Repeat codes are never placed directly after a repeat code of the same
// kind, since consecutive repeat codes would multiply.
func rleCodeLengths(lengths []uint8) []clItem {
	var items []clItem
	for i := 0; i < len(lengths); {
		v := lengths[i]
		run := 1
		for i+run < len(lengths) && lengths[i+run] == v {
			run++
		}
		i += run
		if v != 0 {
			items = append(items, clItem{sym: int(v)})
			run--
		}
		sym, nbits, max := 17, uint(3), 10
		if v != 0 {
			sym, nbits, max = 16, 2, 6
		}
		for run > 0 {
			if run < 3 {
				items = append(items, clItem{sym: int(v)})
				run--
				continue
			}
			n := run
			if n > max {
				n = max
			}
			items = append(items, clItem{sym: sym, nbits: nbits,
				extra: uint64(n - 3)})
			run -= n
			if run > 0 {
				items = append(items, clItem{sym: int(v)})
				run--
			}
		}
	}
	return items
}

var codeLengthCodeOrder = [18]int{
	1, 2, 3, 4, 0, 5, 17, 6, 16, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// staticCodeLengthCode gives the bits and their number for the code length
// code lengths 0 to 5.
var staticCodeLengthCode = [6]struct {
	bits uint64
	n    uint
}{
	{0, 2}, {7, 4}, {3, 3}, {2, 2}, {1, 2}, {15, 4},
}

func (c *prefixCode) writeComplex(w *BitWriter) {
	last := 0
	for sym, l := range c.lengths {
		if l != 0 {
			last = sym
		}
	}
	items := rleCodeLengths(c.lengths[:last+1])
	clc := newPrefixCode(18)
	for _, it := range items {
		clc.add(it.sym)
	}
	clc.build()
	clLengths := clc.lengths
	single := len(clc.symbols()) == 1
	if single {
		clLengths = make([]uint8, 18)
		clLengths[clc.symbols()[0]] = 1
	}

	hskip := 0
	switch {
	case clLengths[1] == 0 && clLengths[2] == 0 && clLengths[3] == 0:
		hskip = 3
	case clLengths[1] == 0 && clLengths[2] == 0:
		hskip = 2
	}
	w.WriteBits(2, uint64(hskip))
	space := 32
	for _, sym := range codeLengthCodeOrder[hskip:] {
		l := clLengths[sym]
		s := staticCodeLengthCode[l]
		w.WriteBits(s.n, s.bits)
		if l != 0 && !single {
			space -= 32 >> l
			if space <= 0 {
				break
			}
		}
	}
	for _, it := range items {
		if !single {
			clc.writeSymbol(w, it.sym)
		}
		w.WriteBits(it.nbits, it.extra)
	}
}
