// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

import "math/bits"

// codePhase is the state of the prefix code reader.
type codePhase uint8

const (
	codeNone codePhase = iota
	codeSimpleSize
	codeSimpleSymbols
	codeSimpleSelect
	codeLengthCodeLengths
	codeSymbolLengths
	codeRepeat
)

// codeReader reads the description of a prefix code from the stream. All
// intermediate values are kept in the struct, so reading can be suspended
// after every atomic read and resumed without decoding anything twice.
type codeReader struct {
	phase        codePhase
	alphabetSize int

	// simple codes
	numSymbols int
	symbols    [4]uint16

	// complex codes
	index      int
	space      int
	numCodes   int
	clLengths  [numCodeLengthCodes]byte
	clTable    []huffmanCode
	lengths    [maxAlphabetSize]byte
	symbol     int
	prevLen    int
	repeat     int
	repeatLen  int
	repeatCode int
}

// simpleCodeLengths lists the code lengths of the simple prefix codes with
// 1, 2, 3, 4 symbols and tree select 0, and 4 symbols with tree select 1.
var simpleCodeLengths = [5][4]byte{
	{0}, {1, 1}, {1, 2, 2}, {2, 2, 2, 2}, {1, 2, 3, 3},
}

// read reads a prefix code for an alphabet of the given size and appends its
// lookup table to dst. If errShortInput is returned the call must be repeated
// with the same arguments after more input has been provided.
func (c *codeReader) read(br *bitReader, alphabetSize int, dst []huffmanCode) ([]huffmanCode, error) {
	for {
		switch c.phase {
		case codeNone:
			hskip, ok := br.readBits(2)
			if !ok {
				return dst, errShortInput
			}
			c.alphabetSize = alphabetSize
			if hskip == 1 {
				c.phase = codeSimpleSize
				continue
			}
			c.index = int(hskip)
			c.space = 32
			c.numCodes = 0
			c.clLengths = [numCodeLengthCodes]byte{}
			c.phase = codeLengthCodeLengths
		case codeSimpleSize:
			v, ok := br.readBits(2)
			if !ok {
				return dst, errShortInput
			}
			c.numSymbols = int(v) + 1
			c.index = 0
			c.phase = codeSimpleSymbols
		case codeSimpleSymbols:
			n := uint(bits.Len(uint(c.alphabetSize - 1)))
			for c.index < c.numSymbols {
				v, ok := br.readBits(n)
				if !ok {
					return dst, errShortInput
				}
				if int(v) >= c.alphabetSize {
					c.phase = codeNone
					return dst, newError(InvalidHuffmanCode,
						"symbol %d outside alphabet of size %d",
						v, c.alphabetSize)
				}
				for _, s := range c.symbols[:c.index] {
					if s == uint16(v) {
						c.phase = codeNone
						return dst, newError(InvalidHuffmanCode,
							"duplicate symbol %d", v)
					}
				}
				c.symbols[c.index] = uint16(v)
				c.index++
			}
			if c.numSymbols == 4 {
				c.phase = codeSimpleSelect
				continue
			}
			return c.buildSimple(dst, c.numSymbols-1)
		case codeSimpleSelect:
			v, ok := br.readBits(1)
			if !ok {
				return dst, errShortInput
			}
			return c.buildSimple(dst, 3+int(v))
		case codeLengthCodeLengths:
			for c.index < numCodeLengthCodes {
				v, n := br.peekAvail(4)
				l := uint(codeLengthPrefixLength[v])
				if l > n {
					return dst, errShortInput
				}
				br.drop(l)
				cl := codeLengthPrefixValue[v]
				c.clLengths[codeLengthCodeOrder[c.index]] = cl
				c.index++
				if cl != 0 {
					c.space -= 32 >> cl
					c.numCodes++
					if c.space <= 0 {
						break
					}
				}
			}
			if c.numCodes != 1 && c.space != 0 {
				c.phase = codeNone
				return dst, newError(InvalidHuffmanCode,
					"invalid code length code lengths")
			}
			if err := c.buildCodeLengthTable(); err != nil {
				c.phase = codeNone
				return dst, err
			}
			clear(c.lengths[:c.alphabetSize])
			c.symbol = 0
			c.prevLen = initialRepeatedCodeLen
			c.repeat = 0
			c.repeatLen = 0
			c.space = 1 << maxCodeLength
			c.phase = codeSymbolLengths
		case codeSymbolLengths:
			for c.symbol < c.alphabetSize && c.space > 0 {
				cl, ok := br.readSymbolRoot(c.clTable,
					codeLengthRootBits)
				if !ok {
					return dst, errShortInput
				}
				if cl < repeatPreviousCodeLen {
					c.repeat = 0
					c.lengths[c.symbol] = byte(cl)
					if cl != 0 {
						c.prevLen = cl
						c.space -= 1 << maxCodeLength >> cl
					}
					c.symbol++
					continue
				}
				c.repeatCode = cl
				c.phase = codeRepeat
				break
			}
			if c.phase == codeRepeat {
				continue
			}
			c.phase = codeNone
			if c.space != 0 {
				return dst, newError(InvalidHuffmanCode,
					"code lengths don't form a complete code")
			}
			return buildHuffmanTable(dst, c.lengths[:c.alphabetSize],
				huffmanRootBits)
		case codeRepeat:
			extraBits, newLen := uint(3), 0
			if c.repeatCode == repeatPreviousCodeLen {
				extraBits, newLen = 2, c.prevLen
			}
			v, ok := br.readBits(extraBits)
			if !ok {
				return dst, errShortInput
			}
			if c.repeatLen != newLen {
				c.repeat = 0
				c.repeatLen = newLen
			}
			old := c.repeat
			if c.repeat > 0 {
				c.repeat = (c.repeat - 2) << extraBits
			}
			c.repeat += int(v) + 3
			delta := c.repeat - old
			if c.symbol+delta > c.alphabetSize {
				c.phase = codeNone
				return dst, newError(InvalidHuffmanCode,
					"code length repeat exceeds alphabet")
			}
			for i := 0; i < delta; i++ {
				c.lengths[c.symbol] = byte(c.repeatLen)
				c.symbol++
			}
			if c.repeatLen != 0 {
				c.space -= delta << maxCodeLength >> c.repeatLen
			}
			c.phase = codeSymbolLengths
		}
	}
}

// buildSimple builds the table for a simple prefix code using the given
// entry of simpleCodeLengths.
func (c *codeReader) buildSimple(dst []huffmanCode, k int) ([]huffmanCode, error) {
	c.phase = codeNone
	if c.numSymbols == 1 {
		return buildSingleSymbolTable(dst, int(c.symbols[0]),
			huffmanRootBits), nil
	}
	clear(c.lengths[:c.alphabetSize])
	for i, s := range c.symbols[:c.numSymbols] {
		c.lengths[s] = simpleCodeLengths[k][i]
	}
	return buildHuffmanTable(dst, c.lengths[:c.alphabetSize], huffmanRootBits)
}

// buildCodeLengthTable builds the table for the code length code.
func (c *codeReader) buildCodeLengthTable() error {
	c.clTable = c.clTable[:0]
	if c.numCodes == 1 {
		for sym, l := range c.clLengths {
			if l != 0 {
				c.clTable = buildSingleSymbolTable(c.clTable, sym,
					codeLengthRootBits)
				return nil
			}
		}
	}
	var err error
	c.clTable, err = buildHuffmanTable(c.clTable, c.clLengths[:],
		codeLengthRootBits)
	return err
}
