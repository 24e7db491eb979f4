// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// prefixRange describes the values covered by a symbol: offset plus a
// number of extra bits.
type prefixRange struct {
	offset uint32
	nbits  uint8
}

// blockLengthPrefix maps the 26 block count symbols to block lengths.
var blockLengthPrefix = [numBlockLengthCodes]prefixRange{
	{1, 2}, {5, 2}, {9, 2}, {13, 2}, {17, 3}, {25, 3}, {33, 3},
	{41, 3}, {49, 4}, {65, 4}, {81, 4}, {97, 4}, {113, 5},
	{145, 5}, {177, 5}, {209, 5}, {241, 6}, {305, 6}, {369, 7},
	{497, 8}, {753, 9}, {1265, 10}, {2289, 11}, {4337, 12},
	{8433, 13}, {16625, 24},
}

// insertLengthPrefix maps the 24 insert length codes to insert lengths.
var insertLengthPrefix = [24]prefixRange{
	{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 1}, {8, 1},
	{10, 2}, {14, 2}, {18, 3}, {26, 3}, {34, 4}, {50, 4}, {66, 5},
	{98, 5}, {130, 6}, {194, 7}, {322, 8}, {578, 9}, {1090, 10},
	{2114, 12}, {6210, 14}, {22594, 24},
}

// copyLengthPrefix maps the 24 copy length codes to copy lengths.
var copyLengthPrefix = [24]prefixRange{
	{2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}, {9, 0},
	{10, 1}, {12, 1}, {14, 2}, {18, 2}, {22, 3}, {30, 3}, {38, 4},
	{54, 4}, {70, 5}, {102, 5}, {134, 6}, {198, 7}, {326, 8},
	{582, 9}, {1094, 10}, {2118, 24},
}

// The insert-and-copy alphabet is split into cells of 64 symbols. Each cell
// selects base codes for the insert and the copy length.
var (
	insertCellBase = [11]uint8{0, 0, 0, 0, 8, 8, 0, 16, 8, 16, 16}
	copyCellBase   = [11]uint8{0, 8, 0, 8, 0, 8, 16, 0, 16, 8, 16}
)

// commandCodes returns the insert length code and the copy length code of an
// insert-and-copy symbol. Symbols below 128 use the last distance implicitly.
func commandCodes(sym int) (insertCode, copyCode int, implicitDistance bool) {
	cell := sym >> 6
	insertCode = int(insertCellBase[cell]) + (sym>>3)&7
	copyCode = int(copyCellBase[cell]) + sym&7
	return insertCode, copyCode, sym < 128
}

// codeLengthCodeOrder is the order in which the code lengths of the code
// length alphabet are stored.
var codeLengthCodeOrder = [numCodeLengthCodes]uint8{
	1, 2, 3, 4, 0, 5, 17, 6, 16, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// The code lengths of the code length alphabet are stored with a fixed
// prefix code of two to four bits. Both tables are indexed by the next four
// bits of the stream.
var (
	codeLengthPrefixLength = [16]uint8{
		2, 2, 2, 3, 2, 2, 2, 4, 2, 2, 2, 3, 2, 2, 2, 4,
	}
	codeLengthPrefixValue = [16]uint8{
		0, 4, 3, 2, 0, 4, 3, 1, 0, 4, 3, 2, 0, 4, 3, 5,
	}
)

const (
	numLiteralSymbols       = 256
	numCommandSymbols       = 704
	numBlockLengthCodes     = 26
	numCodeLengthCodes      = 18
	numDistanceShortCodes   = 16
	literalContextBits      = 6
	distanceContextBits     = 2
	repeatPreviousCodeLen   = 16
	repeatZeroCodeLen       = 17
	initialRepeatedCodeLen  = 8
)
