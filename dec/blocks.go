// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// The three categories of symbols having their own block types.
const (
	categoryLiteral = iota
	categoryCommand
	categoryDistance
	numCategories
)

var categoryNames = [numCategories]string{"literal", "command", "distance"}

// maxBlockLength is the block length of a category with a single block
// type. It is never used up inside a metablock.
const maxBlockLength = 1 << 24

// blockState tracks the block type and the remaining block length of a
// category.
type blockState struct {
	numTypes int
	length   int
	// typeRB holds the second to last and the last block type.
	typeRB     [2]int
	typeTree   []huffmanCode
	lengthTree []huffmanCode
}

// reset prepares the block state for a new metablock. The tree storage is
// kept for reuse.
func (b *blockState) reset() {
	b.numTypes = 1
	b.length = maxBlockLength
	b.typeRB = [2]int{1, 0}
	b.typeTree = b.typeTree[:0]
	b.lengthTree = b.lengthTree[:0]
}

// current returns the current block type.
func (b *blockState) current() int {
	return b.typeRB[1]
}

// setType computes the new block type from the block type code.
func (b *blockState) setType(code int) error {
	var t int
	switch code {
	case 0:
		t = b.typeRB[0]
	case 1:
		t = b.typeRB[1] + 1
	default:
		t = code - 2
	}
	if t >= b.numTypes {
		t -= b.numTypes
	}
	if t < 0 || t >= b.numTypes {
		return newError(InvalidBlock, "block type %d out of range", t)
	}
	b.typeRB[0], b.typeRB[1] = b.typeRB[1], t
	return nil
}

// lengthReader reads a block length: a symbol of the block length code
// followed by extra bits.
type lengthReader struct {
	phase uint8
	code  int
}

func (r *lengthReader) read(br *bitReader, tree []huffmanCode) (n int, err error) {
	if r.phase == 0 {
		sym, ok := br.readSymbol(tree)
		if !ok {
			return 0, errShortInput
		}
		r.code = sym
		r.phase = 1
	}
	p := blockLengthPrefix[r.code]
	v, ok := br.readBits(uint(p.nbits))
	if !ok {
		return 0, errShortInput
	}
	r.phase = 0
	return int(p.offset + v), nil
}

// switchReader reads a block switch command: the block type code and the
// new block length.
type switchReader struct {
	phase    uint8
	typeCode int
	length   lengthReader
}

// switchBlock reads a block switch for the category and updates the
// dependent decoder state. A category with a single block type has no
// block switches; its block length is simply renewed.
func (d *Decoder) switchBlock(category int) error {
	b := &d.blocks[category]
	if b.numTypes < 2 {
		b.length = maxBlockLength
		return nil
	}
	r := &d.sw
	if r.phase == 0 {
		sym, ok := d.br.readSymbol(b.typeTree)
		if !ok {
			return errShortInput
		}
		r.typeCode = sym
		r.phase = 1
	}
	n, err := r.length.read(&d.br, b.lengthTree)
	if err != nil {
		return err
	}
	r.phase = 0
	if err = b.setType(r.typeCode); err != nil {
		return err
	}
	b.length = n
	switch category {
	case categoryLiteral:
		d.selectLiteralBlock()
	case categoryCommand:
		d.selectCommandBlock()
	case categoryDistance:
		d.selectDistanceBlock()
	}
	return nil
}

// readBlockTypes reads for each category the number of block types and, if
// there is more than one, the block type code, the block length code and
// the length of the first block.
func (d *Decoder) readBlockTypes() error {
	for d.loopCounter < numCategories {
		b := &d.blocks[d.loopCounter]
		var err error
		switch d.state {
		case stateHuffmanCode0:
			var n int
			if n, err = d.varLen.read(&d.br); err != nil {
				return err
			}
			b.numTypes = n + 1
			if b.numTypes < 2 {
				d.loopCounter++
				continue
			}
			d.state = stateHuffmanCode1
		case stateHuffmanCode1:
			b.typeTree, err = d.code.read(&d.br, b.numTypes+2,
				b.typeTree[:0])
			if err != nil {
				return err
			}
			d.state = stateHuffmanCode2
		case stateHuffmanCode2:
			b.lengthTree, err = d.code.read(&d.br, numBlockLengthCodes,
				b.lengthTree[:0])
			if err != nil {
				return err
			}
			d.state = stateHuffmanCode3
		case stateHuffmanCode3:
			if b.length, err = d.sw.length.read(&d.br,
				b.lengthTree); err != nil {
				return err
			}
			debugf(d, "%s block types %d, first block length %d",
				categoryNames[d.loopCounter], b.numTypes, b.length)
			d.loopCounter++
			d.state = stateHuffmanCode0
		}
	}
	d.state = stateMetablockHeader2
	return nil
}
