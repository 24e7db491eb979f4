// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

// Package brtest writes brotli streams for testing the decoder. The writer
// doesn't try to compress well; it gives control over the features of the
// format a stream uses.
package brtest

import (
	"errors"
	"fmt"

	"github.com/ulikunitz/lz"
)

// Options control the features used by a compressed metablock. The zero
// value gives a metablock with one block type per category and one tree
// per context map.
type Options struct {
	// Number of block types for literals, commands and distances.
	LiteralTypes  int
	CommandTypes  int
	DistanceTypes int
	// Number of symbols of a category covered by a block.
	LiteralBlockLen  int
	CommandBlockLen  int
	DistanceBlockLen int
	// TypeStride selects the block type sequence 0, s, 2s, ... modulo the
	// number of types. Zero means one.
	TypeStride int

	// ContextMode is used for all literal block types (0 LSB6, 1 MSB6,
	// 2 UTF8, 3 Signed).
	ContextMode int
	// Number of trees for literals and distances.
	LiteralTrees  int
	DistanceTrees int
	// TrivialContext maps all contexts of a literal block type to one
	// tree.
	TrivialContext bool
	// Explicit context maps replacing the generated ones.
	LiteralContextMap  []byte
	DistanceContextMap []byte
	// Encoding of the context maps.
	ContextMapRLE bool
	ContextMapMTF bool

	// Distance parameters NPOSTFIX and NDIRECT; DirectCodes must be a
	// multiple of 1<<PostfixBits.
	PostfixBits int
	DirectCodes int
	// NoShortCodes disables the distance codes referring to the last
	// distances, NoImplicitDistance the commands using the last distance.
	NoShortCodes       bool
	NoImplicitDistance bool
}

func (o *Options) normalize() error {
	for _, p := range []*int{&o.LiteralTypes, &o.CommandTypes,
		&o.DistanceTypes, &o.LiteralTrees, &o.DistanceTrees,
		&o.TypeStride} {
		if *p <= 0 {
			*p = 1
		}
	}
	for _, p := range []*int{&o.LiteralBlockLen, &o.CommandBlockLen,
		&o.DistanceBlockLen} {
		if *p <= 0 {
			*p = 1 << 24
		}
	}
	if o.LiteralTypes > 256 || o.CommandTypes > 256 ||
		o.DistanceTypes > 256 {
		return errors.New("brtest: too many block types")
	}
	if o.PostfixBits < 0 || o.PostfixBits > 3 {
		return errors.New("brtest: PostfixBits out of range")
	}
	if o.DirectCodes%(1<<o.PostfixBits) != 0 ||
		o.DirectCodes>>o.PostfixBits > 15 {
		return errors.New("brtest: DirectCodes out of range")
	}
	if o.ContextMode < 0 || o.ContextMode > 3 {
		return errors.New("brtest: ContextMode out of range")
	}
	return nil
}

// Writer writes a brotli stream metablock by metablock.
type Writer struct {
	bw          BitWriter
	windowBits  int
	maxBackward int
	h           history
	dictLen     int
	last        bool
}

// NewWriter starts a stream with the given window bits (10..24). The
// dictionary is the custom dictionary the decoder will be given.
func NewWriter(windowBits int, dict []byte) (*Writer, error) {
	if windowBits < 10 || windowBits > 24 {
		return nil, fmt.Errorf("brtest: window bits %d out of range",
			windowBits)
	}
	w := &Writer{
		windowBits:  windowBits,
		maxBackward: 1<<windowBits - 16,
		h:           history{dist: [4]int{16, 15, 11, 4}},
	}
	if len(dict) > w.maxBackward {
		dict = dict[len(dict)-w.maxBackward:]
	}
	w.h.data = append(w.h.data, dict...)
	w.dictLen = len(dict)
	switch {
	case windowBits == 16:
		w.bw.WriteBits(1, 0)
	case windowBits == 17:
		w.bw.WriteBits(7, 1)
	case windowBits > 17:
		w.bw.WriteBits(1, 1)
		w.bw.WriteBits(3, uint64(windowBits-17))
	default:
		w.bw.WriteBits(4, 1)
		w.bw.WriteBits(3, uint64(windowBits-8))
	}
	return w, nil
}

// writeLength writes MNIBBLES and MLEN-1.
func (w *Writer) writeLength(n int) {
	nibbles := 4
	for ; nibbles < 6 && (n-1)>>(4*nibbles) != 0; nibbles++ {
	}
	w.bw.WriteBits(2, uint64(nibbles-4))
	w.bw.WriteBits(uint(4*nibbles), uint64(n-1))
}

func (w *Writer) checkOpen(n int) error {
	if w.last {
		return errors.New("brtest: last metablock already written")
	}
	if n < 1 || n > 1<<24 {
		return fmt.Errorf("brtest: metablock length %d out of range", n)
	}
	return nil
}

// Uncompressed writes an uncompressed metablock.
func (w *Writer) Uncompressed(p []byte) error {
	if err := w.checkOpen(len(p)); err != nil {
		return err
	}
	w.bw.WriteBits(1, 0)
	w.writeLength(len(p))
	w.bw.WriteBits(1, 1)
	w.bw.WriteBytes(p)
	w.h.data = append(w.h.data, p...)
	return nil
}

// Metadata writes a metadata metablock; p may be empty.
func (w *Writer) Metadata(p []byte) error {
	if w.last {
		return errors.New("brtest: last metablock already written")
	}
	if len(p) > 1<<24 {
		return errors.New("brtest: metadata too long")
	}
	w.bw.WriteBits(1, 0)
	w.bw.WriteBits(2, 3)
	w.bw.WriteBits(1, 0)
	if len(p) == 0 {
		w.bw.WriteBits(2, 0)
	} else {
		n := 1
		for ; (len(p)-1)>>(8*n) != 0; n++ {
		}
		w.bw.WriteBits(2, uint64(n))
		w.bw.WriteBits(uint(8*n), uint64(len(p)-1))
	}
	w.bw.WriteBytes(p)
	return nil
}

// Close terminates the stream with an empty last metablock unless a last
// metablock has been written and returns the stream.
func (w *Writer) Close() []byte {
	if !w.last {
		w.bw.WriteBits(2, 3)
		w.last = true
	}
	w.bw.Align()
	return w.bw.Bytes()
}

// Data returns the data written so far without the dictionary.
func (w *Writer) Data() []byte {
	return w.h.data[w.dictLen:]
}

// command is an insert-and-copy command of a metablock.
type command struct {
	literals []byte
	copyLen  int
	distance int
}

// commands converts the block into commands. Literals following the last
// sequence form a command without copy.
func commands(blk *lz.Block) ([]command, int, error) {
	var cmds []command
	lits := blk.Literals
	n, pending := 0, 0
	for _, s := range blk.Sequences {
		k := pending + int(s.LitLen)
		if k > len(lits) {
			return nil, 0, errors.New("brtest: not enough literals")
		}
		if s.MatchLen == 0 {
			pending = k
			continue
		}
		if s.MatchLen < 2 || s.Offset == 0 {
			return nil, 0, fmt.Errorf(
				"brtest: invalid sequence %+v", s)
		}
		cmds = append(cmds, command{
			literals: lits[:k],
			copyLen:  int(s.MatchLen),
			distance: int(s.Offset),
		})
		n += k + int(s.MatchLen)
		lits = lits[k:]
		pending = 0
	}
	if len(lits) > 0 {
		cmds = append(cmds, command{literals: lits})
		n += len(lits)
	}
	return cmds, n, nil
}

// lengthCode returns the code for a length with the given ranges.
func lengthCode(ranges []lengthRange, n int) int {
	for c := len(ranges) - 1; c >= 0; c-- {
		if ranges[c].offset <= n {
			return c
		}
	}
	panic("brtest: length out of range")
}

type lengthRange struct {
	offset int
	nbits  uint
}

var (
	blockLengthRanges = []lengthRange{
		{1, 2}, {5, 2}, {9, 2}, {13, 2}, {17, 3}, {25, 3}, {33, 3},
		{41, 3}, {49, 4}, {65, 4}, {81, 4}, {97, 4}, {113, 5},
		{145, 5}, {177, 5}, {209, 5}, {241, 6}, {305, 6}, {369, 7},
		{497, 8}, {753, 9}, {1265, 10}, {2289, 11}, {4337, 12},
		{8433, 13}, {16625, 24},
	}
	insertRanges = []lengthRange{
		{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 1}, {8, 1},
		{10, 2}, {14, 2}, {18, 3}, {26, 3}, {34, 4}, {50, 4}, {66, 5},
		{98, 5}, {130, 6}, {194, 7}, {322, 8}, {578, 9}, {1090, 10},
		{2114, 12}, {6210, 14}, {22594, 24},
	}
	copyRanges = []lengthRange{
		{2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}, {9, 0},
		{10, 1}, {12, 1}, {14, 2}, {18, 2}, {22, 3}, {30, 3}, {38, 4},
		{54, 4}, {70, 5}, {102, 5}, {134, 6}, {198, 7}, {326, 8},
		{582, 9}, {1094, 10}, {2118, 24},
	}
)

// commandSymbol combines insert code and copy code into an insert-and-copy
// symbol.
func commandSymbol(insertCode, copyCode int, implicit bool) int {
	var cell int
	if implicit {
		cell = copyCode >> 3
	} else {
		bases := [3][3]int{{2, 3, 6}, {4, 5, 8}, {7, 9, 10}}
		cell = bases[insertCode>>3][copyCode>>3]
	}
	return cell<<6 | (insertCode&7)<<3 | copyCode&7
}

var (
	shortCodeIndex = [16]int{0, 1, 2, 3, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	shortCodeDelta = [16]int{0, 0, 0, 0, -1, 1, -2, 2, -3, 3, -1, 1, -2, 2, -3, 3}
)

// sink receives the symbols and extra bits of a metablock body. The
// metablock is generated twice: first to collect the used symbols, then to
// write them.
type sink interface {
	symbol(c *prefixCode, sym int)
	bits(n uint, v uint64)
}

type collector struct{}

func (collector) symbol(c *prefixCode, sym int) { c.add(sym) }
func (collector) bits(n uint, v uint64)         {}

type bitSink struct{ w *BitWriter }

func (s bitSink) symbol(c *prefixCode, sym int) { c.writeSymbol(s.w, sym) }
func (s bitSink) bits(n uint, v uint64)         { s.w.WriteBits(n, v) }

// blockSplit generates the block switches of a category.
type blockSplit struct {
	numTypes int
	blockLen int
	stride   int
	count    int
	index    int
	typeRB   [2]int
	typeCode *prefixCode
	lenCode  *prefixCode
}

func newBlockSplit(numTypes, blockLen, stride int) *blockSplit {
	b := &blockSplit{
		numTypes: numTypes,
		blockLen: blockLen,
		stride:   stride,
		count:    blockLen,
		typeRB:   [2]int{1, 0},
	}
	if numTypes > 1 {
		b.typeCode = newPrefixCode(numTypes + 2)
		b.lenCode = newPrefixCode(26)
	}
	return b
}

func (b *blockSplit) current() int { return b.typeRB[1] }

func (b *blockSplit) writeLength(s sink, n int) {
	c := lengthCode(blockLengthRanges, n)
	s.symbol(b.lenCode, c)
	s.bits(blockLengthRanges[c].nbits,
		uint64(n-blockLengthRanges[c].offset))
}

// next is called before a symbol of the category is written.
func (b *blockSplit) next(s sink) {
	if b.numTypes < 2 {
		return
	}
	if b.count == 0 {
		b.index++
		t := b.index * b.stride % b.numTypes
		var code int
		switch {
		case t == b.typeRB[0]:
			code = 0
		case t == (b.typeRB[1]+1)%b.numTypes:
			code = 1
		default:
			code = t + 2
		}
		s.symbol(b.typeCode, code)
		b.writeLength(s, b.blockLen)
		b.typeRB[0], b.typeRB[1] = b.typeRB[1], t
		b.count = b.blockLen
	}
	b.count--
}

// metablock holds the codes of a compressed metablock.
type metablock struct {
	opts        *Options
	split       [3]*blockSplit
	litMap      []byte
	distMap     []byte
	numDist     int
	litTrees    []*prefixCode
	cmdTrees    []*prefixCode
	distTrees   []*prefixCode
}

func maxPlusOne(m []byte) int {
	n := 0
	for _, v := range m {
		if int(v) >= n {
			n = int(v) + 1
		}
	}
	return n
}

func newMetablock(o *Options) (*metablock, error) {
	mb := &metablock{opts: o}
	mb.split[0] = newBlockSplit(o.LiteralTypes, o.LiteralBlockLen,
		o.TypeStride)
	mb.split[1] = newBlockSplit(o.CommandTypes, o.CommandBlockLen,
		o.TypeStride)
	mb.split[2] = newBlockSplit(o.DistanceTypes, o.DistanceBlockLen,
		o.TypeStride)

	if o.LiteralContextMap != nil {
		if len(o.LiteralContextMap) != 64*o.LiteralTypes {
			return nil, errors.New(
				"brtest: literal context map has wrong size")
		}
		mb.litMap = o.LiteralContextMap
	} else {
		mb.litMap = make([]byte, 64*o.LiteralTypes)
		for t := 0; t < o.LiteralTypes; t++ {
			for c := 0; c < 64; c++ {
				v := (t + c) % o.LiteralTrees
				if o.TrivialContext {
					v = t % o.LiteralTrees
				}
				mb.litMap[64*t+c] = byte(v)
			}
		}
	}
	if o.DistanceContextMap != nil {
		if len(o.DistanceContextMap) != 4*o.DistanceTypes {
			return nil, errors.New(
				"brtest: distance context map has wrong size")
		}
		mb.distMap = o.DistanceContextMap
	} else {
		mb.distMap = make([]byte, 4*o.DistanceTypes)
		for t := 0; t < o.DistanceTypes; t++ {
			for c := 0; c < 4; c++ {
				mb.distMap[4*t+c] = byte((t + c) % o.DistanceTrees)
			}
		}
	}
	numLitTrees := maxPlusOne(mb.litMap)
	numDistTrees := maxPlusOne(mb.distMap)
	mb.numDist = 16 + o.DirectCodes + 48<<o.PostfixBits

	for i := 0; i < numLitTrees; i++ {
		mb.litTrees = append(mb.litTrees, newPrefixCode(256))
	}
	for i := 0; i < o.CommandTypes; i++ {
		mb.cmdTrees = append(mb.cmdTrees, newPrefixCode(704))
	}
	for i := 0; i < numDistTrees; i++ {
		mb.distTrees = append(mb.distTrees, newPrefixCode(mb.numDist))
	}
	return mb, nil
}

func byteBack(hist []byte, k int) byte {
	if k > len(hist) {
		return 0
	}
	return hist[len(hist)-k]
}

// history is the decoder state the writer mirrors: the data including the
// dictionary and the last distances.
type history struct {
	data    []byte
	dist    [4]int
	distIdx int
}

// lastDistance returns the i-th last distance; i=0 is the last distance.
func (h *history) lastDistance(i int) int {
	return h.dist[(h.distIdx-1-i)&3]
}

func (h *history) pushDistance(d int) {
	h.dist[h.distIdx&3] = d
	h.distIdx++
}

// distanceCode selects the distance code and its extra bits.
func distanceCode(o *Options, h *history, d int) (code int, nbits uint, extra uint64) {
	if !o.NoShortCodes {
		for c := 0; c < 16; c++ {
			if h.lastDistance(shortCodeIndex[c])+shortCodeDelta[c] == d {
				return c, 0, 0
			}
		}
	}
	if d <= o.DirectCodes {
		return d + 15, 0, 0
	}
	x := d - o.DirectCodes - 1
	postfix := x & (1<<o.PostfixBits - 1)
	x = x>>o.PostfixBits + 4
	ndistbits := bitLen(x) - 2
	hcode := (ndistbits-1)<<1 | x>>ndistbits&1
	code = 16 + o.DirectCodes + hcode<<o.PostfixBits + postfix
	return code, uint(ndistbits), uint64(x & (1<<ndistbits - 1))
}

// body generates the symbols of the metablock starting with history h and
// returns the history after the metablock.
func (w *Writer) body(s sink, mb *metablock, cmds []command, h history) (history, error) {
	o := mb.opts
	for _, cmd := range cmds {
		insertCode := lengthCode(insertRanges, len(cmd.literals))
		copyLen := cmd.copyLen
		if copyLen == 0 {
			// the copy length of the last command is ignored
			copyLen = 2
		}
		copyCode := lengthCode(copyRanges, copyLen)
		implicit := insertCode < 8 && copyCode < 16
		var dcode int
		var dbits uint
		var dextra uint64
		if cmd.copyLen > 0 {
			max := min(len(h.data)+len(cmd.literals), w.maxBackward)
			if cmd.distance > max {
				return h, fmt.Errorf(
					"brtest: distance %d exceeds window %d",
					cmd.distance, max)
			}
			dcode, dbits, dextra = distanceCode(o, &h, cmd.distance)
			implicit = implicit && dcode == 0 &&
				!o.NoImplicitDistance
		}

		mb.split[1].next(s)
		cmdTree := mb.cmdTrees[mb.split[1].current()]
		s.symbol(cmdTree, commandSymbol(insertCode, copyCode, implicit))
		s.bits(insertRanges[insertCode].nbits,
			uint64(len(cmd.literals)-insertRanges[insertCode].offset))
		s.bits(copyRanges[copyCode].nbits,
			uint64(copyLen-copyRanges[copyCode].offset))

		for _, c := range cmd.literals {
			mb.split[0].next(s)
			t := mb.split[0].current()
			ctx := literalContext(o.ContextMode, byteBack(h.data, 1),
				byteBack(h.data, 2))
			s.symbol(mb.litTrees[mb.litMap[64*t+ctx]], int(c))
			h.data = append(h.data, c)
		}
		if cmd.copyLen == 0 {
			continue
		}
		if !implicit {
			mb.split[2].next(s)
			t := mb.split[2].current()
			ctx := min(cmd.copyLen-2, 3)
			s.symbol(mb.distTrees[mb.distMap[4*t+ctx]], dcode)
			s.bits(dbits, dextra)
		}
		if dcode != 0 {
			h.pushDistance(cmd.distance)
		}
		for i := 0; i < cmd.copyLen; i++ {
			h.data = append(h.data, h.data[len(h.data)-cmd.distance])
		}
	}
	return h, nil
}

// Compressed writes the block as compressed metablock. The block must not
// reference data outside of the window. If last is set the metablock
// terminates the stream.
func (w *Writer) Compressed(blk *lz.Block, opts *Options, last bool) error {
	var o Options
	if opts != nil {
		o = *opts
	}
	if err := o.normalize(); err != nil {
		return err
	}
	cmds, n, err := commands(blk)
	if err != nil {
		return err
	}
	if err = w.checkOpen(n); err != nil {
		return err
	}

	// first pass: collect the symbols
	mb, err := newMetablock(&o)
	if err != nil {
		return err
	}
	for _, b := range mb.split {
		if b.numTypes > 1 {
			b.writeLength(collector{}, b.blockLen)
		}
	}
	if _, err = w.body(collector{}, mb, cmds, w.h); err != nil {
		return err
	}
	for _, b := range mb.split {
		if b.numTypes > 1 {
			b.typeCode.build()
			b.lenCode.build()
		}
	}
	for _, codes := range [][]*prefixCode{mb.litTrees, mb.cmdTrees,
		mb.distTrees} {
		for _, c := range codes {
			c.build()
		}
	}

	// second pass: write header and body
	bw := &w.bw
	if last {
		bw.WriteBits(2, 1)
	} else {
		bw.WriteBits(1, 0)
	}
	w.writeLength(n)
	if !last {
		bw.WriteBits(1, 0)
	}
	for i, b := range mb.split {
		writeVarLen(bw, b.numTypes-1)
		if b.numTypes > 1 {
			b.typeCode.writeTo(bw)
			b.lenCode.writeTo(bw)
			b.writeLength(bitSink{bw}, b.blockLen)
		}
		nb := newBlockSplit(b.numTypes, b.blockLen, b.stride)
		nb.typeCode, nb.lenCode = b.typeCode, b.lenCode
		mb.split[i] = nb
	}
	bw.WriteBits(2, uint64(o.PostfixBits))
	bw.WriteBits(4, uint64(o.DirectCodes>>o.PostfixBits))
	for i := 0; i < o.LiteralTypes; i++ {
		bw.WriteBits(2, uint64(o.ContextMode))
	}
	writeContextMap(bw, mb.litMap, len(mb.litTrees), o.ContextMapRLE,
		o.ContextMapMTF)
	writeContextMap(bw, mb.distMap, len(mb.distTrees), o.ContextMapRLE,
		o.ContextMapMTF)
	for _, codes := range [][]*prefixCode{mb.litTrees, mb.cmdTrees,
		mb.distTrees} {
		for _, c := range codes {
			c.writeTo(bw)
		}
	}
	if w.h, err = w.body(bitSink{bw}, mb, cmds, w.h); err != nil {
		return err
	}
	w.last = last
	return nil
}

// Literals returns a block consisting of literals only.
func Literals(p []byte) *lz.Block {
	return &lz.Block{Literals: p}
}
