// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

import (
	"errors"
	"fmt"

	"github.com/J-j-4/brotli/xlog"
)

// runningState is the top level state of the decoder.
type runningState uint8

const (
	stateUninited runningState = iota
	stateMetablockBegin
	stateMetablockHeader
	stateMetadata
	stateUncompressed
	stateHuffmanCode0
	stateHuffmanCode1
	stateHuffmanCode2
	stateHuffmanCode3
	stateMetablockHeader2
	stateContextModes
	stateContextMap1
	stateContextMap2
	stateTreeGroup
	stateBlockBegin
	stateBlockInner
	stateBlockDistance
	stateBlockPost
	stateMetablockDone
	stateDone
)

var stateNames = [...]string{
	stateUninited:         "uninited",
	stateMetablockBegin:   "metablock begin",
	stateMetablockHeader:  "metablock header",
	stateMetadata:         "metadata",
	stateUncompressed:     "uncompressed",
	stateHuffmanCode0:     "huffman code 0",
	stateHuffmanCode1:     "huffman code 1",
	stateHuffmanCode2:     "huffman code 2",
	stateHuffmanCode3:     "huffman code 3",
	stateMetablockHeader2: "metablock header 2",
	stateContextModes:     "context modes",
	stateContextMap1:      "context map 1",
	stateContextMap2:      "context map 2",
	stateTreeGroup:        "tree group",
	stateBlockBegin:       "block begin",
	stateBlockInner:       "block inner",
	stateBlockDistance:    "block distance",
	stateBlockPost:        "block post",
	stateMetablockDone:    "metablock done",
	stateDone:             "done",
}

func (s runningState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("runningState(%d)", s)
}

// Result tells the caller of Decompress how to continue.
type Result int

const (
	// Done signals the end of the stream; all output has been delivered.
	Done Result = iota
	// NeedsMoreInput requests the next chunk of input. All input of the
	// call has been consumed.
	NeedsMoreInput
	// NeedsMoreOutput requests more output space.
	NeedsMoreOutput
	// Failed signals a fatal error.
	Failed
)

func (r Result) String() string {
	switch r {
	case Done:
		return "Done"
	case NeedsMoreInput:
		return "NeedsMoreInput"
	case NeedsMoreOutput:
		return "NeedsMoreOutput"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

var errNotInitialized = errors.New("brotli: decoder not initialized")

// initialDistances are the last four distances at the start of the
// stream, the last distance at the highest index.
var initialDistances = [4]int{16, 15, 11, 4}

// Decoder decompresses a brotli stream supplied in chunks of arbitrary size
// into output buffers of arbitrary size. The zero value is not usable; use
// NewDecoder or call Init.
type Decoder struct {
	state runningState
	err   error
	ready bool

	br  bitReader
	win window

	windowBits  int
	maxBackward int
	dict        []byte

	// last four distances; distIdx points behind the last one
	dist    [4]int
	distIdx int

	// metablock
	isLast         bool
	isUncompressed bool
	isMetadata     bool
	remaining      int
	blocks         [numCategories]blockState
	postfixBits    uint
	postfixMask    int
	numDirect      int
	contextModes   []contextMode
	contextMap     []byte
	distContextMap []byte
	trivial        []bool

	numLiteralTrees int
	numDistTrees    int
	groups          [numCategories]treeGroup

	// tables and context map slices for the current block types
	literalMap     []byte
	literalMode    contextMode
	literalTrivial bool
	commandTree    []huffmanCode
	distMap        []byte

	// current command
	insertLen        int
	copyLen          int
	distance         int
	implicitDistance bool

	loopCounter int

	// helpers for resumable reads
	varLen varLenReader
	hdr    headerReader
	code   codeReader
	cm     contextMapReader
	mtf    moveToFront
	sw     switchReader
	cmd    commandReader
	dr     distanceReader

	// output buffer of the current call
	out  []byte
	nOut int

	log      xlog.Logger
	metadata func(p []byte)
}

// NewDecoder returns an initialized decoder.
func NewDecoder() *Decoder {
	d := new(Decoder)
	d.Init()
	return d
}

// Init resets the decoder for a new stream. The logger and the metadata
// handler are kept; allocated buffers are reused.
func (d *Decoder) Init() {
	*d = Decoder{
		ready:    true,
		win:      window{buf: d.win.buf[:0]},
		groups:   d.groups,
		code:     codeReader{clTable: d.code.clTable[:0]},
		cm:       contextMapReader{table: d.cm.table[:0]},
		blocks:   d.blocks,
		dist:     initialDistances,
		log:      d.log,
		metadata: d.metadata,
	}
	for i := range d.blocks {
		d.blocks[i].reset()
	}
}

// Cleanup releases all allocated memory. The decoder must be initialized
// again before it can be used.
func (d *Decoder) Cleanup() {
	*d = Decoder{log: d.log, metadata: d.metadata}
}

// SetLogger sets the logger for decoder traces. A nil logger switches
// tracing off.
func (d *Decoder) SetLogger(l xlog.Logger) {
	d.log = l
}

// SetMetadataHandler sets a function receiving the payload of metadata
// metablocks. The slice is only valid during the call.
func (d *Decoder) SetMetadataHandler(f func(p []byte)) {
	d.metadata = f
}

// SetCustomDictionary provides data that is treated as output preceding the
// stream and may be referenced by distances. It must be called after Init
// and before the first call of Decompress. The slice is not copied and
// must not be modified until the first metablock has started.
func (d *Decoder) SetCustomDictionary(p []byte) error {
	if !d.ready {
		return errNotInitialized
	}
	if d.state != stateUninited || d.br.total > 0 {
		return errors.New(
			"brotli: custom dictionary must be set before decoding")
	}
	d.dict = p
	return nil
}

// metablockBegin resets the metablock state.
func (d *Decoder) metablockBegin() {
	d.isLast = false
	d.isUncompressed = false
	d.isMetadata = false
	d.remaining = 0
	for i := range d.blocks {
		d.blocks[i].reset()
	}
	d.postfixBits = 0
	d.postfixMask = 0
	d.numDirect = 0
	d.numLiteralTrees = 0
	d.numDistTrees = 0
	d.literalMap = nil
	d.commandTree = nil
	d.distMap = nil
}

// cleanupAfterMetablock releases the context maps and context modes. The
// tree groups and the ring buffer are kept.
func (d *Decoder) cleanupAfterMetablock() {
	d.contextModes = nil
	d.contextMap = nil
	d.distContextMap = nil
	d.trivial = nil
	d.literalMap = nil
	d.distMap = nil
}

func debugf(d *Decoder, format string, a ...interface{}) {
	xlog.Printf(d.log, format, a...)
}
