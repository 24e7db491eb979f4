// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// Decompress decodes data from src into dst. It returns the result, the
// number of bytes written to dst and the number of bytes consumed from src.
//
// NeedsMoreInput reports that src has been consumed completely, all decoded
// data has been written to dst and further input is required; if atEOF is
// set, no further input exists and the call fails with a TruncatedStream
// error instead. NeedsMoreOutput reports that dst is full and decoded data
// is still pending. Done is returned once the end of the stream has been reached
// and all output has been delivered; bytes following the stream are not
// consumed. After a fatal error the decoder returns the same error until Init
// is called.
func (d *Decoder) Decompress(dst, src []byte, atEOF bool) (res Result, nDst, nSrc int, err error) {
	if !d.ready {
		return Failed, 0, 0, errNotInitialized
	}
	if d.err != nil {
		return Failed, 0, 0, d.err
	}
	d.br.setInput(src)
	d.out, d.nOut = dst, 0
	err = d.run()
	nDst, nSrc = d.nOut, d.br.pos
	d.out = nil
	d.br.setInput(nil)
	switch err {
	case nil:
		return Done, nDst, nSrc, nil
	case errShortOutput:
		return NeedsMoreOutput, nDst, nSrc, nil
	case errShortInput:
		if !atEOF {
			return NeedsMoreInput, nDst, nSrc, nil
		}
		err = newError(TruncatedStream, "stream ends in state %s",
			d.state)
	}
	d.err = err
	debugf(d, "error %s", err)
	return Failed, nDst, nSrc, err
}

// flush moves decoded bytes from the ring buffer to the output.
func (d *Decoder) flush() {
	d.nOut += d.win.flush(d.out[d.nOut:])
}

// room ensures that at least one byte can be written into the ring buffer.
func (d *Decoder) room() error {
	if d.win.available() > 0 {
		return nil
	}
	d.flush()
	if d.win.available() > 0 {
		return nil
	}
	return errShortOutput
}

// run executes the state machine until the stream ends, the input is
// exhausted, the output is full or an error occurs.
func (d *Decoder) run() error {
	d.flush()
	for {
		var err error
		switch d.state {
		case stateUninited:
			if err = d.readWindowBits(); err == nil {
				d.state = stateMetablockBegin
			}
		case stateMetablockBegin:
			d.metablockBegin()
			d.state = stateMetablockHeader
		case stateMetablockHeader:
			if err = d.readMetablockHeader(); err == nil {
				err = d.startMetablock()
			}
		case stateMetadata:
			err = d.readMetadata()
		case stateUncompressed:
			err = d.readUncompressed()
		case stateHuffmanCode0, stateHuffmanCode1, stateHuffmanCode2,
			stateHuffmanCode3:
			err = d.readBlockTypes()
		case stateMetablockHeader2:
			err = d.readDistanceParams()
		case stateContextModes:
			err = d.readContextModes()
		case stateContextMap1, stateContextMap2:
			err = d.readContextMaps()
		case stateTreeGroup:
			err = d.readTreeGroups()
		case stateBlockBegin:
			err = d.readCommand()
		case stateBlockInner:
			err = d.readLiterals()
		case stateBlockDistance:
			err = d.readDistance()
		case stateBlockPost:
			err = d.copyMatch()
		case stateMetablockDone:
			d.cleanupAfterMetablock()
			if !d.isLast {
				d.state = stateMetablockBegin
				continue
			}
			if d.br.alignToByte() != 0 {
				err = newError(InvalidFormat,
					"non-zero padding bits at stream end")
				break
			}
			d.br.unload()
			d.state = stateDone
			debugf(d, "stream end, %d bytes decoded", d.win.total)
		case stateDone:
			d.flush()
			if d.win.buffered() > 0 {
				return errShortOutput
			}
			return nil
		}
		if err != nil {
			d.flush()
			if err == errShortInput && d.win.buffered() > 0 {
				// decoded output comes first
				return errShortOutput
			}
			return err
		}
	}
}

// selectLiteralBlock selects context map slice and context mode for the
// current literal block type.
func (d *Decoder) selectLiteralBlock() {
	t := d.blocks[categoryLiteral].current()
	d.literalMap = d.contextMap[t<<literalContextBits : (t+1)<<literalContextBits]
	d.literalMode = d.contextModes[t]
	d.literalTrivial = d.trivial[t]
}

// selectCommandBlock selects the insert-and-copy table for the current
// block type.
func (d *Decoder) selectCommandBlock() {
	d.commandTree = d.groups[categoryCommand].tree(
		d.blocks[categoryCommand].current())
}

// selectDistanceBlock selects the distance context map slice for the
// current block type.
func (d *Decoder) selectDistanceBlock() {
	t := d.blocks[categoryDistance].current()
	d.distMap = d.distContextMap[t<<distanceContextBits : (t+1)<<distanceContextBits]
}

type commandReader struct {
	phase      uint8
	insertCode int
	copyCode   int
}

// readCommand reads the next insert-and-copy command.
func (d *Decoder) readCommand() error {
	r, br := &d.cmd, &d.br
	for {
		switch r.phase {
		case 0:
			b := &d.blocks[categoryCommand]
			if b.length == 0 {
				if err := d.switchBlock(categoryCommand); err != nil {
					return err
				}
			}
			sym, ok := br.readSymbol(d.commandTree)
			if !ok {
				return errShortInput
			}
			b.length--
			r.insertCode, r.copyCode, d.implicitDistance = commandCodes(sym)
			r.phase = 1
		case 1:
			p := insertLengthPrefix[r.insertCode]
			v, ok := br.readBits(uint(p.nbits))
			if !ok {
				return errShortInput
			}
			d.insertLen = int(p.offset + v)
			r.phase = 2
		case 2:
			p := copyLengthPrefix[r.copyCode]
			v, ok := br.readBits(uint(p.nbits))
			if !ok {
				return errShortInput
			}
			d.copyLen = int(p.offset + v)
			r.phase = 0
			if d.insertLen > d.remaining {
				return newError(InvalidLength,
					"insert length %d exceeds metablock",
					d.insertLen)
			}
			d.state = stateBlockInner
			return nil
		}
	}
}

// readLiterals decodes the literals of the current command.
func (d *Decoder) readLiterals() error {
	lit := &d.groups[categoryLiteral]
	b := &d.blocks[categoryLiteral]
	for d.insertLen > 0 {
		if err := d.room(); err != nil {
			return err
		}
		if b.length == 0 {
			if err := d.switchBlock(categoryLiteral); err != nil {
				return err
			}
		}
		var t byte
		if d.literalTrivial {
			t = d.literalMap[0]
		} else {
			ctx := literalContext(d.literalMode,
				d.win.byteAt(1), d.win.byteAt(2))
			t = d.literalMap[ctx]
		}
		sym, ok := d.br.readSymbol(lit.tree(int(t)))
		if !ok {
			return errShortInput
		}
		d.win.writeByte(byte(sym))
		b.length--
		d.insertLen--
		d.remaining--
	}
	if d.remaining == 0 {
		d.state = stateMetablockDone
		return nil
	}
	if d.copyLen > d.remaining {
		return newError(InvalidLength, "copy length %d exceeds metablock",
			d.copyLen)
	}
	d.state = stateBlockDistance
	return nil
}

// Distance codes below 16 refer to the last distances; shortCodeIndex
// selects the last (0) to fourth last (3) distance and shortCodeDelta is
// added to it.
var (
	shortCodeIndex = [numDistanceShortCodes]uint8{
		0, 1, 2, 3, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1,
	}
	shortCodeDelta = [numDistanceShortCodes]int8{
		0, 0, 0, 0, -1, 1, -2, 2, -3, 3, -1, 1, -2, 2, -3, 3,
	}
)

type distanceReader struct {
	phase uint8
	code  int
}

// readDistance determines the distance of the current command.
func (d *Decoder) readDistance() error {
	r, br := &d.dr, &d.br
	code := 0
	if !d.implicitDistance {
		switch r.phase {
		case 0:
			b := &d.blocks[categoryDistance]
			if b.length == 0 {
				if err := d.switchBlock(categoryDistance); err != nil {
					return err
				}
			}
			t := d.distMap[distanceContext(d.copyLen)]
			sym, ok := br.readSymbol(d.groups[categoryDistance].tree(int(t)))
			if !ok {
				return errShortInput
			}
			b.length--
			r.code = sym
			if sym >= numDistanceShortCodes+d.numDirect {
				r.phase = 1
				return d.readDistance()
			}
		case 1:
			c := r.code - numDistanceShortCodes - d.numDirect
			nbits := 1 + uint(c>>(d.postfixBits+1))
			v, ok := br.readBits(nbits)
			if !ok {
				return errShortInput
			}
			r.phase = 0
			hcode := c >> d.postfixBits
			offset := (2+hcode&1)<<nbits - 4
			d.distance = (offset+int(v))<<d.postfixBits +
				c&d.postfixMask + d.numDirect + 1
			return d.pushDistance(r.code)
		}
		code = r.code
	}
	if code < numDistanceShortCodes {
		d.distance = d.dist[(d.distIdx-1-int(shortCodeIndex[code]))&3] +
			int(shortCodeDelta[code])
	} else {
		d.distance = code - numDistanceShortCodes + 1
	}
	return d.pushDistance(code)
}

// pushDistance validates the distance, stores it in the list of last
// distances unless it has been given by code 0 and prepares the copy.
func (d *Decoder) pushDistance(code int) error {
	if d.distance <= 0 || d.distance > d.win.maxDistance(d.maxBackward) {
		return newError(InvalidDistance,
			"distance %d (code %d) outside window of %d bytes",
			d.distance, code, d.win.maxDistance(d.maxBackward))
	}
	if code != 0 {
		d.dist[d.distIdx&3] = d.distance
		d.distIdx++
	}
	d.remaining -= d.copyLen
	d.state = stateBlockPost
	return nil
}

// copyMatch copies the match of the current command into the ring buffer.
func (d *Decoder) copyMatch() error {
	for d.copyLen > 0 {
		if err := d.room(); err != nil {
			return err
		}
		d.copyLen -= d.win.copyMatch(d.distance, d.copyLen)
	}
	if d.remaining == 0 {
		d.state = stateMetablockDone
	} else {
		d.state = stateBlockBegin
	}
	return nil
}
