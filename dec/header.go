// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// readWindowBits decodes the window size at the start of the stream.
func (d *Decoder) readWindowBits() error {
	v, ok := d.br.peek(7)
	if !ok {
		return errShortInput
	}
	var wbits int
	switch {
	case v&1 == 0:
		wbits = 16
		d.br.drop(1)
	case (v>>1)&7 != 0:
		wbits = 17 + int((v>>1)&7)
		d.br.drop(4)
	default:
		m := int((v >> 4) & 7)
		if m == 1 {
			return newError(InvalidWindowBits,
				"large window streams are not supported")
		}
		wbits = 17
		if m != 0 {
			wbits = 8 + m
		}
		d.br.drop(7)
	}
	d.windowBits = wbits
	d.maxBackward = 1<<wbits - 16
	debugf(d, "window bits %d, max backward distance %d", wbits,
		d.maxBackward)
	return nil
}

// varLenReader reads the variable length encoded numbers 0..255 used for
// the number of block types and trees.
type varLenReader struct {
	phase uint8
	n     uint
}

func (r *varLenReader) read(br *bitReader) (v int, err error) {
	for {
		switch r.phase {
		case 0:
			b, ok := br.readBits(1)
			if !ok {
				return 0, errShortInput
			}
			if b == 0 {
				return 0, nil
			}
			r.phase = 1
		case 1:
			n, ok := br.readBits(3)
			if !ok {
				return 0, errShortInput
			}
			if n == 0 {
				r.phase = 0
				return 1, nil
			}
			r.n = uint(n)
			r.phase = 2
		case 2:
			e, ok := br.readBits(r.n)
			if !ok {
				return 0, errShortInput
			}
			r.phase = 0
			return 1<<r.n + int(e), nil
		}
	}
}

// headerPhase is the state of the metablock header reader.
type headerPhase uint8

const (
	hdrNone headerPhase = iota
	hdrEmpty
	hdrNibbles
	hdrSize
	hdrUncompressed
	hdrReserved
	hdrSkipBytes
	hdrSkipLength
)

type headerReader struct {
	phase headerPhase
	// number of nibbles or bytes of the length field
	n     int
	index int
}

// readMetablockHeader reads the metablock header up to the flag for
// uncompressed metablocks or up to the metadata length.
func (d *Decoder) readMetablockHeader() error {
	r, br := &d.hdr, &d.br
	for {
		switch r.phase {
		case hdrNone:
			v, ok := br.readBits(1)
			if !ok {
				return errShortInput
			}
			d.isLast = v == 1
			d.remaining = 0
			d.isUncompressed = false
			d.isMetadata = false
			if d.isLast {
				r.phase = hdrEmpty
			} else {
				r.phase = hdrNibbles
			}
		case hdrEmpty:
			v, ok := br.readBits(1)
			if !ok {
				return errShortInput
			}
			if v == 1 {
				r.phase = hdrNone
				return nil
			}
			r.phase = hdrNibbles
		case hdrNibbles:
			v, ok := br.readBits(2)
			if !ok {
				return errShortInput
			}
			if v == 3 {
				d.isMetadata = true
				r.phase = hdrReserved
				continue
			}
			r.n = int(v) + 4
			r.index = 0
			r.phase = hdrSize
		case hdrSize:
			for r.index < r.n {
				v, ok := br.readBits(4)
				if !ok {
					return errShortInput
				}
				if r.index+1 == r.n && r.n > 4 && v == 0 {
					r.phase = hdrNone
					return newError(InvalidLength,
						"exuberant nibble in metablock length")
				}
				d.remaining |= int(v) << (4 * r.index)
				r.index++
			}
			d.remaining++
			if d.isLast {
				r.phase = hdrNone
				return nil
			}
			r.phase = hdrUncompressed
		case hdrUncompressed:
			v, ok := br.readBits(1)
			if !ok {
				return errShortInput
			}
			d.isUncompressed = v == 1
			r.phase = hdrNone
			return nil
		case hdrReserved:
			v, ok := br.readBits(1)
			if !ok {
				return errShortInput
			}
			if v != 0 {
				r.phase = hdrNone
				return newError(InvalidFormat, "reserved bit set")
			}
			r.phase = hdrSkipBytes
		case hdrSkipBytes:
			v, ok := br.readBits(2)
			if !ok {
				return errShortInput
			}
			if v == 0 {
				r.phase = hdrNone
				return nil
			}
			r.n = int(v)
			r.index = 0
			r.phase = hdrSkipLength
		case hdrSkipLength:
			for r.index < r.n {
				v, ok := br.readBits(8)
				if !ok {
					return errShortInput
				}
				if r.index+1 == r.n && r.n > 1 && v == 0 {
					r.phase = hdrNone
					return newError(InvalidLength,
						"exuberant byte in metadata length")
				}
				d.remaining |= int(v) << (8 * r.index)
				r.index++
			}
			d.remaining++
			r.phase = hdrNone
			return nil
		}
	}
}

// startMetablock dispatches on the metablock header just read.
func (d *Decoder) startMetablock() error {
	debugf(d, "metablock: length %d, last %t, uncompressed %t, metadata %t",
		d.remaining, d.isLast, d.isUncompressed, d.isMetadata)
	if d.isMetadata || d.isUncompressed {
		if d.br.alignToByte() != 0 {
			return newError(InvalidFormat, "non-zero padding bits")
		}
		if d.isMetadata {
			d.state = stateMetadata
			return nil
		}
	}
	if d.remaining == 0 {
		d.state = stateMetablockDone
		return nil
	}
	d.allocWindow()
	if d.isUncompressed {
		d.state = stateUncompressed
		return nil
	}
	d.loopCounter = 0
	d.state = stateHuffmanCode0
	return nil
}

// allocWindow allocates the ring buffer before the first metablock that
// produces output. If this metablock is also the last one, the ring buffer
// is reduced to the size it requires.
func (d *Decoder) allocWindow() {
	if d.win.allocated() {
		return
	}
	size := 1 << d.windowBits
	dict := d.dict
	if len(dict) > d.maxBackward {
		dict = dict[len(dict)-d.maxBackward:]
	}
	if d.isLast {
		need := d.remaining + len(dict)
		for size > minWindowSize && size>>1 >= need {
			size >>= 1
		}
	}
	d.win.init(size, dict)
	debugf(d, "ring buffer size %d, dictionary length %d", size, len(dict))
}

// readMetadata skips the metadata payload, handing it to the metadata
// handler if one is set.
func (d *Decoder) readMetadata() error {
	for d.remaining > 0 {
		if d.br.bufferedBytes() > 0 {
			c := d.br.readByte()
			if d.metadata != nil {
				d.metadata([]byte{c})
			}
			d.remaining--
			continue
		}
		p := d.br.remaining()
		if len(p) == 0 {
			return errShortInput
		}
		if len(p) > d.remaining {
			p = p[:d.remaining]
		}
		if d.metadata != nil {
			d.metadata(p)
		}
		d.br.skip(len(p))
		d.remaining -= len(p)
	}
	d.state = stateMetablockDone
	return nil
}

// readUncompressed copies the payload of an uncompressed metablock into the
// ring buffer.
func (d *Decoder) readUncompressed() error {
	for d.remaining > 0 {
		if err := d.room(); err != nil {
			return err
		}
		if d.br.bufferedBytes() > 0 {
			d.win.writeByte(d.br.readByte())
			d.remaining--
			continue
		}
		p := d.br.remaining()
		if len(p) == 0 {
			return errShortInput
		}
		if len(p) > d.remaining {
			p = p[:d.remaining]
		}
		n := d.win.write(p)
		d.br.skip(n)
		d.remaining -= n
	}
	d.state = stateMetablockDone
	return nil
}

// readDistanceParams reads NPOSTFIX and NDIRECT.
func (d *Decoder) readDistanceParams() error {
	v, ok := d.br.readBits(6)
	if !ok {
		return errShortInput
	}
	d.postfixBits = uint(v & 3)
	d.postfixMask = 1<<d.postfixBits - 1
	d.numDirect = int(v>>2) << d.postfixBits
	if cap(d.contextModes) >= d.blocks[categoryLiteral].numTypes {
		d.contextModes = d.contextModes[:0]
	} else {
		d.contextModes = make([]contextMode, 0,
			d.blocks[categoryLiteral].numTypes)
	}
	d.state = stateContextModes
	return nil
}

// readContextModes reads the context mode of every literal block type.
func (d *Decoder) readContextModes() error {
	for len(d.contextModes) < d.blocks[categoryLiteral].numTypes {
		v, ok := d.br.readBits(2)
		if !ok {
			return errShortInput
		}
		d.contextModes = append(d.contextModes, contextMode(v))
	}
	d.state = stateContextMap1
	return nil
}
