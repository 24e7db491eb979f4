// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

type contextMapPhase uint8

const (
	cmNone contextMapPhase = iota
	cmRLEFlag
	cmRLEMax
	cmCode
	cmValues
	cmRunLength
	cmTransform
)

// contextMapReader keeps the progress of reading a context map.
type contextMapReader struct {
	phase    contextMapPhase
	numTrees int
	// maxRunPrefix is the largest symbol encoding a run of zeros.
	maxRunPrefix int
	table        []huffmanCode
	index        int
	runCode      int
}

// readContextMap reads a context map with size entries. The storage of cm
// is reused. On errShortInput the returned map must be passed again.
func (d *Decoder) readContextMap(size int, cm []byte) (m []byte, numTrees int, err error) {
	r, br := &d.cm, &d.br
	for {
		switch r.phase {
		case cmNone:
			n, err := d.varLen.read(br)
			if err != nil {
				return cm, 0, err
			}
			r.numTrees = n + 1
			if cap(cm) >= size {
				cm = cm[:size]
				clear(cm)
			} else {
				cm = make([]byte, size)
			}
			if r.numTrees < 2 {
				return cm, 1, nil
			}
			r.phase = cmRLEFlag
		case cmRLEFlag:
			v, ok := br.readBits(1)
			if !ok {
				return cm, 0, errShortInput
			}
			if v == 0 {
				r.maxRunPrefix = 0
				r.phase = cmCode
			} else {
				r.phase = cmRLEMax
			}
		case cmRLEMax:
			v, ok := br.readBits(4)
			if !ok {
				return cm, 0, errShortInput
			}
			r.maxRunPrefix = int(v) + 1
			r.phase = cmCode
		case cmCode:
			t, err := d.code.read(br, r.numTrees+r.maxRunPrefix,
				r.table[:0])
			if err != nil {
				if err != errShortInput {
					r.phase = cmNone
				}
				return cm, 0, err
			}
			r.table = t
			r.index = 0
			r.phase = cmValues
		case cmValues:
			for r.index < size {
				sym, ok := br.readSymbol(r.table)
				if !ok {
					return cm, 0, errShortInput
				}
				switch {
				case sym == 0:
					cm[r.index] = 0
					r.index++
				case sym > r.maxRunPrefix:
					cm[r.index] = byte(sym - r.maxRunPrefix)
					r.index++
				default:
					r.runCode = sym
					r.phase = cmRunLength
				}
				if r.phase == cmRunLength {
					break
				}
			}
			if r.phase != cmRunLength {
				r.phase = cmTransform
			}
		case cmRunLength:
			v, ok := br.readBits(uint(r.runCode))
			if !ok {
				return cm, 0, errShortInput
			}
			reps := 1<<r.runCode + int(v)
			if r.index+reps > size {
				r.phase = cmNone
				return cm, 0, newError(InvalidContextMap,
					"run of %d zeros exceeds context map", reps)
			}
			clear(cm[r.index : r.index+reps])
			r.index += reps
			r.phase = cmValues
		case cmTransform:
			v, ok := br.readBits(1)
			if !ok {
				return cm, 0, errShortInput
			}
			r.phase = cmNone
			if v == 1 {
				d.mtf.init(r.numTrees)
				if err := d.mtf.inverse(cm); err != nil {
					return cm, 0, err
				}
			}
			return cm, r.numTrees, nil
		}
	}
}

// readContextMaps reads the literal and the distance context map.
func (d *Decoder) readContextMaps() error {
	var err error
	switch d.state {
	case stateContextMap1:
		size := d.blocks[categoryLiteral].numTypes << literalContextBits
		d.contextMap, d.numLiteralTrees, err = d.readContextMap(size,
			d.contextMap)
		if err != nil {
			return err
		}
		d.trivial = trivialContexts(d.trivial, d.contextMap)
		d.state = stateContextMap2
		fallthrough
	case stateContextMap2:
		size := d.blocks[categoryDistance].numTypes << distanceContextBits
		d.distContextMap, d.numDistTrees, err = d.readContextMap(size,
			d.distContextMap)
		if err != nil {
			return err
		}
	}
	debugf(d, "literal trees %d, distance trees %d, postfix bits %d, direct codes %d",
		d.numLiteralTrees, d.numDistTrees, d.postfixBits, d.numDirect)
	d.groups[categoryLiteral].init(numLiteralSymbols, d.numLiteralTrees)
	d.groups[categoryCommand].init(numCommandSymbols,
		d.blocks[categoryCommand].numTypes)
	d.groups[categoryDistance].init(
		numDistanceShortCodes+d.numDirect+48<<d.postfixBits,
		d.numDistTrees)
	d.loopCounter = 0
	d.state = stateTreeGroup
	return nil
}
