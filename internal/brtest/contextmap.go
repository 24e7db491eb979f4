// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package brtest

// moveToFront applies the move-to-front transform to the values.
func moveToFront(values []byte) []byte {
	var list [256]byte
	for i := range list {
		list[i] = byte(i)
	}
	out := make([]byte, len(values))
	for i, v := range values {
		k := 0
		for list[k] != v {
			k++
		}
		out[i] = byte(k)
		copy(list[1:k+1], list[:k])
		list[0] = v
	}
	return out
}

// cmSymbol is a symbol of the context map code with its extra bits.
type cmSymbol struct {
	sym   int
	nbits uint
	extra uint64
}

// writeContextMap writes a context map referencing numTrees trees. If rle is
// set runs of zeros are encoded with run length codes; if mtf is set the
// values are move-to-front transformed.
func writeContextMap(w *BitWriter, m []byte, numTrees int, rle, mtf bool) {
	writeVarLen(w, numTrees-1)
	if numTrees < 2 {
		return
	}
	values := m
	if mtf {
		values = moveToFront(m)
	}

	maxPrefix := 0
	if rle {
		for i := 0; i < len(values); {
			if values[i] != 0 {
				i++
				continue
			}
			run := 0
			for i < len(values) && values[i] == 0 {
				run++
				i++
			}
			if p := bitLen(run) - 1; p > maxPrefix {
				maxPrefix = p
			}
		}
		if maxPrefix > 16 {
			maxPrefix = 16
		}
	}

	var syms []cmSymbol
	for i := 0; i < len(values); {
		v := values[i]
		if v != 0 || maxPrefix == 0 {
			s := 0
			if v != 0 {
				s = int(v) + maxPrefix
			}
			syms = append(syms, cmSymbol{sym: s})
			i++
			continue
		}
		run := 0
		for i < len(values) && values[i] == 0 {
			run++
			i++
		}
		for run > 0 {
			if run == 1 {
				syms = append(syms, cmSymbol{sym: 0})
				break
			}
			p := bitLen(run) - 1
			if p > maxPrefix {
				p = maxPrefix
			}
			n := run
			if max := 2<<p - 1; n > max {
				n = max
			}
			syms = append(syms, cmSymbol{sym: p, nbits: uint(p),
				extra: uint64(n - 1<<p)})
			run -= n
		}
	}

	code := newPrefixCode(numTrees + maxPrefix)
	for _, s := range syms {
		code.add(s.sym)
	}
	code.build()

	if maxPrefix > 0 {
		w.WriteBits(1, 1)
		w.WriteBits(4, uint64(maxPrefix-1))
	} else {
		w.WriteBits(1, 0)
	}
	code.writeTo(w)
	for _, s := range syms {
		code.writeSymbol(w, s.sym)
		w.WriteBits(s.nbits, s.extra)
	}
	if mtf {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(1, 0)
	}
}
