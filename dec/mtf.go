// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// moveToFront holds the symbol list for the inverse move-to-front transform
// of context maps. Only the first upperBound entries are ever referenced.
type moveToFront struct {
	list       [256]byte
	upperBound int
}

// init sets the list to the identity for the first n entries.
func (m *moveToFront) init(n int) {
	m.upperBound = n
	for i := 0; i < n; i++ {
		m.list[i] = byte(i)
	}
}

// inverse replaces every index in v by the symbol at that index of the list
// and moves the symbol to the front of the list.
func (m *moveToFront) inverse(v []byte) error {
	for i, idx := range v {
		if int(idx) >= m.upperBound {
			return newError(InvalidContextMap,
				"move-to-front index %d out of range", idx)
		}
		c := m.list[idx]
		copy(m.list[1:idx+1], m.list[:idx])
		m.list[0] = c
		v[i] = c
	}
	return nil
}
