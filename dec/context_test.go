// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

import (
	"bytes"
	"testing"
)

func TestLiteralContext(t *testing.T) {
	tests := []struct {
		mode   contextMode
		p1, p2 byte
		want   int
	}{
		{contextLSB6, 0xff, 0, 63},
		{contextLSB6, 0x41, 0, 1},
		{contextMSB6, 0xff, 0, 63},
		{contextMSB6, 0x41, 0, 16},
		{contextUTF8, ' ', 'a', 11},
		{contextUTF8, 'a', ' ', 56},
		{contextUTF8, '0', '0', 46},
		{contextUTF8, 0xc3, 0x80, 3},
		{contextSigned, 0, 0, 0},
		{contextSigned, 0xff, 0x01, 57},
		{contextSigned, 0x80, 0x7f, 35},
	}
	for _, tc := range tests {
		got := literalContext(tc.mode, tc.p1, tc.p2)
		if got != tc.want {
			t.Errorf("literalContext(%s, %#x, %#x) = %d; want %d",
				tc.mode, tc.p1, tc.p2, got, tc.want)
		}
	}
}

func TestDistanceContext(t *testing.T) {
	for l, want := range map[int]int{2: 0, 3: 1, 4: 2, 5: 3, 1000: 3} {
		if got := distanceContext(l); got != want {
			t.Errorf("distanceContext(%d) = %d; want %d", l, got, want)
		}
	}
}

func TestTrivialContexts(t *testing.T) {
	cm := make([]byte, 4*64)
	for i := 64; i < 128; i++ {
		cm[i] = byte(i & 1)
	}
	for i := 128; i < 256; i++ {
		cm[i] = 2
	}
	cm[255] = 3
	got := trivialContexts(nil, cm)
	want := []bool{true, false, true, false}
	if len(got) != len(want) {
		t.Fatalf("trivialContexts returned %d entries; want %d",
			len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trivialContexts[%d] = %t; want %t", i,
				got[i], want[i])
		}
	}
}

func TestInverseMoveToFront(t *testing.T) {
	var m moveToFront
	m.init(3)
	v := []byte{1, 0, 1, 2, 0, 2}
	if err := m.inverse(v); err != nil {
		t.Fatalf("inverse error %s", err)
	}
	want := []byte{1, 1, 0, 2, 2, 1}
	if !bytes.Equal(v, want) {
		t.Fatalf("inverse returned %v; want %v", v, want)
	}
	m.init(2)
	if err := m.inverse([]byte{2}); KindOf(err) != InvalidContextMap {
		t.Fatalf("inverse of index 2 with bound 2 returned %v", err)
	}
}
