// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package corpus

import (
	"testing"
	"testing/fstest"
)

func TestFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.txt":     {Data: []byte("alpha")},
		"dir/b.txt": {Data: []byte("beta beta")},
	}
	files, err := Files(fsys)
	if err != nil {
		t.Fatalf("Files error %s", err)
	}
	if len(files) != 2 {
		t.Fatalf("Files returned %d files; want %d", len(files), 2)
	}
	if n := Size(files); n != 14 {
		t.Fatalf("Size returned %d; want %d", n, 14)
	}
	streams, err := Encode(files, 16, nil)
	if err != nil {
		t.Fatalf("Encode error %s", err)
	}
	for _, s := range streams {
		if len(s.Compressed) == 0 {
			t.Fatalf("%s: empty stream", s.Name)
		}
	}
}
