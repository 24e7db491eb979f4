// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

// Package corpus loads test corpora and encodes them into brotli streams
// for round trip tests.
package corpus

import (
	"io/fs"

	"github.com/J-j-4/brotli/internal/brtest"
)

// File is a corpus file.
type File struct {
	Name string
	Data []byte
}

// Files reads all regular files of the corpus.
func Files(corpus fs.FS) (files []File, err error) {
	err = fs.WalkDir(corpus, ".",
		func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			data, err := fs.ReadFile(corpus, path)
			if err != nil {
				return err
			}
			files = append(files, File{Name: path, Data: data})
			return nil
		})
	return files, err
}

// Size returns the total size of the files.
func Size(files []File) int64 {
	n := int64(0)
	for _, f := range files {
		n += int64(len(f.Data))
	}
	return n
}

// Stream is a corpus file together with its brotli encoding.
type Stream struct {
	File
	Compressed []byte
}

// Encode encodes every file using the given window bits and metablock
// options.
func Encode(files []File, windowBits int, opts *brtest.Options) (streams []Stream, err error) {
	for _, f := range files {
		z, err := brtest.Encode(f.Data, windowBits, nil, opts)
		if err != nil {
			return streams, err
		}
		streams = append(streams, Stream{File: f, Compressed: z})
	}
	return streams, nil
}
