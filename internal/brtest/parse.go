// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package brtest

import (
	"errors"
	"slices"

	"github.com/ulikunitz/lz"
)

// Parse converts data into LZ77 blocks whose distances don't exceed
// windowSize.
func Parse(data []byte, windowSize int) ([]lz.Block, error) {
	if windowSize < 1 {
		return nil, errors.New("brtest: window size must be positive")
	}
	var cfg lz.SeqConfig = &lz.DHSConfig{WindowSize: windowSize}
	cfg.SetDefaults()
	bc := cfg.BufConfig()
	bc.WindowSize = windowSize
	bc.ShrinkSize = windowSize
	bc.BufferSize = max(2*windowSize, 256<<10, len(data))
	cfg.SetBufConfig(bc)
	seq, err := cfg.NewSequencer()
	if err != nil {
		return nil, err
	}
	if err = seq.Reset(data); err != nil {
		return nil, err
	}
	var (
		blocks []lz.Block
		blk    lz.Block
	)
	for {
		blk.Sequences = blk.Sequences[:0]
		blk.Literals = blk.Literals[:0]
		_, err = seq.Sequence(&blk, 0)
		if err != nil {
			if err == lz.ErrEmptyBuffer {
				break
			}
			return nil, err
		}
		if len(blk.Sequences) == 0 && len(blk.Literals) == 0 {
			continue
		}
		blocks = append(blocks, lz.Block{
			Sequences: slices.Clone(blk.Sequences),
			Literals:  slices.Clone(blk.Literals),
		})
	}
	return blocks, nil
}

// Encode compresses data into a brotli stream. Every LZ77 block becomes a
// compressed metablock using opts.
func Encode(data []byte, windowBits int, dict []byte, opts *Options) ([]byte, error) {
	w, err := NewWriter(windowBits, dict)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return w.Close(), nil
	}
	// matches don't reach into the dictionary
	blocks, err := Parse(data, w.maxBackward)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		if err = w.Compressed(&blocks[i], opts,
			i == len(blocks)-1); err != nil {
			return nil, err
		}
	}
	return w.Close(), nil
}
