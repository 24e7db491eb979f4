// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package dec

// treeGroup stores the Huffman tables of a category. All tables share the
// codes slice; offsets gives the start of every table.
type treeGroup struct {
	alphabetSize int
	numTrees     int
	codes        []huffmanCode
	offsets      []int
}

// init prepares the group for a new metablock keeping the allocated
// storage.
func (g *treeGroup) init(alphabetSize, numTrees int) {
	g.alphabetSize = alphabetSize
	g.numTrees = numTrees
	g.codes = g.codes[:0]
	g.offsets = g.offsets[:0]
}

// tree returns the table for tree i.
func (g *treeGroup) tree(i int) []huffmanCode {
	return g.codes[g.offsets[i]:]
}

// readTreeGroup reads the missing trees of the group.
func (d *Decoder) readTreeGroup(g *treeGroup) error {
	for len(g.offsets) < g.numTrees {
		off := len(g.codes)
		codes, err := d.code.read(&d.br, g.alphabetSize, g.codes)
		if err != nil {
			return err
		}
		g.codes = codes
		g.offsets = append(g.offsets, off)
	}
	return nil
}

// readTreeGroups reads the literal, command and distance tree groups and
// selects the tables for the first blocks.
func (d *Decoder) readTreeGroups() error {
	for d.loopCounter < numCategories {
		if err := d.readTreeGroup(&d.groups[d.loopCounter]); err != nil {
			return err
		}
		d.loopCounter++
	}
	d.selectLiteralBlock()
	d.selectCommandBlock()
	d.selectDistanceBlock()
	d.state = stateBlockBegin
	return nil
}
