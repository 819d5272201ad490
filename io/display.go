// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"io"
	"iter"
	"maps"
	"strings"

	"github.com/ezrec/rv32i/word"
)

const (
	DISPLAY_COLUMNS = 80
	DISPLAY_ROWS    = 25
)

// Display is a text mode frame buffer of Columns x Rows bytes, row major.
// Every Refresh ticks, a changed frame is rendered to Output.
type Display struct {
	Base    word.Word // Address of the first cell.
	Columns int
	Rows    int
	Refresh int       // Ticks between renders. Zero disables rendering.
	Output  io.Writer // Destination of rendered frames.
	Frames  int       // Number of frames rendered.

	cells []byte
	ticks int
	dirty bool
}

var _ Device = (*Display)(nil)

// NewDisplay creates a blank display.
func NewDisplay(base word.Word, columns, rows int) (disp *Display) {
	disp = &Display{
		Base:    base,
		Columns: columns,
		Rows:    rows,
		cells:   make([]byte, columns*rows),
	}

	disp.Clear()

	return
}

// Defines returns an iter of defines for the device.
func (disp *Display) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"DISPLAY_BASE":    f("%#x", uint32(disp.Base)),
		"DISPLAY_COLUMNS": f("%v", disp.Columns),
		"DISPLAY_ROWS":    f("%v", disp.Rows),
	})
}

// Range returns the memory range covered by the display.
func (disp *Display) Range() MemoryRange {
	return NewMemoryRange(disp.Base, word.Word(len(disp.cells)))
}

// Name of the device.
func (disp *Display) Name() string {
	return "Display"
}

// Clear fills the display with spaces.
func (disp *Display) Clear() {
	for n := range disp.cells {
		disp.cells[n] = ' '
	}
	disp.dirty = true
}

func (disp *Display) offset(address word.Word) (n int, ok bool) {
	if address < disp.Base {
		return
	}

	n = int(address - disp.Base)
	ok = n < len(disp.cells)
	return
}

// Read returns the character at address.
func (disp *Display) Read(address word.Word) word.Word {
	n, ok := disp.offset(address)
	if !ok {
		return 0
	}

	return word.Word(disp.cells[n])
}

// Write stores the character at address.
func (disp *Display) Write(address word.Word, value word.Word) {
	n, ok := disp.offset(address)
	if !ok {
		return
	}

	if disp.cells[n] != byte(value) {
		disp.cells[n] = byte(value)
		disp.dirty = true
	}
}

// Frame returns the display contents, one line per row.
// Non-printable characters are shown as spaces, and trailing spaces are trimmed.
func (disp *Display) Frame() string {
	var sb strings.Builder

	for row := range disp.Rows {
		line := make([]byte, disp.Columns)
		for col := range disp.Columns {
			c := disp.cells[row*disp.Columns+col]
			if c < 0x20 || c > 0x7e {
				c = ' '
			}
			line[col] = c
		}
		sb.WriteString(strings.TrimRight(string(line), " "))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// Tick counts executed instructions, rendering the frame when it is due.
func (disp *Display) Tick() {
	disp.ticks++

	if disp.Refresh <= 0 || disp.Output == nil {
		return
	}

	if disp.ticks%disp.Refresh != 0 || !disp.dirty {
		return
	}

	io.WriteString(disp.Output, disp.Frame())
	disp.Frames++
	disp.dirty = false
}
