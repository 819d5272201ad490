package io

import (
	"io"
	"iter"
	"maps"

	"github.com/ezrec/rv32i/word"
)

const (
	TAPE_DATA   = 0x0  // Read: next input byte. Write: output byte.
	TAPE_STATUS = 0x1  // Read: TAPE_STATUS_* bits.
	TAPE_SIZE   = 0x10 // Address space decoded by the tape.

	TAPE_STATUS_INPUT  = 1 << 0 // An input byte is available.
	TAPE_STATUS_OUTPUT = 1 << 1 // Output is connected.
)

// Tape provides a byte stream console.
// It wraps an io.Reader for input and io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	hasInput  bool
	lastInput byte
	eof       bool
}

var _ Device = (*Tape)(nil)

// Defines returns an iter of defines for the device.
func (tc *Tape) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"TAPE_DATA":          f("%#x", TAPE_DATA),
		"TAPE_STATUS":        f("%#x", TAPE_STATUS),
		"TAPE_STATUS_INPUT":  f("%#x", TAPE_STATUS_INPUT),
		"TAPE_STATUS_OUTPUT": f("%#x", TAPE_STATUS_OUTPUT),
	})
}

// Name of the device.
func (tc *Tape) Name() string {
	return "Tape"
}

// Rewind drops any buffered input, and clears end of input.
func (tc *Tape) Rewind() {
	tc.hasInput = false
	tc.eof = false
}

func (tc *Tape) fill() {
	if tc.hasInput || tc.eof || tc.Input == nil {
		return
	}

	var one [1]byte
	n, err := tc.Input.Read(one[:])
	if n == 1 {
		tc.lastInput = one[0]
		tc.hasInput = true
		return
	}
	if err != nil {
		tc.eof = true
	}
}

// Read returns the next input byte from TAPE_DATA, or the status from TAPE_STATUS.
// Reading TAPE_DATA with no input available returns zero.
func (tc *Tape) Read(address word.Word) (value word.Word) {
	tc.fill()

	switch address & (TAPE_SIZE - 1) {
	case TAPE_DATA:
		if tc.hasInput {
			value = word.Word(tc.lastInput)
			tc.hasInput = false
		}
	case TAPE_STATUS:
		if tc.hasInput {
			value |= TAPE_STATUS_INPUT
		}
		if tc.Output != nil {
			value |= TAPE_STATUS_OUTPUT
		}
	}

	return
}

// Write sends the low byte of value to the output, if written to TAPE_DATA.
func (tc *Tape) Write(address word.Word, value word.Word) {
	if address&(TAPE_SIZE-1) != TAPE_DATA || tc.Output == nil {
		return
	}

	tc.Output.Write([]byte{byte(value)})
}

// Tick does nothing.
func (tc *Tape) Tick() {
}
