package cpu

import (
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/rv32i/word"
)

// linkFunc encodes an opcode at address once its label's target is known.
type linkFunc func(address, target word.Word) (codes []word.Word, err error)

// Opcode represents a line of assembled code with its source location and
// generated instructions or data.
type Opcode struct {
	LineNo    int
	Address   word.Word
	Words     []string
	Codes     []word.Word // Instruction (or .word) values.
	Data      []byte      // Raw data, if no Codes.
	LinkLabel string

	link linkFunc
}

// Size returns the number of bytes in the opcode.
func (op *Opcode) Size() int {
	return len(op.Codes)*4 + len(op.Data)
}

// Bytes returns the opcode's little-endian image.
func (op *Opcode) Bytes() (data []byte) {
	for _, code := range op.Codes {
		le := code.LeBytes()
		data = append(data, le[:]...)
	}

	return append(data, op.Data...)
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates an address in the program listing.
type Debug struct {
	*Opcode
	Index int // Byte offset into the opcode.
}

// Debug returns the opcode containing the address. If none, Debug.Opcode is nil.
func (prog *Program) Debug(address word.Word) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if address >= op.Address && uint64(address) < uint64(op.Address)+uint64(op.Size()) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address - op.Address),
			}
			break
		}
	}

	return
}

// LineNo returns the source line of the address, or 0 if unknown.
func (prog *Program) LineNo(address word.Word) int {
	dbg := prog.Debug(address)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Binary returns the flat image of the program, starting at address 0.
func (prog *Program) Binary() (bin []byte) {
	for _, op := range prog.Opcodes {
		data := op.Bytes()
		end := int(op.Address) + len(data)
		if end > len(bin) {
			bin = slices.Grow(bin, end-len(bin))[:end]
		}
		copy(bin[op.Address:], data)
	}

	return
}

// Directive returns true if the opcode was generated by a data directive.
func (op *Opcode) Directive() bool {
	return len(op.Words) > 0 && strings.HasPrefix(op.Words[0], ".")
}

// Codes iterates over every instruction, by address. Data is skipped.
func (prog *Program) Codes() iter.Seq2[word.Word, word.Word] {
	return func(yield func(address word.Word, code word.Word) bool) {
		for _, op := range prog.Opcodes {
			if op.Directive() {
				continue
			}
			for n, code := range op.Codes {
				if !yield(op.Address+word.Word(n*4), code) {
					return
				}
			}
		}
	}
}
