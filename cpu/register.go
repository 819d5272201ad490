// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"strings"

	"github.com/ezrec/rv32i/internal"
	"github.com/ezrec/rv32i/word"
)

const (
	GPR_COUNT = 32 // Number of general purpose registers.
	PC_INDEX  = -1 // Index reported for the program counter.
)

// ABI names of the general purpose registers, after their xN name.
var _gpr_aliases = [GPR_COUNT][]string{
	{"zero"}, {"ra"}, {"sp"}, {"gp"}, {"tp"}, {"t0"}, {"t1"}, {"t2"},
	{"s0", "fp"}, {"s1"}, {"a0"}, {"a1"}, {"a2"}, {"a3"}, {"a4"}, {"a5"},
	{"a6"}, {"a7"}, {"s2"}, {"s3"}, {"s4"}, {"s5"}, {"s6"}, {"s7"},
	{"s8"}, {"s9"}, {"s10"}, {"s11"}, {"t3"}, {"t4"}, {"t5"}, {"t6"},
}

// Register is a named 32-bit cell.
type Register struct {
	Index   int      // GPR index, or PC_INDEX.
	Aliases []string // Names, canonical name first.

	value word.Word
}

// Name returns the canonical name of the register.
func (reg *Register) Name() string {
	return reg.Aliases[0]
}

// Value returns the register contents. Register x0 is always zero.
func (reg *Register) Value() word.Word {
	return reg.value
}

// Set the register contents. Writes to register x0 are discarded.
func (reg *Register) Set(value word.Word) {
	if reg.Index == 0 {
		return
	}

	reg.value = value
}

// RegisterFile holds the program counter and the general purpose registers.
type RegisterFile struct {
	pc  Register
	gpr [GPR_COUNT]Register

	alias map[string]*Register
}

// NewRegisterFile creates a zeroed register file.
func NewRegisterFile() (rf *RegisterFile) {
	rf = &RegisterFile{
		pc:    Register{Index: PC_INDEX, Aliases: []string{"pc"}},
		alias: map[string]*Register{},
	}

	rf.alias["pc"] = &rf.pc

	for n := range rf.gpr {
		reg := &rf.gpr[n]
		reg.Index = n
		reg.Aliases = append([]string{fmt.Sprintf("x%d", n)}, _gpr_aliases[n]...)
		for _, name := range reg.Aliases {
			rf.alias[name] = reg
		}
	}

	return
}

// Reset zeroes all registers, including the program counter.
func (rf *RegisterFile) Reset() {
	rf.pc.value = 0
	for n := range rf.gpr {
		rf.gpr[n].value = 0
	}
}

// GetGpr returns the general purpose register at index.
func (rf *RegisterFile) GetGpr(index int) (reg *Register, err error) {
	if index < 0 || index >= GPR_COUNT {
		err = ErrInvalidRegister
		return
	}

	reg = &rf.gpr[index]
	return
}

// Get returns the register with the alias name.
func (rf *RegisterFile) Get(name string) (reg *Register, err error) {
	reg, ok := rf.alias[name]
	if !ok {
		err = ErrInvalidRegister
		return
	}

	return
}

// ReadGpr reads the general purpose register at index.
func (rf *RegisterFile) ReadGpr(index int) (value word.Word, err error) {
	reg, err := rf.GetGpr(index)
	if err != nil {
		return
	}

	value = reg.Value()
	return
}

// WriteGpr writes the general purpose register at index.
func (rf *RegisterFile) WriteGpr(index int, value word.Word) (err error) {
	reg, err := rf.GetGpr(index)
	if err != nil {
		return
	}

	reg.Set(value)
	return
}

// Read reads the register with the alias name.
func (rf *RegisterFile) Read(name string) (value word.Word, err error) {
	reg, err := rf.Get(name)
	if err != nil {
		return
	}

	value = reg.Value()
	return
}

// Write writes the register with the alias name.
func (rf *RegisterFile) Write(name string, value word.Word) (err error) {
	reg, err := rf.Get(name)
	if err != nil {
		return
	}

	reg.Set(value)
	return
}

// Pc returns the program counter.
func (rf *RegisterFile) Pc() word.Word {
	return rf.pc.value
}

// SetPc sets the program counter.
func (rf *RegisterFile) SetPc(value word.Word) {
	rf.pc.value = value
}

// Registers iterates over all registers, program counter first.
func (rf *RegisterFile) Registers() iter.Seq[*Register] {
	pc := func(yield func(*Register) bool) {
		yield(&rf.pc)
	}
	gprs := func(yield func(*Register) bool) {
		for n := range rf.gpr {
			if !yield(&rf.gpr[n]) {
				return
			}
		}
	}

	return internal.IterSeqConcat(pc, gprs)
}

// Aliases iterates over every alias and the index of its register,
// in register order.
func (rf *RegisterFile) Aliases() iter.Seq2[string, int] {
	return func(yield func(name string, index int) bool) {
		for reg := range rf.Registers() {
			for _, name := range reg.Aliases {
				if !yield(name, reg.Index) {
					return
				}
			}
		}
	}
}

// Snapshot is a copy of the register file contents.
type Snapshot struct {
	Pc  word.Word
	Gpr [GPR_COUNT]word.Word
}

// Snapshot copies the register values.
func (rf *RegisterFile) Snapshot() (snap Snapshot) {
	snap.Pc = rf.pc.value
	for n := range rf.gpr {
		snap.Gpr[n] = rf.gpr[n].value
	}

	return
}

// Diff returns the canonical names of the registers that differ in other.
func (snap Snapshot) Diff(other Snapshot) (names []string) {
	if snap.Pc != other.Pc {
		names = append(names, "pc")
	}

	for n := range snap.Gpr {
		if snap.Gpr[n] != other.Gpr[n] {
			names = append(names, fmt.Sprintf("x%d", n))
		}
	}

	return
}

// String returns the register table, four registers per line.
func (rf *RegisterFile) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%8s: %04X_%04X\n", "pc", uint32(rf.pc.value>>16), uint32(rf.pc.value&0xffff))
	for n := range rf.gpr {
		reg := &rf.gpr[n]
		name := reg.Aliases[0] + "/" + reg.Aliases[1]
		fmt.Fprintf(&sb, "%8s: %04X_%04X", name, uint32(reg.value>>16), uint32(reg.value&0xffff))
		if n%4 == 3 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}

	text = sb.String()
	return
}
