// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/rv32i/word"
)

// executeFunc performs an instruction's side effects.
type executeFunc func(code word.Word, cpu *Cpu) (increment bool, err error)

// Instruction is a single opcode rule. A word is an instance of the
// instruction when (word & Mask) == Match.
type Instruction struct {
	Mnemonic Mnemonic
	Format   Format
	Match    word.Word
	Mask     word.Word
	Unsigned bool // Register operands compare as unsigned.

	execute executeFunc
}

// Syntax returns the human readable form of the instruction.
func (inst *Instruction) Syntax() string {
	return strings.TrimSpace(inst.Mnemonic.String() + " " + inst.Format.String())
}

// Validate checks that the word is an encoding of this instruction.
func (inst *Instruction) Validate(code word.Word) (err error) {
	if code&inst.Mask != inst.Match {
		err = ErrInvalidInstruction
	}

	return
}

// Disassemble decodes the operands of the word.
func (inst *Instruction) Disassemble(code word.Word) (dis Disassembly, err error) {
	err = inst.Validate(code)
	if err != nil {
		return
	}

	reg := OPERAND_REGISTER
	if inst.Unsigned {
		reg = OPERAND_UNSIGNED
	}

	rd := Operand{Kind: OPERAND_REGISTER, Register: int(code.Rd())}
	rs1 := Operand{Kind: reg, Register: int(code.Rs1())}
	rs2 := Operand{Kind: reg, Register: int(code.Rs2())}
	base := Operand{Kind: OPERAND_BASE, Register: int(code.Rs1())}

	var operands []Operand
	switch inst.Format {
	case FORMAT_R:
		operands = []Operand{rd, rs1, rs2}
	case FORMAT_I:
		operands = []Operand{rd, rs1, {Kind: OPERAND_IMMEDIATE, Value: code.ImmI()}}
	case FORMAT_SHIFT:
		operands = []Operand{rd, rs1, {Kind: OPERAND_IMMEDIATE, Value: code.Shamt()}}
	case FORMAT_LOAD:
		operands = []Operand{rd, {Kind: OPERAND_OFFSET, Value: code.ImmI()}, base}
	case FORMAT_S:
		operands = []Operand{rs2, {Kind: OPERAND_OFFSET, Value: code.ImmS()}, base}
	case FORMAT_B:
		operands = []Operand{rs1, rs2, {Kind: OPERAND_OFFSET, Value: code.ImmB()}}
	case FORMAT_U:
		operands = []Operand{rd, {Kind: OPERAND_IMMEDIATE, Value: code.ImmU()}}
	case FORMAT_J:
		operands = []Operand{rd, {Kind: OPERAND_OFFSET, Value: code.ImmJ()}}
	}

	dis = Disassembly{
		Mnemonic: inst.Mnemonic,
		Format:   inst.Format,
		Operands: operands,
	}

	return
}

// Execute performs the instruction on the cpu.
// If increment is true, the caller must advance the program counter by 4.
// On error, side effects already applied remain.
func (inst *Instruction) Execute(code word.Word, cpu *Cpu) (increment bool, err error) {
	err = inst.Validate(code)
	if err != nil {
		return
	}

	return inst.execute(code, cpu)
}

// Encode builds an instance of the instruction. Operands not used
// by the format are ignored.
func (inst *Instruction) Encode(rd, rs1, rs2 int, imm word.Word) (code word.Word) {
	d, s1, s2 := word.Word(rd), word.Word(rs1), word.Word(rs2)

	switch inst.Format {
	case FORMAT_R:
		code = word.EncodeR(0, 0, 0, d, s1, s2)
	case FORMAT_I, FORMAT_LOAD:
		code = word.EncodeI(0, 0, d, s1, imm)
	case FORMAT_SHIFT:
		code = word.EncodeI(0, 0, d, s1, imm&0x1f)
	case FORMAT_S:
		code = word.EncodeS(0, 0, s1, s2, imm)
	case FORMAT_B:
		code = word.EncodeB(0, 0, s1, s2, imm)
	case FORMAT_U:
		code = word.EncodeU(0, d, imm)
	case FORMAT_J:
		code = word.EncodeJ(0, d, imm)
	}

	return (code &^ inst.Mask) | inst.Match
}

// InstructionSet is an ordered, immutable registry of instructions.
type InstructionSet struct {
	instructions []*Instruction
	mnemonic     map[string]*Instruction
}

// NewInstructionSet creates the RV32I base instruction set.
func NewInstructionSet() (is *InstructionSet) {
	is = &InstructionSet{
		instructions: rv32i(),
		mnemonic:     map[string]*Instruction{},
	}

	for _, inst := range is.instructions {
		is.mnemonic[inst.Mnemonic.String()] = inst
	}

	return
}

// Decode returns the first instruction that validates the word.
func (is *InstructionSet) Decode(code word.Word) (inst *Instruction, err error) {
	for _, inst = range is.instructions {
		if inst.Validate(code) == nil {
			return
		}
	}

	inst = nil
	err = ErrInvalidInstruction
	return
}

// Disassemble decodes a word for display. It has no side effects.
func (is *InstructionSet) Disassemble(code word.Word) (dis Disassembly, err error) {
	inst, err := is.Decode(code)
	if err != nil {
		return
	}

	return inst.Disassemble(code)
}

// Lookup finds an instruction by its mnemonic.
func (is *InstructionSet) Lookup(mnemonic string) (inst *Instruction, ok bool) {
	inst, ok = is.mnemonic[mnemonic]
	return
}

// Instructions iterates over the registry, in decode order.
func (is *InstructionSet) Instructions() iter.Seq[*Instruction] {
	return slices.Values(is.instructions)
}
