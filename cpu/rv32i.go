// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"github.com/ezrec/rv32i/word"
)

// Match masks for each encoding format.
const (
	MASK_R      = word.MASK_OPCODE | word.MASK_FUNCT3 | word.MASK_FUNCT7
	MASK_I      = word.MASK_OPCODE | word.MASK_FUNCT3
	MASK_U      = word.MASK_OPCODE
	MASK_SYSTEM = word.MASK_OPCODE | word.MASK_FUNCT3 | word.MASK_IMM_I
)

const (
	FUNCT7_BASE = word.Word(0b0000000)
	FUNCT7_ALT  = word.Word(0b0100000) // sub, sra, srai
)

type aluOp func(a, b word.Word) word.Word
type branchOp func(a, b word.Word) bool

func opAdd(a, b word.Word) word.Word { return a.Add(b) }
func opSub(a, b word.Word) word.Word { return a.Sub(b) }
func opXor(a, b word.Word) word.Word { return a ^ b }
func opOr(a, b word.Word) word.Word  { return a | b }
func opAnd(a, b word.Word) word.Word { return a & b }
func opSll(a, b word.Word) word.Word { return a.Shl(b) }
func opSrl(a, b word.Word) word.Word { return a.Shr(b) }

// opSra shifts right, filling the vacated high bits with the sign bit.
func opSra(a, b word.Word) word.Word {
	shift := b & 0x1f
	value := a >> shift
	if a&word.SIGN_BIT != 0 {
		value |= ^(word.MAX >> shift)
	}
	return value
}

func opSlt(a, b word.Word) word.Word {
	if a.Signed() < b.Signed() {
		return 1
	}
	return 0
}

func opSltu(a, b word.Word) word.Word {
	if a < b {
		return 1
	}
	return 0
}

func cmpEq(a, b word.Word) bool  { return a == b }
func cmpNe(a, b word.Word) bool  { return a != b }
func cmpLt(a, b word.Word) bool  { return a.Signed() < b.Signed() }
func cmpGe(a, b word.Word) bool  { return a.Signed() >= b.Signed() }
func cmpLtu(a, b word.Word) bool { return a < b }
func cmpGeu(a, b word.Word) bool { return a >= b }

// gpr reads the two source registers of code.
func gpr(cpu *Cpu, code word.Word) (a, b word.Word, err error) {
	a, err = cpu.Registers.ReadGpr(int(code.Rs1()))
	if err != nil {
		return
	}

	b, err = cpu.Registers.ReadGpr(int(code.Rs2()))
	return
}

// opR builds a register-register ALU instruction.
func opR(mn Mnemonic, funct3, funct7 word.Word, op aluOp) *Instruction {
	return &Instruction{
		Mnemonic: mn,
		Format:   FORMAT_R,
		Match:    word.EncodeR(OPCODE_OP, funct3, funct7, 0, 0, 0),
		Mask:     MASK_R,
		Unsigned: mn == MN_SLTU,
		execute: func(code word.Word, cpu *Cpu) (increment bool, err error) {
			a, b, err := gpr(cpu, code)
			if err != nil {
				return
			}

			err = cpu.Registers.WriteGpr(int(code.Rd()), op(a, b))
			increment = err == nil
			return
		},
	}
}

// opI builds a register-immediate ALU instruction.
func opI(mn Mnemonic, funct3 word.Word, op aluOp) *Instruction {
	return &Instruction{
		Mnemonic: mn,
		Format:   FORMAT_I,
		Match:    word.EncodeI(OPCODE_OP_IMM, funct3, 0, 0, 0),
		Mask:     MASK_I,
		Unsigned: mn == MN_SLTIU,
		execute: func(code word.Word, cpu *Cpu) (increment bool, err error) {
			a, err := cpu.Registers.ReadGpr(int(code.Rs1()))
			if err != nil {
				return
			}

			err = cpu.Registers.WriteGpr(int(code.Rd()), op(a, code.ImmI()))
			increment = err == nil
			return
		},
	}
}

// opShift builds a shift-immediate instruction. The upper immediate
// bits are matched as funct7.
func opShift(mn Mnemonic, funct3, funct7 word.Word, op aluOp) *Instruction {
	return &Instruction{
		Mnemonic: mn,
		Format:   FORMAT_SHIFT,
		Match:    word.EncodeR(OPCODE_OP_IMM, funct3, funct7, 0, 0, 0),
		Mask:     MASK_R,
		execute: func(code word.Word, cpu *Cpu) (increment bool, err error) {
			a, err := cpu.Registers.ReadGpr(int(code.Rs1()))
			if err != nil {
				return
			}

			err = cpu.Registers.WriteGpr(int(code.Rd()), op(a, code.Shamt()))
			increment = err == nil
			return
		},
	}
}

// opLoad builds a load instruction. 'load' fetches the value at an address.
func opLoad(mn Mnemonic, funct3 word.Word, load func(cpu *Cpu, address word.Word) word.Word) *Instruction {
	return &Instruction{
		Mnemonic: mn,
		Format:   FORMAT_LOAD,
		Match:    word.EncodeI(OPCODE_LOAD, funct3, 0, 0, 0),
		Mask:     MASK_I,
		execute: func(code word.Word, cpu *Cpu) (increment bool, err error) {
			base, err := cpu.Registers.ReadGpr(int(code.Rs1()))
			if err != nil {
				return
			}

			value := load(cpu, base.Add(code.ImmI()))

			err = cpu.Registers.WriteGpr(int(code.Rd()), value)
			increment = err == nil
			return
		},
	}
}

// opStore builds a store instruction. 'store' writes the value at an address.
func opStore(mn Mnemonic, funct3 word.Word, store func(cpu *Cpu, address word.Word, value word.Word)) *Instruction {
	return &Instruction{
		Mnemonic: mn,
		Format:   FORMAT_S,
		Match:    word.EncodeS(OPCODE_STORE, funct3, 0, 0, 0),
		Mask:     MASK_I,
		execute: func(code word.Word, cpu *Cpu) (increment bool, err error) {
			base, value, err := gpr(cpu, code)
			if err != nil {
				return
			}

			store(cpu, base.Add(code.ImmS()), value)
			increment = true
			return
		},
	}
}

// opBranch builds a conditional branch instruction.
func opBranch(mn Mnemonic, funct3 word.Word, cmp branchOp) *Instruction {
	return &Instruction{
		Mnemonic: mn,
		Format:   FORMAT_B,
		Match:    word.EncodeB(OPCODE_BRANCH, funct3, 0, 0, 0),
		Mask:     MASK_I,
		Unsigned: mn == MN_BLTU || mn == MN_BGEU,
		execute: func(code word.Word, cpu *Cpu) (increment bool, err error) {
			a, b, err := gpr(cpu, code)
			if err != nil {
				return
			}

			if !cmp(a, b) {
				increment = true
				return
			}

			cpu.Registers.SetPc(cpu.Registers.Pc().Add(code.ImmB()))
			return
		},
	}
}

func executeJal(code word.Word, cpu *Cpu) (increment bool, err error) {
	pc := cpu.Registers.Pc()

	err = cpu.Registers.WriteGpr(int(code.Rd()), pc.Add(4))
	if err != nil {
		return
	}

	cpu.Registers.SetPc(pc.Add(code.ImmJ()))
	return
}

func executeJalr(code word.Word, cpu *Cpu) (increment bool, err error) {
	pc := cpu.Registers.Pc()

	base, err := cpu.Registers.ReadGpr(int(code.Rs1()))
	if err != nil {
		return
	}

	// Target is computed before rd is written, as rd may be rs1.
	target := base.Add(code.ImmI()) &^ 1

	err = cpu.Registers.WriteGpr(int(code.Rd()), pc.Add(4))
	if err != nil {
		return
	}

	cpu.Registers.SetPc(target)
	return
}

func executeLui(code word.Word, cpu *Cpu) (increment bool, err error) {
	err = cpu.Registers.WriteGpr(int(code.Rd()), code.ImmU())
	increment = err == nil
	return
}

func executeAuipc(code word.Word, cpu *Cpu) (increment bool, err error) {
	err = cpu.Registers.WriteGpr(int(code.Rd()), cpu.Registers.Pc().Add(code.ImmU()))
	increment = err == nil
	return
}

func executeEcall(code word.Word, cpu *Cpu) (increment bool, err error) {
	err = ErrEnvironmentCall
	return
}

func executeEbreak(code word.Word, cpu *Cpu) (increment bool, err error) {
	err = ErrEnvironmentBreak
	return
}

func loadByte(cpu *Cpu, address word.Word) word.Word {
	return word.SignExtend(cpu.Bus.Read(address)&0xff, 7)
}

func loadHalf(cpu *Cpu, address word.Word) word.Word {
	return word.SignExtend(cpu.Bus.ReadLeHalf(address), 15)
}

func loadWord(cpu *Cpu, address word.Word) word.Word {
	return cpu.Bus.ReadLeWord(address)
}

func loadByteUnsigned(cpu *Cpu, address word.Word) word.Word {
	return cpu.Bus.Read(address) & 0xff
}

func loadHalfUnsigned(cpu *Cpu, address word.Word) word.Word {
	return cpu.Bus.ReadLeHalf(address)
}

func storeByte(cpu *Cpu, address word.Word, value word.Word) {
	cpu.Bus.Write(address, value&0xff)
}

func storeHalf(cpu *Cpu, address word.Word, value word.Word) {
	cpu.Bus.WriteLeHalf(address, value&0xffff)
}

func storeWord(cpu *Cpu, address word.Word, value word.Word) {
	cpu.Bus.WriteLeWord(address, value)
}

// rv32i returns the base instruction set, in decode order.
func rv32i() []*Instruction {
	return []*Instruction{
		opR(MN_ADD, 0b000, FUNCT7_BASE, opAdd),
		opR(MN_SUB, 0b000, FUNCT7_ALT, opSub),
		opR(MN_XOR, 0b100, FUNCT7_BASE, opXor),
		opR(MN_OR, 0b110, FUNCT7_BASE, opOr),
		opR(MN_AND, 0b111, FUNCT7_BASE, opAnd),
		opR(MN_SLL, 0b001, FUNCT7_BASE, opSll),
		opR(MN_SRL, 0b101, FUNCT7_BASE, opSrl),
		opR(MN_SRA, 0b101, FUNCT7_ALT, opSra),
		opR(MN_SLT, 0b010, FUNCT7_BASE, opSlt),
		opR(MN_SLTU, 0b011, FUNCT7_BASE, opSltu),

		opI(MN_ADDI, 0b000, opAdd),
		opI(MN_XORI, 0b100, opXor),
		opI(MN_ORI, 0b110, opOr),
		opI(MN_ANDI, 0b111, opAnd),
		opShift(MN_SLLI, 0b001, FUNCT7_BASE, opSll),
		opShift(MN_SRLI, 0b101, FUNCT7_BASE, opSrl),
		opShift(MN_SRAI, 0b101, FUNCT7_ALT, opSra),
		opI(MN_SLTI, 0b010, opSlt),
		opI(MN_SLTIU, 0b011, opSltu),

		opLoad(MN_LB, 0b000, loadByte),
		opLoad(MN_LH, 0b001, loadHalf),
		opLoad(MN_LW, 0b010, loadWord),
		opLoad(MN_LBU, 0b100, loadByteUnsigned),
		opLoad(MN_LHU, 0b101, loadHalfUnsigned),

		opStore(MN_SB, 0b000, storeByte),
		opStore(MN_SH, 0b001, storeHalf),
		opStore(MN_SW, 0b010, storeWord),

		opBranch(MN_BEQ, 0b000, cmpEq),
		opBranch(MN_BNE, 0b001, cmpNe),
		opBranch(MN_BLT, 0b100, cmpLt),
		opBranch(MN_BGE, 0b101, cmpGe),
		opBranch(MN_BLTU, 0b110, cmpLtu),
		opBranch(MN_BGEU, 0b111, cmpGeu),

		{
			Mnemonic: MN_JAL,
			Format:   FORMAT_J,
			Match:    OPCODE_JAL,
			Mask:     MASK_U,
			execute:  executeJal,
		},
		{
			Mnemonic: MN_JALR,
			Format:   FORMAT_LOAD,
			Match:    word.EncodeI(OPCODE_JALR, 0b000, 0, 0, 0),
			Mask:     MASK_I,
			execute:  executeJalr,
		},
		{
			Mnemonic: MN_LUI,
			Format:   FORMAT_U,
			Match:    OPCODE_LUI,
			Mask:     MASK_U,
			execute:  executeLui,
		},
		{
			Mnemonic: MN_AUIPC,
			Format:   FORMAT_U,
			Match:    OPCODE_AUIPC,
			Mask:     MASK_U,
			execute:  executeAuipc,
		},
		{
			Mnemonic: MN_ECALL,
			Format:   FORMAT_SYSTEM,
			Match:    word.EncodeI(OPCODE_SYSTEM, 0b000, 0, 0, 0),
			Mask:     MASK_SYSTEM,
			execute:  executeEcall,
		},
		{
			Mnemonic: MN_EBREAK,
			Format:   FORMAT_SYSTEM,
			Match:    word.EncodeI(OPCODE_SYSTEM, 0b000, 0, 0, 1),
			Mask:     MASK_SYSTEM,
			execute:  executeEbreak,
		},
	}
}
