package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/rv32i/word"
)

// Major opcodes of the RV32I base instruction set.
const (
	OPCODE_LOAD   = word.Word(0b0000011)
	OPCODE_OP_IMM = word.Word(0b0010011)
	OPCODE_AUIPC  = word.Word(0b0010111)
	OPCODE_STORE  = word.Word(0b0100011)
	OPCODE_OP     = word.Word(0b0110011)
	OPCODE_LUI    = word.Word(0b0110111)
	OPCODE_BRANCH = word.Word(0b1100011)
	OPCODE_JALR   = word.Word(0b1100111)
	OPCODE_JAL    = word.Word(0b1101111)
	OPCODE_SYSTEM = word.Word(0b1110011)
)

// Mnemonic names an instruction.
type Mnemonic int

//go:generate go tool stringer -linecomment -type=Mnemonic
const (
	MN_ADD    = Mnemonic(0)  // add
	MN_SUB    = Mnemonic(1)  // sub
	MN_XOR    = Mnemonic(2)  // xor
	MN_OR     = Mnemonic(3)  // or
	MN_AND    = Mnemonic(4)  // and
	MN_SLL    = Mnemonic(5)  // sll
	MN_SRL    = Mnemonic(6)  // srl
	MN_SRA    = Mnemonic(7)  // sra
	MN_SLT    = Mnemonic(8)  // slt
	MN_SLTU   = Mnemonic(9)  // sltu
	MN_ADDI   = Mnemonic(10) // addi
	MN_XORI   = Mnemonic(11) // xori
	MN_ORI    = Mnemonic(12) // ori
	MN_ANDI   = Mnemonic(13) // andi
	MN_SLLI   = Mnemonic(14) // slli
	MN_SRLI   = Mnemonic(15) // srli
	MN_SRAI   = Mnemonic(16) // srai
	MN_SLTI   = Mnemonic(17) // slti
	MN_SLTIU  = Mnemonic(18) // sltiu
	MN_LB     = Mnemonic(19) // lb
	MN_LH     = Mnemonic(20) // lh
	MN_LW     = Mnemonic(21) // lw
	MN_LBU    = Mnemonic(22) // lbu
	MN_LHU    = Mnemonic(23) // lhu
	MN_SB     = Mnemonic(24) // sb
	MN_SH     = Mnemonic(25) // sh
	MN_SW     = Mnemonic(26) // sw
	MN_BEQ    = Mnemonic(27) // beq
	MN_BNE    = Mnemonic(28) // bne
	MN_BLT    = Mnemonic(29) // blt
	MN_BGE    = Mnemonic(30) // bge
	MN_BLTU   = Mnemonic(31) // bltu
	MN_BGEU   = Mnemonic(32) // bgeu
	MN_JAL    = Mnemonic(33) // jal
	MN_JALR   = Mnemonic(34) // jalr
	MN_LUI    = Mnemonic(35) // lui
	MN_AUIPC  = Mnemonic(36) // auipc
	MN_ECALL  = Mnemonic(37) // ecall
	MN_EBREAK = Mnemonic(38) // ebreak
)

// Format is the operand layout of an instruction.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_R      = Format(0) // rd, rs1, rs2
	FORMAT_I      = Format(1) // rd, rs1, imm
	FORMAT_SHIFT  = Format(2) // rd, rs1, shamt
	FORMAT_LOAD   = Format(3) // rd, imm(rs1)
	FORMAT_S      = Format(4) // rs2, imm(rs1)
	FORMAT_B      = Format(5) // rs1, rs2, imm
	FORMAT_U      = Format(6) // rd, imm
	FORMAT_J      = Format(7) // rd, imm
	FORMAT_SYSTEM = Format(8) //
)

// OperandKind classifies a disassembled operand.
type OperandKind int

//go:generate go tool stringer -linecomment -type=OperandKind
const (
	OPERAND_REGISTER  = OperandKind(0) // register
	OPERAND_UNSIGNED  = OperandKind(1) // unsigned
	OPERAND_IMMEDIATE = OperandKind(2) // immediate
	OPERAND_OFFSET    = OperandKind(3) // offset
	OPERAND_BASE      = OperandKind(4) // base
)

// Operand is a single disassembled operand.
// Register kinds use Register, the others use Value.
type Operand struct {
	Kind     OperandKind
	Register int
	Value    word.Word
}

// String returns the assembly language form of the operand.
func (op Operand) String() string {
	switch op.Kind {
	case OPERAND_REGISTER, OPERAND_UNSIGNED:
		return fmt.Sprintf("x%d", op.Register)
	case OPERAND_BASE:
		return fmt.Sprintf("(x%d)", op.Register)
	default:
		return fmt.Sprintf("%d", op.Value.Signed())
	}
}

// Disassembly is a decoded instruction.
type Disassembly struct {
	Mnemonic Mnemonic
	Format   Format
	Operands []Operand
}

// String returns the assembly language form of the instruction,
// e.g. "lw x1, 8(x2)".
func (dis Disassembly) String() string {
	var args []string

	for _, op := range dis.Operands {
		text := op.String()
		switch {
		case op.Kind == OPERAND_BASE && len(args) > 0:
			args[len(args)-1] += text
			continue
		case dis.Format == FORMAT_U && op.Kind == OPERAND_IMMEDIATE:
			text = fmt.Sprintf("0x%x", uint32(op.Value>>12))
		}
		args = append(args, text)
	}

	if len(args) == 0 {
		return dis.Mnemonic.String()
	}

	return dis.Mnemonic.String() + " " + strings.Join(args, ", ")
}
