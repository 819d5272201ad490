// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package word implements the 32-bit machine word of the RV32I core.
//
// All arithmetic wraps modulo 2^32. The field accessors and immediate
// decoders follow the standard RISC-V base instruction formats, and the
// encoders are their exact inverses for in-range immediates.
package word

import (
	"encoding/binary"
	"fmt"
)

// Word is a 32-bit machine word.
type Word uint32

const (
	MAX      = Word(0xffff_ffff) // All bits set.
	SIGN_BIT = Word(0x8000_0000) // Two's complement sign bit.
)

// Instruction field masks.
const (
	MASK_OPCODE = Word(0x0000_007f)
	MASK_RD     = Word(0x0000_0f80)
	MASK_FUNCT3 = Word(0x0000_7000)
	MASK_RS1    = Word(0x000f_8000)
	MASK_RS2    = Word(0x01f0_0000)
	MASK_FUNCT7 = Word(0xfe00_0000)
	MASK_IMM_I  = Word(0xfff0_0000)
	MASK_IMM_U  = Word(0xffff_f000)
)

// String returns the word as eight hex digits.
func (w Word) String() string {
	return fmt.Sprintf("%08x", uint32(w))
}

// Signed reinterprets the word as a two's complement integer.
func (w Word) Signed() int32 {
	return int32(w)
}

// Add returns w + v, wrapping.
func (w Word) Add(v Word) Word {
	return w + v
}

// Sub returns w - v, wrapping.
func (w Word) Sub(v Word) Word {
	return w - v
}

// Mul returns the low 32 bits of w * v.
func (w Word) Mul(v Word) Word {
	return w * v
}

// Div returns the unsigned quotient w / v.
// Division by zero yields all ones.
func (w Word) Div(v Word) Word {
	if v == 0 {
		return MAX
	}
	return w / v
}

// Shl shifts left by the low 5 bits of v.
func (w Word) Shl(v Word) Word {
	return w << (v & 0x1f)
}

// Shr shifts right, zero filling, by the low 5 bits of v.
func (w Word) Shr(v Word) Word {
	return w >> (v & 0x1f)
}

// SignExtend extends bit 'bit' of value into all higher bits.
func SignExtend(value Word, bit uint) Word {
	shift := 31 - (bit & 0x1f)
	return Word(int32(value<<shift) >> shift)
}

// FromLeBytes composes a word from four bytes, lowest address first.
func FromLeBytes(data [4]byte) Word {
	return Word(binary.LittleEndian.Uint32(data[:]))
}

// LeBytes decomposes the word into four bytes, least significant first.
func (w Word) LeBytes() (data [4]byte) {
	binary.LittleEndian.PutUint32(data[:], uint32(w))
	return
}

// Opcode returns bits 0-6.
func (w Word) Opcode() Word {
	return w & MASK_OPCODE
}

// Rd returns the destination register index, bits 7-11.
func (w Word) Rd() Word {
	return (w >> 7) & 0x1f
}

// Funct3 returns bits 12-14.
func (w Word) Funct3() Word {
	return (w >> 12) & 0x7
}

// Rs1 returns the first source register index, bits 15-19.
func (w Word) Rs1() Word {
	return (w >> 15) & 0x1f
}

// Rs2 returns the second source register index, bits 20-24.
func (w Word) Rs2() Word {
	return (w >> 20) & 0x1f
}

// Shamt returns the shift-immediate amount, bits 20-24.
func (w Word) Shamt() Word {
	return (w >> 20) & 0x1f
}

// Funct7 returns bits 25-31.
func (w Word) Funct7() Word {
	return (w >> 25) & 0x7f
}

// ImmI decodes the I-type immediate.
func (w Word) ImmI() Word {
	return SignExtend(w>>20, 11)
}

// ImmS decodes the S-type immediate.
func (w Word) ImmS() Word {
	imm := ((w >> 25) << 5) | ((w >> 7) & 0x1f)
	return SignExtend(imm, 11)
}

// ImmB decodes the B-type immediate. Bit 0 is always zero.
func (w Word) ImmB() Word {
	imm := ((w>>31)&0x1)<<12 |
		((w>>7)&0x1)<<11 |
		((w>>25)&0x3f)<<5 |
		((w>>8)&0xf)<<1
	return SignExtend(imm, 12)
}

// ImmU decodes the U-type immediate, already placed in the upper 20 bits.
func (w Word) ImmU() Word {
	return w & MASK_IMM_U
}

// ImmJ decodes the J-type immediate. Bit 0 is always zero.
func (w Word) ImmJ() Word {
	imm := ((w>>31)&0x1)<<20 |
		((w>>12)&0xff)<<12 |
		((w>>20)&0x1)<<11 |
		((w>>21)&0x3ff)<<1
	return SignExtend(imm, 20)
}

// EncodeR builds a register-register instruction.
func EncodeR(opcode, funct3, funct7, rd, rs1, rs2 Word) Word {
	return (funct7&0x7f)<<25 |
		(rs2&0x1f)<<20 |
		(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 |
		(rd&0x1f)<<7 |
		(opcode & MASK_OPCODE)
}

// EncodeI builds a register-immediate instruction.
func EncodeI(opcode, funct3, rd, rs1, imm Word) Word {
	return (imm&0xfff)<<20 |
		(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 |
		(rd&0x1f)<<7 |
		(opcode & MASK_OPCODE)
}

// EncodeS builds a store instruction.
func EncodeS(opcode, funct3, rs1, rs2, imm Word) Word {
	return ((imm>>5)&0x7f)<<25 |
		(rs2&0x1f)<<20 |
		(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 |
		(imm&0x1f)<<7 |
		(opcode & MASK_OPCODE)
}

// EncodeB builds a conditional branch instruction.
func EncodeB(opcode, funct3, rs1, rs2, imm Word) Word {
	return ((imm>>12)&0x1)<<31 |
		((imm>>5)&0x3f)<<25 |
		(rs2&0x1f)<<20 |
		(rs1&0x1f)<<15 |
		(funct3&0x7)<<12 |
		((imm>>1)&0xf)<<8 |
		((imm>>11)&0x1)<<7 |
		(opcode & MASK_OPCODE)
}

// EncodeU builds an upper-immediate instruction. The low 12 bits of imm are ignored.
func EncodeU(opcode, rd, imm Word) Word {
	return (imm & MASK_IMM_U) |
		(rd&0x1f)<<7 |
		(opcode & MASK_OPCODE)
}

// EncodeJ builds a jump instruction.
func EncodeJ(opcode, rd, imm Word) Word {
	return ((imm>>20)&0x1)<<31 |
		((imm>>1)&0x3ff)<<21 |
		((imm>>11)&0x1)<<20 |
		((imm>>12)&0xff)<<12 |
		(rd&0x1f)<<7 |
		(opcode & MASK_OPCODE)
}
