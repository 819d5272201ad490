package cpu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rv32i/word"
)

func TestInstructionSet(t *testing.T) {
	assert := assert.New(t)

	set := NewInstructionSet()

	count := 0
	for inst := range set.Instructions() {
		assert.Equal(Mnemonic(count), inst.Mnemonic)
		found, ok := set.Lookup(inst.Mnemonic.String())
		assert.True(ok)
		assert.Equal(inst, found)
		count++
	}
	assert.Equal(39, count)

	_, ok := set.Lookup("mul")
	assert.False(ok)
}

func TestInstruction_Syntax(t *testing.T) {
	assert := assert.New(t)

	set := NewInstructionSet()

	table := map[string]string{
		"add":   "add rd, rs1, rs2",
		"addi":  "addi rd, rs1, imm",
		"slli":  "slli rd, rs1, shamt",
		"lb":    "lb rd, imm(rs1)",
		"sb":    "sb rs2, imm(rs1)",
		"beq":   "beq rs1, rs2, imm",
		"jal":   "jal rd, imm",
		"jalr":  "jalr rd, imm(rs1)",
		"lui":   "lui rd, imm",
		"ecall": "ecall",
	}

	for mnemonic, syntax := range table {
		inst, ok := set.Lookup(mnemonic)
		require.True(t, ok, mnemonic)
		assert.Equal(syntax, inst.Syntax())
	}
}

func TestInstructionSet_Decode(t *testing.T) {
	assert := assert.New(t)

	set := NewInstructionSet()

	table := [](struct {
		code     word.Word
		mnemonic Mnemonic
		text     string
	}){
		{0x02a00293, MN_ADDI, "addi x5, x0, 42"},
		{0x00c58533, MN_ADD, "add x10, x11, x12"},
		{0x407302b3, MN_SUB, "sub x5, x6, x7"},
		{0x00812083, MN_LW, "lw x1, 8(x2)"},
		{0xfe20ac23, MN_SW, "sw x2, -8(x1)"},
		{0xfe000ee3, MN_BEQ, "beq x0, x0, -4"},
		{0xffdff06f, MN_JAL, "jal x0, -4"},
		{0x00008067, MN_JALR, "jalr x0, 0(x1)"},
		{0x12345537, MN_LUI, "lui x10, 0x12345"},
		{0x4032d293, MN_SRAI, "srai x5, x5, 3"},
		{0x0032d293, MN_SRLI, "srli x5, x5, 3"},
		{0x0073b2b3, MN_SLTU, "sltu x5, x7, x7"},
		{0x00000073, MN_ECALL, "ecall"},
		{0x00100073, MN_EBREAK, "ebreak"},
	}

	for _, entry := range table {
		inst, err := set.Decode(entry.code)
		if !assert.NoError(err, entry.text) {
			continue
		}
		assert.Equal(entry.mnemonic, inst.Mnemonic, entry.text)

		dis, err := set.Disassemble(entry.code)
		assert.NoError(err)
		assert.Equal(entry.text, dis.String())
	}

	invalid := []word.Word{
		0x00000000, // opcode 0
		0xffffffff, // opcode 0x7f
		0x0232d293, // srli, funct7 1
		0x00200073, // system, imm 2
		0x00001073, // system, funct3 1
		0x00009067, // jalr, funct3 1
		0x00003003, // load, funct3 3
		0x00003023, // store, funct3 3
		0x00002063, // branch, funct3 2
		0x02c58533, // op, funct7 1 (mul)
	}

	for _, code := range invalid {
		_, err := set.Decode(code)
		assert.ErrorIs(err, ErrInvalidInstruction, "%08x", uint32(code))
		_, err = set.Disassemble(code)
		assert.ErrorIs(err, ErrInvalidInstruction)
	}
}

func TestDisassembly_Operands(t *testing.T) {
	assert := assert.New(t)

	set := NewInstructionSet()

	dis, err := set.Disassemble(0x00812083) // lw x1, 8(x2)
	assert.NoError(err)
	assert.Equal([]Operand{
		{Kind: OPERAND_REGISTER, Register: 1},
		{Kind: OPERAND_OFFSET, Value: 8},
		{Kind: OPERAND_BASE, Register: 2},
	}, dis.Operands)

	dis, err = set.Disassemble(0x0073b2b3) // sltu x5, x7, x7
	assert.NoError(err)
	assert.Equal(OPERAND_REGISTER, dis.Operands[0].Kind)
	assert.Equal(OPERAND_UNSIGNED, dis.Operands[1].Kind)
	assert.Equal(OPERAND_UNSIGNED, dis.Operands[2].Kind)

	dis, err = set.Disassemble(0xfe000ee3) // beq x0, x0, -4
	assert.NoError(err)
	assert.Equal(OPERAND_OFFSET, dis.Operands[2].Kind)
	assert.Equal(word.Word(0xfffffffc), dis.Operands[2].Value)

	dis, err = set.Disassemble(0x00000073)
	assert.NoError(err)
	assert.Empty(dis.Operands)
}

// Any word that validates must disassemble, and decode to the same rule.
func TestInstruction_ValidateDisassemble(t *testing.T) {
	assert := assert.New(t)

	set := NewInstructionSet()
	rng := rand.New(rand.NewSource(1))

	for inst := range set.Instructions() {
		for range 256 {
			code := inst.Match | (word.Word(rng.Uint32()) &^ inst.Mask)
			assert.NoError(inst.Validate(code))

			dis, err := inst.Disassemble(code)
			assert.NoError(err)
			assert.Equal(inst.Mnemonic, dis.Mnemonic)

			decoded, err := set.Decode(code)
			assert.NoError(err)
			assert.Equal(inst, decoded)
		}

		_, err := inst.Disassemble(inst.Match ^ word.MASK_OPCODE)
		assert.ErrorIs(err, ErrInvalidInstruction)
	}
}

// No two rules may validate the same word. Every opcode, funct3 and funct7
// combination is checked, with the remaining fields clear, set, and
// with the system immediate at 1.
func TestInstructionSet_Unique(t *testing.T) {
	set := NewInstructionSet()

	fills := []word.Word{0x0000_0000, 0x01ff_8f80, 0x0010_0000}

	for opcode := range word.Word(128) {
		for funct3 := range word.Word(8) {
			for funct7 := range word.Word(128) {
				for _, fill := range fills {
					code := word.EncodeR(opcode, funct3, funct7, 0, 0, 0) | fill
					matches := 0
					for inst := range set.Instructions() {
						if inst.Validate(code) == nil {
							matches++
						}
					}
					if matches > 1 {
						t.Fatalf("%08x: %d rules match", uint32(code), matches)
					}
				}
			}
		}
	}
}

func TestInstruction_Encode(t *testing.T) {
	assert := assert.New(t)

	set := NewInstructionSet()

	imm := map[Format]word.Word{
		FORMAT_I:     word.Word(0xfffffff8),
		FORMAT_LOAD:  word.Word(0xfffffff8),
		FORMAT_S:     word.Word(0xfffffff8),
		FORMAT_SHIFT: 3,
		FORMAT_B:     word.Word(0xfffffff8),
		FORMAT_U:     0x12345000,
		FORMAT_J:     16,
	}

	for inst := range set.Instructions() {
		code := inst.Encode(5, 6, 7, imm[inst.Format])
		decoded, err := set.Decode(code)
		if !assert.NoError(err, inst.Syntax()) {
			continue
		}
		assert.Equal(inst.Mnemonic, decoded.Mnemonic)

		switch inst.Format {
		case FORMAT_I, FORMAT_LOAD:
			assert.Equal(imm[inst.Format], code.ImmI())
		case FORMAT_SHIFT:
			assert.Equal(imm[inst.Format], code.Shamt())
		case FORMAT_S:
			assert.Equal(imm[inst.Format], code.ImmS())
		case FORMAT_B:
			assert.Equal(imm[inst.Format], code.ImmB())
		case FORMAT_U:
			assert.Equal(imm[inst.Format], code.ImmU())
		case FORMAT_J:
			assert.Equal(imm[inst.Format], code.ImmJ())
		}
	}
}

func FuzzDecode(f *testing.F) {
	for _, code := range []uint32{0, 0x02a00293, 0xfe000ee3, 0x00100073, 0xffffffff} {
		f.Add(code)
	}

	set := NewInstructionSet()

	f.Fuzz(func(t *testing.T, value uint32) {
		assert := assert.New(t)

		code := word.Word(value)

		matches := 0
		for inst := range set.Instructions() {
			if inst.Validate(code) == nil {
				matches++
			}
		}
		assert.LessOrEqual(matches, 1)

		inst, err := set.Decode(code)
		if matches == 0 {
			assert.ErrorIs(err, ErrInvalidInstruction)
			return
		}

		assert.NoError(err)
		dis, err := inst.Disassemble(code)
		assert.NoError(err)
		assert.NotEmpty(dis.String())
	})
}
