package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rv32i/io"
	"github.com/ezrec/rv32i/word"
)

// newTestCpu creates a CPU with RAM at address 0.
func newTestCpu(t *testing.T) (cpu *Cpu, ram *io.Ram) {
	cpu = NewCpu()
	ram = &io.Ram{}
	err := cpu.Bus.Connect(ram, io.NewMemoryRange(0, io.ROM_SIZE))
	require.NoError(t, err)
	return
}

// encode builds an instruction by mnemonic. U format immediates are unshifted.
func encode(t *testing.T, cpu *Cpu, mnemonic string, rd, rs1, rs2 int, imm word.Word) word.Word {
	inst, ok := cpu.Set.Lookup(mnemonic)
	require.True(t, ok, mnemonic)
	return inst.Encode(rd, rs1, rs2, imm)
}

// execute runs a single instruction, without a fetch.
func execute(t *testing.T, cpu *Cpu, code word.Word) (increment bool, err error) {
	inst, err := cpu.Set.Decode(code)
	require.NoError(t, err)
	return inst.Execute(code, cpu)
}

func TestCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	assert.False(cpu.Verbose)
	assert.Equal(word.Word(0), cpu.Registers.Pc())
	assert.Equal(0, cpu.Ticks)

	defines := map[string]string{}
	for key, value := range cpu.Defines() {
		defines[key] = value
	}
	assert.Equal("32", defines["XLEN"])
}

func TestCpu_Alu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		a, b     word.Word
		result   word.Word
	}){
		{"add", 5, 7, 12},
		{"add", 0xffffffff, 1, 0},
		{"sub", 5, 7, 0xfffffffe},
		{"xor", 0xff00ff00, 0x0ff00ff0, 0xf0f0f0f0},
		{"or", 0xff00ff00, 0x0ff00ff0, 0xfff0fff0},
		{"and", 0xff00ff00, 0x0ff00ff0, 0x0f000f00},
		{"sll", 1, 4, 0x10},
		{"sll", 1, 33, 2},
		{"srl", 0x80000000, 4, 0x08000000},
		{"sra", 0x80000000, 4, 0xf8000000},
		{"sra", 0x40000000, 4, 0x04000000},
		{"sra", 0x80000001, 0, 0x80000001},
		{"sra", 0xfffffff0, 36, 0xffffffff},
		{"slt", 0xffffffff, 1, 1},
		{"slt", 1, 0xffffffff, 0},
		{"sltu", 0xffffffff, 1, 0},
		{"sltu", 1, 0xffffffff, 1},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(t)
		require.NoError(t, cpu.Registers.WriteGpr(1, entry.a))
		require.NoError(t, cpu.Registers.WriteGpr(2, entry.b))

		increment, err := execute(t, cpu, encode(t, cpu, entry.mnemonic, 3, 1, 2, 0))
		assert.NoError(err)
		assert.True(increment, entry.mnemonic)

		value, err := cpu.Registers.ReadGpr(3)
		assert.NoError(err)
		assert.Equal(entry.result, value, "%v %v %v", entry.mnemonic, entry.a, entry.b)
	}
}

func TestCpu_AluImmediate(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		a, imm   word.Word
		result   word.Word
	}){
		{"addi", 5, 0xffffffff, 4},
		{"addi", 0, 42, 42},
		{"xori", 0x12345678, 0xffffffff, 0xedcba987},
		{"ori", 0x12340000, 0x7ff, 0x123407ff},
		{"andi", 0x12345678, 0xfffff800, 0x12345000},
		{"slli", 3, 3, 24},
		{"srli", 0xf0000000, 28, 0xf},
		{"srai", 0xf0000000, 28, 0xffffffff},
		{"slti", 0xfffffffe, 0xffffffff, 1},
		{"slti", 0, 0xffffffff, 0},
		{"sltiu", 0, 0xffffffff, 1},
		{"sltiu", 5, 1, 0},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(t)
		require.NoError(t, cpu.Registers.WriteGpr(1, entry.a))

		increment, err := execute(t, cpu, encode(t, cpu, entry.mnemonic, 3, 1, 0, entry.imm))
		assert.NoError(err)
		assert.True(increment, entry.mnemonic)

		value, err := cpu.Registers.ReadGpr(3)
		assert.NoError(err)
		assert.Equal(entry.result, value, "%v %v %v", entry.mnemonic, entry.a, entry.imm)
	}
}

func TestCpu_Load(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		offset   word.Word
		result   word.Word
	}){
		{"lb", 0, 0xffffff80},
		{"lbu", 0, 0x80},
		{"lb", 3, 0x12},
		{"lh", 0, 0xffffff80},
		{"lhu", 0, 0xff80},
		{"lh", 2, 0x1234},
		{"lw", 0, 0x1234ff80},
		{"lw", 0xfffffffc, 0x04030201},
	}

	for _, entry := range table {
		cpu, ram := newTestCpu(t)
		copy(ram.Data[0xfc:], []byte{0x01, 0x02, 0x03, 0x04, 0x80, 0xff, 0x34, 0x12})
		require.NoError(t, cpu.Registers.WriteGpr(1, 0x100))

		increment, err := execute(t, cpu, encode(t, cpu, entry.mnemonic, 3, 1, 0, entry.offset))
		assert.NoError(err)
		assert.True(increment)

		value, err := cpu.Registers.ReadGpr(3)
		assert.NoError(err)
		assert.Equal(entry.result, value, "%v %v", entry.mnemonic, entry.offset)
	}
}

func TestCpu_Store(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		offset   word.Word
		address  int
		result   []byte
	}){
		{"sb", 0, 0x100, []byte{0xef, 0x55, 0x55, 0x55}},
		{"sh", 0, 0x100, []byte{0xef, 0xbe, 0x55, 0x55}},
		{"sw", 0, 0x100, []byte{0xef, 0xbe, 0xad, 0xde}},
		{"sw", 0xfffffffc, 0xfc, []byte{0xef, 0xbe, 0xad, 0xde}},
		{"sb", 7, 0x107, []byte{0xef, 0x55}},
	}

	for _, entry := range table {
		cpu, ram := newTestCpu(t)
		for n := range ram.Data {
			ram.Data[n] = 0x55
		}
		require.NoError(t, cpu.Registers.WriteGpr(1, 0x100))
		require.NoError(t, cpu.Registers.WriteGpr(2, 0xdeadbeef))

		increment, err := execute(t, cpu, encode(t, cpu, entry.mnemonic, 0, 1, 2, entry.offset))
		assert.NoError(err)
		assert.True(increment)

		assert.Equal(entry.result, ram.Data[entry.address:entry.address+len(entry.result)], entry.mnemonic)
	}
}

func TestCpu_Branch(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		a, b     word.Word
		taken    bool
	}){
		{"beq", 5, 5, true},
		{"beq", 5, 6, false},
		{"bne", 5, 6, true},
		{"bne", 5, 5, false},
		{"blt", 0xffffffff, 1, true},
		{"blt", 1, 0xffffffff, false},
		{"bge", 1, 0xffffffff, true},
		{"bge", 5, 5, true},
		{"bge", 0xffffffff, 1, false},
		{"bltu", 1, 0xffffffff, true},
		{"bltu", 0xffffffff, 1, false},
		{"bgeu", 0xffffffff, 1, true},
		{"bgeu", 1, 0xffffffff, false},
	}

	for _, entry := range table {
		for _, offset := range []word.Word{0x20, 0xfffffff0} {
			cpu, _ := newTestCpu(t)
			cpu.Registers.SetPc(0x40)
			require.NoError(t, cpu.Registers.WriteGpr(1, entry.a))
			require.NoError(t, cpu.Registers.WriteGpr(2, entry.b))

			increment, err := execute(t, cpu, encode(t, cpu, entry.mnemonic, 0, 1, 2, offset))
			assert.NoError(err)
			assert.Equal(!entry.taken, increment, entry.mnemonic)

			if entry.taken {
				assert.Equal(word.Word(0x40).Add(offset), cpu.Registers.Pc())
			} else {
				assert.Equal(word.Word(0x40), cpu.Registers.Pc())
			}
		}
	}
}

func TestCpu_Jump(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)

	// jal ra, 0x100
	cpu.Registers.SetPc(0x40)
	increment, err := execute(t, cpu, encode(t, cpu, "jal", 1, 0, 0, 0x100))
	assert.NoError(err)
	assert.False(increment)
	assert.Equal(word.Word(0x140), cpu.Registers.Pc())
	ra, _ := cpu.Registers.Read("ra")
	assert.Equal(word.Word(0x44), ra)

	// jal x0, -8
	increment, err = execute(t, cpu, encode(t, cpu, "jal", 0, 0, 0, 0xfffffff8))
	assert.NoError(err)
	assert.False(increment)
	assert.Equal(word.Word(0x138), cpu.Registers.Pc())

	// jalr ra, 4(t0): bit 0 of the target is cleared.
	require.NoError(t, cpu.Registers.Write("t0", 0x201))
	increment, err = execute(t, cpu, encode(t, cpu, "jalr", 1, 5, 0, 4))
	assert.NoError(err)
	assert.False(increment)
	assert.Equal(word.Word(0x204), cpu.Registers.Pc())
	ra, _ = cpu.Registers.Read("ra")
	assert.Equal(word.Word(0x13c), ra)

	// jalr t0, 0x10(t0): target uses t0 before it is written.
	require.NoError(t, cpu.Registers.Write("t0", 0x300))
	increment, err = execute(t, cpu, encode(t, cpu, "jalr", 5, 5, 0, 0x10))
	assert.NoError(err)
	assert.False(increment)
	assert.Equal(word.Word(0x310), cpu.Registers.Pc())
	t0, _ := cpu.Registers.Read("t0")
	assert.Equal(word.Word(0x208), t0)
}

func TestCpu_Upper(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	cpu.Registers.SetPc(0x40)

	increment, err := execute(t, cpu, encode(t, cpu, "lui", 1, 0, 0, 0xfffff000))
	assert.NoError(err)
	assert.True(increment)
	value, _ := cpu.Registers.ReadGpr(1)
	assert.Equal(word.Word(0xfffff000), value)

	increment, err = execute(t, cpu, encode(t, cpu, "auipc", 2, 0, 0, 0x1000))
	assert.NoError(err)
	assert.True(increment)
	value, _ = cpu.Registers.ReadGpr(2)
	assert.Equal(word.Word(0x1040), value)
	assert.Equal(word.Word(0x40), cpu.Registers.Pc())
}

func TestCpu_Environment(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)

	_, err := execute(t, cpu, 0x00000073)
	assert.ErrorIs(err, ErrEnvironmentCall)
	assert.True(IsTrap(err))

	_, err = execute(t, cpu, 0x00100073)
	assert.ErrorIs(err, ErrEnvironmentBreak)
	assert.True(IsTrap(err))

	assert.False(ErrInvalidInstruction.Trap())
	assert.False(ErrInvalidRegister.Trap())
	assert.False(ErrMisalignedAddress.Trap())
	assert.False(IsTrap(nil))
	assert.False(IsTrap(errors.New("other")))

	assert.Equal("environment call", ErrEnvironmentCall.Error())
}

func TestCpu_Zero(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	require.NoError(t, cpu.Registers.WriteGpr(1, 7))

	for _, code := range []word.Word{
		encode(t, cpu, "addi", 0, 1, 0, 5),
		encode(t, cpu, "add", 0, 1, 1, 0),
		encode(t, cpu, "lui", 0, 0, 0, 0x12345000),
		encode(t, cpu, "jal", 0, 0, 0, 8),
	} {
		_, err := execute(t, cpu, code)
		assert.NoError(err)
		value, err := cpu.Registers.Read("zero")
		assert.NoError(err)
		assert.Equal(word.Word(0), value)
	}
}

type tickCounter struct {
	io.Ram
	ticks int
}

func (tc *tickCounter) Tick() {
	tc.ticks++
}

func TestCpu_Step(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	rom := &io.Rom{}
	ticker := &tickCounter{}
	require.NoError(t, cpu.Bus.Connect(rom, io.NewMemoryRange(0, io.ROM_SIZE)))
	require.NoError(t, cpu.Bus.Connect(ticker, io.NewMemoryRange(0x10000, 0x100)))

	// addi x5, x0, 42 ; beq x0, x0, -4
	image := []byte{0x93, 0x02, 0xa0, 0x02, 0xe3, 0x0e, 0x00, 0xfe}
	require.NoError(t, rom.Load(image))

	err := cpu.Step()
	assert.NoError(err)
	x5, _ := cpu.Registers.ReadGpr(5)
	assert.Equal(word.Word(42), x5)
	assert.Equal(word.Word(4), cpu.Registers.Pc())
	assert.Equal(1, ticker.ticks)

	err = cpu.Step()
	assert.NoError(err)
	assert.Equal(word.Word(0), cpu.Registers.Pc())
	assert.Equal(2, ticker.ticks)
	assert.Equal(2, cpu.Ticks)

	// Branch does not ask for the increment.
	cpu.Registers.SetPc(4)
	increment, err := execute(t, cpu, cpu.Fetch())
	assert.NoError(err)
	assert.False(increment)
	assert.Equal(word.Word(0), cpu.Registers.Pc())

	// All zero word.
	cpu.Registers.SetPc(8)
	err = cpu.Step()
	assert.ErrorIs(err, ErrInvalidInstruction)
	var step *ErrStep
	require.ErrorAs(t, err, &step)
	assert.Equal(word.Word(8), step.Pc)
	assert.Equal(word.Word(0), step.Word)
	assert.Equal(word.Word(8), cpu.Registers.Pc())
	assert.Equal(2, ticker.ticks)

	cpu.Reset()
	assert.Equal(word.Word(0), cpu.Registers.Pc())
	x5, _ = cpu.Registers.ReadGpr(5)
	assert.Equal(word.Word(0), x5)
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_StepTrap(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	rom := &io.Rom{}
	require.NoError(t, cpu.Bus.Connect(rom, io.NewMemoryRange(0, io.ROM_SIZE)))

	// ebreak
	require.NoError(t, rom.Load([]byte{0x73, 0x00, 0x10, 0x00}))

	err := cpu.Step()
	assert.ErrorIs(err, ErrEnvironmentBreak)
	assert.True(IsTrap(err))
	assert.Equal(word.Word(0), cpu.Registers.Pc())
	assert.Equal(0, cpu.Ticks)
}
