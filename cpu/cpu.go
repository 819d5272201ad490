package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rv32i/io"
	"github.com/ezrec/rv32i/word"
)

var _cpu_defines = map[string]string{
	"XLEN":      "32",
	"GPR_COUNT": fmt.Sprintf("%v", GPR_COUNT),
}

// Cpu is the simulation context of a single RV32I hart.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Registers *RegisterFile   // Program counter and general purpose registers.
	Bus       io.Bus          // Address bus, and its devices.
	Set       *InstructionSet // Decoder.

	Ticks int // Instructions completed since reset.
}

// NewCpu creates a new CPU with an empty bus.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Registers: NewRegisterFile(),
		Set:       NewInstructionSet(),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return cpu.Registers.String()
}

// Reset the CPU state: zeroes the registers, the program counter, and the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Registers.Reset()
	cpu.Ticks = 0
}

// Fetch returns the little-endian word at the program counter.
func (cpu *Cpu) Fetch() (code word.Word) {
	return cpu.Bus.ReadLeWord(cpu.Registers.Pc())
}

// Step executes a single instruction, then ticks the bus once.
// Faults abort the step, and are returned wrapped in an *ErrStep.
func (cpu *Cpu) Step() (err error) {
	pc := cpu.Registers.Pc()
	code := cpu.Fetch()

	defer func() {
		if err != nil {
			err = &ErrStep{Pc: pc, Word: code, Err: err}
		}
	}()

	inst, err := cpu.Set.Decode(code)
	if err != nil {
		return
	}

	if cpu.Verbose {
		dis, _ := inst.Disassemble(code)
		log.Printf("%08x: %08x %v", uint32(pc), uint32(code), dis)
	}

	increment, err := inst.Execute(code, cpu)
	if err != nil {
		return
	}

	if increment {
		cpu.Registers.SetPc(cpu.Registers.Pc().Add(4))
	}

	cpu.Bus.Tick()
	cpu.Ticks++

	return
}
