// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rv32i/cpu"
	"github.com/ezrec/rv32i/internal"
	"github.com/ezrec/rv32i/io"
	"github.com/ezrec/rv32i/word"
)

const (
	ROM_BASE     = word.Word(0x0000_0000)
	RAM_BASE     = word.Word(0x0001_0000)
	RAM_SIZE     = word.Word(io.ROM_SIZE)
	TAPE_BASE    = word.Word(0x1000_0000)
	DISPLAY_BASE = word.Word(0x2000_0000)

	CHECK_INTERVAL = 100 // Steps between context checks in Run.
)

var _emulator_defines = map[string]string{
	"ROM_BASE":     fmt.Sprintf("%#x", uint32(ROM_BASE)),
	"ROM_SIZE":     fmt.Sprintf("%#x", io.ROM_SIZE),
	"RAM_BASE":     fmt.Sprintf("%#x", uint32(RAM_BASE)),
	"RAM_SIZE":     fmt.Sprintf("%#x", uint32(RAM_SIZE)),
	"RAM_TOP":      fmt.Sprintf("%#x", uint32(RAM_BASE+RAM_SIZE)),
	"TAPE_BASE":    fmt.Sprintf("%#x", uint32(TAPE_BASE)),
	"TAPE_SIZE":    fmt.Sprintf("%#x", io.TAPE_SIZE),
	"DISPLAY_SIZE": fmt.Sprintf("%v", io.DISPLAY_COLUMNS*io.DISPLAY_ROWS),
}

// Emulator state. CPU + memory + devices.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Rom     io.Rom      // Boot image.
	Ram     io.Ram      // Working memory.
	Tape    io.Tape     // Console.
	Display *io.Display // Text frame buffer.

	// Trace, if set, is called before each instruction is executed.
	Trace func(pc word.Word, dis cpu.Disassembly)
}

// NewEmulator creates a new emulator, with the standard memory map.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
		Display: io.NewDisplay(DISPLAY_BASE, io.DISPLAY_COLUMNS, io.DISPLAY_ROWS),
	}

	bus := &emu.Cpu.Bus
	for _, mapping := range []io.Mapping{
		{Range: io.NewMemoryRange(ROM_BASE, io.ROM_SIZE), Device: &emu.Rom},
		{Range: io.NewMemoryRange(RAM_BASE, RAM_SIZE), Device: &emu.Ram},
		{Range: io.NewMemoryRange(TAPE_BASE, io.TAPE_SIZE), Device: &emu.Tape},
		{Range: emu.Display.Range(), Device: emu.Display},
	} {
		err := bus.Connect(mapping.Device, mapping.Range)
		if err != nil {
			// The standard map is fixed; an overlap is a programming error.
			panic(err)
		}
	}

	emu.Reset()

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Tape.Defines(),
		emu.Display.Defines(),
	)
}

// Assembler returns an assembler predefined with the memory map.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// Reset the machine: clears RAM and the display, rewinds the tape,
// and points the stack at the top of RAM.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	emu.Ram.Clear()
	emu.Tape.Rewind()
	emu.Display.Clear()

	_ = emu.Cpu.Registers.Write("sp", RAM_BASE+RAM_SIZE)
	emu.Cpu.Registers.SetPc(ROM_BASE)
}

// Load a flat image into ROM, and reset the machine.
func (emu *Emulator) Load(image []byte) (err error) {
	err = emu.Rom.Load(image)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: loaded %d bytes", len(image))
	}

	emu.Reset()

	return
}

// LoadProgram loads an assembled program, keeping it for line lookup.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() word.Word {
	return emu.Cpu.Registers.Pc()
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	return emu.Program.LineNo(emu.Pc())
}

// Step performs a single instruction of the emulator.
func (emu *Emulator) Step() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Pc()
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	if emu.Trace != nil {
		dis, dis_err := emu.Cpu.Set.Disassemble(emu.Cpu.Fetch())
		if dis_err == nil {
			emu.Trace(pc, dis)
		}
	}

	err = emu.Cpu.Step()

	return
}

// Run steps the emulator until an error (including an environment trap),
// the context is cancelled, or limit steps have executed. A zero limit is
// unlimited. Returns the number of steps completed.
func (emu *Emulator) Run(ctx context.Context, limit int) (steps int, err error) {
	for limit == 0 || steps < limit {
		if steps%CHECK_INTERVAL == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}

		err = emu.Step()
		if err != nil {
			if emu.Verbose {
				log.Printf("emulator: stopped after %d steps: %v", steps, err)
			}
			return
		}
		steps++
	}

	return
}
