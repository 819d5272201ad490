package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/ezrec/rv32i/cpu"
	"github.com/ezrec/rv32i/word"
)

func Run(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	emu, err := newMachine(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(TraceFlag.Name) {
		emu.Trace = func(pc word.Word, dis cpu.Disassembly) {
			fmt.Fprintf(os.Stderr, "%08x: %v\n", uint32(pc), dis)
		}
	}

	start := time.Now()
	steps, err := emu.Run(ctx.Context, ctx.Int(MaxStepsFlag.Name))
	delta := time.Since(start)

	if emu.Verbose {
		fmt.Fprintf(os.Stderr, "%d steps in %v\n%v", steps, delta, emu.Cpu.String())
	}

	// An environment trap is the program's way of stopping.
	if err != nil && !cpu.IsTrap(err) {
		return fmt.Errorf("failed at step %d: %w", steps, err)
	}

	return nil
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run a program until it traps.",
	Description: "Run a program from ROM until it raises ecall or ebreak, faults, or reaches --max-steps.",
	Action:      Run,
	Flags: append([]cli.Flag{
		MaxStepsFlag,
		TraceFlag,
		PProfCPUFlag,
	}, machineFlags...),
}
