package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ezrec/rv32i/cpu"
	"github.com/ezrec/rv32i/emulator"
)

// stepListing single steps the emulator count times, printing each
// instruction and the registers it changed.
func stepListing(w io.Writer, emu *emulator.Emulator, count int) (err error) {
	for range count {
		pc := emu.Pc()
		code := emu.Cpu.Fetch()

		text := "???"
		dis, dis_err := emu.Cpu.Set.Disassemble(code)
		if dis_err == nil {
			text = dis.String()
		}

		before := emu.Registers.Snapshot()
		err = emu.Step()
		after := emu.Registers.Snapshot()

		var changes []string
		for _, name := range before.Diff(after) {
			if name == "pc" {
				continue
			}
			value, _ := emu.Registers.Read(name)
			changes = append(changes, fmt.Sprintf("%v=%08x", name, uint32(value)))
		}

		fmt.Fprintf(w, "%08x: %08x  %-28v %v\n", uint32(pc), uint32(code), text, strings.Join(changes, " "))

		if err != nil {
			if cpu.IsTrap(err) {
				fmt.Fprintf(w, "%v\n", err)
				err = nil
			}
			return
		}
	}

	return
}

func Step(ctx *cli.Context) error {
	emu, err := newMachine(ctx)
	if err != nil {
		return err
	}

	return stepListing(ctx.App.Writer, emu, ctx.Int(CountFlag.Name))
}

var StepCommand = &cli.Command{
	Name:        "step",
	Usage:       "Single step a program.",
	Description: "Single step a program, printing each instruction and the registers it changes.",
	Action:      Step,
	Flags: append([]cli.Flag{
		CountFlag,
	}, machineFlags...),
}
