package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ezrec/rv32i/emulator"
)

func Asm(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one source file, got %d", ctx.NArg())
	}
	source := ctx.Args().First()

	inf, err := os.Open(source)
	if err != nil {
		return err
	}
	defer inf.Close()

	asm := emulator.NewEmulator().Assembler()
	asm.Verbose = ctx.Bool(VerboseFlag.Name)

	prog, err := asm.Parse(inf)
	if err != nil {
		return fmt.Errorf("%v: %w", source, err)
	}

	return os.WriteFile(ctx.Path(OutFlag.Name), prog.Binary(), OutFilePerm)
}

var AsmCommand = &cli.Command{
	Name:        "asm",
	Usage:       "Assemble a source file to a flat image.",
	Description: "Assemble a source file to a flat little-endian image, based at address zero.",
	ArgsUsage:   "SOURCE",
	Action:      Asm,
	Flags: []cli.Flag{
		OutFlag,
		VerboseFlag,
	},
}
