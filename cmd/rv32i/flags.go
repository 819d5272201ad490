package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ezrec/rv32i/emulator"
)

var OutFilePerm = os.FileMode(0o644)

var (
	LangFlag = &cli.StringFlag{
		Name:    "lang",
		Usage:   "Language for messages, as a BCP 47 tag. Defaults to the system locale.",
		EnvVars: []string{"RV32I_LANG"},
	}
	ImageFlag = &cli.PathFlag{
		Name:      "image",
		Usage:     "Flat binary image to load into ROM.",
		TakesFile: true,
	}
	AsmFlag = &cli.PathFlag{
		Name:      "asm",
		Usage:     "Assembly source to assemble and load into ROM.",
		TakesFile: true,
	}
	MaxStepsFlag = &cli.IntFlag{
		Name:  "max-steps",
		Usage: "Stop after this many steps. Zero is unlimited.",
		Value: 0,
	}
	TraceFlag = &cli.BoolFlag{
		Name:  "trace",
		Usage: "Print each instruction to stderr before it is executed.",
	}
	VerboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Verbose logging.",
	}
	DisplayFlag = &cli.IntFlag{
		Name:  "display",
		Usage: "Render the text display to stderr every N steps. Zero disables.",
		Value: 0,
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "Enable pprof cpu profiling.",
	}
	CountFlag = &cli.IntFlag{
		Name:  "count",
		Usage: "Number of instructions to step.",
		Value: 1,
	}
	OutFlag = &cli.PathFlag{
		Name:      "out",
		Usage:     "Output image file.",
		TakesFile: true,
		Required:  true,
	}
	BaseFlag = &cli.UintFlag{
		Name:  "base",
		Usage: "Address of the first byte of the image.",
		Value: 0,
	}
)

var machineFlags = []cli.Flag{
	ImageFlag,
	AsmFlag,
	VerboseFlag,
	DisplayFlag,
}

var ErrNoProgram = errors.New("one of --image or --asm is required")

// newMachine builds an emulator, and loads the program named by the flags.
// Tape input is stdin, and tape output is stdout.
func newMachine(ctx *cli.Context) (emu *emulator.Emulator, err error) {
	emu = emulator.NewEmulator()
	emu.Verbose = ctx.Bool(VerboseFlag.Name)

	image := ctx.Path(ImageFlag.Name)
	source := ctx.Path(AsmFlag.Name)

	switch {
	case source != "" && image != "":
		err = fmt.Errorf("--image and --asm are exclusive")
		return
	case source != "":
		err = assembleInto(emu, source)
	case image != "":
		var data []byte
		data, err = os.ReadFile(image)
		if err != nil {
			err = fmt.Errorf("failed to read image %q: %w", image, err)
			return
		}
		err = emu.Load(data)
	default:
		err = ErrNoProgram
	}
	if err != nil {
		return
	}

	emu.Tape.Input = os.Stdin
	emu.Tape.Output = os.Stdout

	if refresh := ctx.Int(DisplayFlag.Name); refresh > 0 {
		emu.Display.Refresh = refresh
		emu.Display.Output = os.Stderr
	}

	return
}

// assembleInto assembles the source file and loads it into the emulator.
func assembleInto(emu *emulator.Emulator, source string) (err error) {
	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err := emu.Assembler().Parse(inf)
	if err != nil {
		return fmt.Errorf("%v: %w", source, err)
	}

	return emu.LoadProgram(prog)
}
