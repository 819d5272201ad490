package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ezrec/rv32i/cpu"
	"github.com/ezrec/rv32i/word"
)

// disassemble lists every aligned word of the image.
// Words that are not instructions are shown as .word data.
func disassemble(w io.Writer, base word.Word, image []byte) {
	set := cpu.NewInstructionSet()

	for n := 0; n < len(image); n += 4 {
		var data [4]byte
		copy(data[:], image[n:])
		code := word.FromLeBytes(data)

		text := fmt.Sprintf(".word %#x", uint32(code))
		dis, err := set.Disassemble(code)
		if err == nil {
			text = dis.String()
		}

		fmt.Fprintf(w, "%08x: %08x  %v\n", uint32(base)+uint32(n), uint32(code), text)
	}
}

func Disasm(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one image file, got %d", ctx.NArg())
	}

	image, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	disassemble(ctx.App.Writer, word.Word(ctx.Uint(BaseFlag.Name)), image)

	return nil
}

var DisasmCommand = &cli.Command{
	Name:        "disasm",
	Usage:       "Disassemble a flat image.",
	Description: "Disassemble a flat little-endian image, printing address, word, and instruction.",
	ArgsUsage:   "IMAGE",
	Action:      Disasm,
	Flags: []cli.Flag{
		BaseFlag,
	},
}
