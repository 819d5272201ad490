// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ezrec/rv32i/translate"
)

func main() {
	app := cli.NewApp()
	app.Name = "rv32i"
	app.Usage = "RV32I simulator"
	app.Description = "Cycle stepped RV32I simulator, assembler, and disassembler"
	app.Flags = []cli.Flag{
		LangFlag,
	}
	app.Before = func(ctx *cli.Context) error {
		if lang := ctx.String(LangFlag.Name); lang != "" {
			translate.SetLanguage(lang)
		}
		return nil
	}
	app.Commands = []*cli.Command{
		RunCommand,
		StepCommand,
		AsmCommand,
		DisasmCommand,
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-c
			cancel()
			fmt.Fprintln(os.Stderr, "\r\nExiting...")
		}
	}()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			_, _ = fmt.Fprintf(os.Stderr, "command interrupted\n")
			os.Exit(130)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}
