package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rv32i/emulator"
)

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	image := []byte{
		0x93, 0x02, 0xa0, 0x02, // addi x5, x0, 42
		0x00, 0x00, 0x00, 0x00, // invalid
		0x73, 0x00, // short trailing word
	}

	var out bytes.Buffer
	disassemble(&out, 0x100, image)

	assert.Equal(
		"00000100: 02a00293  addi x5, x0, 42\n"+
			"00000104: 00000000  .word 0x0\n"+
			"00000108: 00000073  ecall\n",
		out.String())
}

func TestStepListing(t *testing.T) {
	assert := assert.New(t)

	emu := emulator.NewEmulator()
	prog, err := emu.Assembler().Parse(strings.NewReader(strings.Join([]string{
		"addi a0, x0, 5",
		"addi a1, a0, 1",
		"ecall",
		"nop",
	}, "\n")))
	require.NoError(t, err)
	require.NoError(t, emu.LoadProgram(prog))

	var out bytes.Buffer
	err = stepListing(&out, emu, 10)
	assert.NoError(err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if assert.Len(lines, 4) {
		assert.True(strings.HasPrefix(lines[0], "00000000: 00500513  addi x10, x0, 5"), lines[0])
		assert.True(strings.HasSuffix(lines[0], "x10=00000005"), lines[0])
		assert.True(strings.HasPrefix(lines[1], "00000004: 00150593  addi x11, x10, 1"), lines[1])
		assert.True(strings.HasSuffix(lines[1], "x11=00000006"), lines[1])
		assert.True(strings.HasPrefix(lines[2], "00000008: 00000073  ecall"), lines[2])
		assert.Contains(lines[3], "environment call")
	}

	assert.Equal(2, emu.Ticks())
}
