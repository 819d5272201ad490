package io

import (
	"github.com/ezrec/rv32i/word"
)

const ROM_SIZE = 64 * 1024 // Bytes of ROM and RAM storage.

// Rom is a 64 KiB read-only device. Only the low 16 address bits are decoded.
type Rom struct {
	Data [ROM_SIZE]byte
}

var _ Device = (*Rom)(nil)

// Name of the device.
func (rom *Rom) Name() string {
	return "ROM"
}

// Load copies an image to the start of the ROM, and clears the rest.
func (rom *Rom) Load(data []byte) (err error) {
	if len(data) > len(rom.Data) {
		err = ErrImageTooLarge
		return
	}

	n := copy(rom.Data[:], data)
	clear(rom.Data[n:])

	return
}

// Read returns the byte at address.
func (rom *Rom) Read(address word.Word) word.Word {
	return word.Word(rom.Data[address&(ROM_SIZE-1)])
}

// Write is ignored.
func (rom *Rom) Write(address word.Word, value word.Word) {
}

// Tick does nothing.
func (rom *Rom) Tick() {
}

// Ram is a 64 KiB read-write device. Only the low 16 address bits are decoded.
type Ram struct {
	Data [ROM_SIZE]byte
}

var _ Device = (*Ram)(nil)

// Name of the device.
func (ram *Ram) Name() string {
	return "RAM"
}

// Clear zeroes the RAM.
func (ram *Ram) Clear() {
	clear(ram.Data[:])
}

// Read returns the byte at address.
func (ram *Ram) Read(address word.Word) word.Word {
	return word.Word(ram.Data[address&(ROM_SIZE-1)])
}

// Write stores the low byte of value at address.
func (ram *Ram) Write(address word.Word, value word.Word) {
	ram.Data[address&(ROM_SIZE-1)] = byte(value)
}

// Tick does nothing.
func (ram *Ram) Tick() {
}
