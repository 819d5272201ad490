// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package io provides the address bus and the memory-mapped devices of the
// RV32I simulator: 64 KiB ROM and RAM, a byte-stream tape console, and a
// text-mode display.
//
// Devices are addressed one byte per call. Multi-byte values are composed by
// the caller, little-endian.
package io

import (
	"github.com/ezrec/rv32i/word"
)

// Device defines the interface for everything that can be plugged into the bus.
type Device interface {
	// Name identifies the device.
	Name() string
	// Read returns the byte at address, zero extended.
	Read(address word.Word) word.Word
	// Write stores the low byte of value at address.
	Write(address word.Word, value word.Word)
	// Tick advances the device by one executed instruction.
	Tick()
}

// MemoryRange is the half-open address interval [Base, Base+Size).
type MemoryRange struct {
	Base word.Word
	Size word.Word
}

// NewMemoryRange creates a memory range.
func NewMemoryRange(base, size word.Word) MemoryRange {
	return MemoryRange{Base: base, Size: size}
}

// End returns the first address past the range. It may be 1<<32.
func (mr MemoryRange) End() uint64 {
	return uint64(mr.Base) + uint64(mr.Size)
}

// Contains returns true if the address lies inside the range.
func (mr MemoryRange) Contains(address word.Word) bool {
	return address >= mr.Base && uint64(address) < mr.End()
}

// Intersects returns true if the two ranges share at least one address.
func (mr MemoryRange) Intersects(other MemoryRange) bool {
	if mr.Size == 0 || other.Size == 0 {
		return false
	}

	return uint64(mr.Base) < other.End() && uint64(other.Base) < mr.End()
}

// String returns the range as [base, end).
func (mr MemoryRange) String() string {
	return f("[%08x, %09x)", uint32(mr.Base), mr.End())
}
