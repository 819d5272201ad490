// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"iter"
	"log"

	"github.com/ezrec/rv32i/word"
)

// Mapping pairs a device with the range it occupies.
type Mapping struct {
	Range  MemoryRange
	Device Device
}

// Bus is an ordered collection of devices with non-overlapping ranges.
// Devices are connected once and never removed.
type Bus struct {
	Verbose bool // If set, logs device connections.

	mapping []Mapping
}

// Connect maps a device at a memory range.
// Fails with ErrRangeOverlap if the range intersects an existing mapping.
func (bus *Bus) Connect(device Device, mr MemoryRange) (err error) {
	defer func() {
		if err != nil {
			err = &ErrConnect{Name: device.Name(), Range: mr, Err: err}
		}
	}()

	if mr.Size == 0 {
		err = ErrRangeEmpty
		return
	}

	for _, mapped := range bus.mapping {
		if mapped.Range.Intersects(mr) {
			err = ErrRangeOverlap
			return
		}
	}

	bus.mapping = append(bus.mapping, Mapping{Range: mr, Device: device})

	if bus.Verbose {
		log.Printf("bus: %v at %v", device.Name(), mr)
	}

	return
}

// Device returns the device mapped at address.
func (bus *Bus) Device(address word.Word) (device Device, mr MemoryRange, ok bool) {
	for _, mapped := range bus.mapping {
		if mapped.Range.Contains(address) {
			return mapped.Device, mapped.Range, true
		}
	}

	return
}

// Devices iterates over the mapped devices in registration order.
func (bus *Bus) Devices() iter.Seq2[MemoryRange, Device] {
	return func(yield func(mr MemoryRange, device Device) bool) {
		for _, mapped := range bus.mapping {
			if !yield(mapped.Range, mapped.Device) {
				return
			}
		}
	}
}

// Read reads a byte. Unmapped addresses read as zero.
func (bus *Bus) Read(address word.Word) word.Word {
	device, _, ok := bus.Device(address)
	if !ok {
		return 0
	}

	return device.Read(address)
}

// Write writes a byte. Writes to unmapped addresses are dropped.
func (bus *Bus) Write(address word.Word, value word.Word) {
	device, _, ok := bus.Device(address)
	if !ok {
		return
	}

	device.Write(address, value)
}

// Load writes data byte by byte, starting at offset.
func (bus *Bus) Load(offset word.Word, data []byte) {
	for n, b := range data {
		bus.Write(offset+word.Word(n), word.Word(b))
	}
}

// ReadLeWord composes four consecutive bytes, lowest address least significant.
func (bus *Bus) ReadLeWord(offset word.Word) word.Word {
	var data [4]byte
	for n := range data {
		data[n] = byte(bus.Read(offset + word.Word(n)))
	}

	return word.FromLeBytes(data)
}

// ReadLeHalf composes two consecutive bytes, lowest address least significant.
func (bus *Bus) ReadLeHalf(offset word.Word) word.Word {
	lo := bus.Read(offset) & 0xff
	hi := bus.Read(offset+1) & 0xff

	return (hi << 8) | lo
}

// WriteLeWord stores four bytes, least significant at the lowest address.
func (bus *Bus) WriteLeWord(offset word.Word, value word.Word) {
	for n, b := range value.LeBytes() {
		bus.Write(offset+word.Word(n), word.Word(b))
	}
}

// WriteLeHalf stores the low two bytes, least significant at the lowest address.
func (bus *Bus) WriteLeHalf(offset word.Word, value word.Word) {
	bus.Write(offset, value&0xff)
	bus.Write(offset+1, (value>>8)&0xff)
}

// Tick ticks every device once, in registration order.
func (bus *Bus) Tick() {
	for _, mapped := range bus.mapping {
		mapped.Device.Tick()
	}
}
