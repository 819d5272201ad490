package io

import (
	"errors"

	"github.com/ezrec/rv32i/translate"
)

var f = translate.From

var (
	// Bus errors
	ErrRangeOverlap = errors.New(f("memory range overlap"))
	ErrRangeEmpty   = errors.New(f("memory range empty"))

	// Device errors
	ErrImageTooLarge = errors.New(f("image too large"))
)

// ErrConnect reports which device could not be connected, and why.
type ErrConnect struct {
	Name  string
	Range MemoryRange
	Err   error
}

func (err *ErrConnect) Error() string {
	return f("connect %v at %v: %v", err.Name, err.Range, err.Err)
}

func (err *ErrConnect) Unwrap() error {
	return err.Err
}
