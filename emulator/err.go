package emulator

import (
	"github.com/ezrec/rv32i/translate"
	"github.com/ezrec/rv32i/word"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     word.Word
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %08x %v", uint32(err.Pc), err.Err)
	}
	return f("line %d pc %08x %v", err.LineNo, uint32(err.Pc), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
