package cpu

import (
	"errors"

	"github.com/ezrec/rv32i/translate"
	"github.com/ezrec/rv32i/word"
)

var f = translate.From

// Exception is the closed set of faults raised by the core.
type Exception int

//go:generate go tool stringer -linecomment -type=Exception
const (
	ErrInvalidInstruction = Exception(0) // invalid instruction
	ErrInvalidRegister    = Exception(1) // invalid register
	ErrMisalignedAddress  = Exception(2) // misaligned address
	ErrEnvironmentCall    = Exception(3) // environment call
	ErrEnvironmentBreak   = Exception(4) // environment break
)

func (exc Exception) Error() string {
	return f("%v", exc.String())
}

// Trap returns true for the software raised environment traps.
func (exc Exception) Trap() bool {
	return exc == ErrEnvironmentCall || exc == ErrEnvironmentBreak
}

// IsTrap returns true if err wraps an environment trap.
func IsTrap(err error) bool {
	var exc Exception
	if errors.As(err, &exc) {
		return exc.Trap()
	}

	return false
}

// ErrStep locates a fault raised during a single step.
type ErrStep struct {
	Pc   word.Word
	Word word.Word
	Err  error
}

func (err *ErrStep) Error() string {
	return f("pc %08x (%08x): %v", uint32(err.Pc), uint32(err.Word), err.Err)
}

func (err *ErrStep) Unwrap() error {
	return err.Err
}

var (
	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrDirectiveInvalid   = errors.New(f("directive invalid"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
	ErrImmediateAlign     = errors.New(f("immediate not aligned"))
	ErrStringSyntax       = errors.New(f("string syntax"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %v '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
