// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rv32i/word"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reMemory    = regexp.MustCompile(`^(.*)\(([^()]+)\)$`)
	reLabel     = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for RV32I.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string    // Predefines
	Label     map[string]word.Word // Map of labels to addresses.
	Equate    map[string]string    // Map of equates.
	Macro     map[string](*Macro)  // Map of macros.

	set       *InstructionSet
	registers map[string]int
	expanded  int // Count of macro expansions.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(text string) (value word.Word, err error) {
	if equate, ok := asm.Equate[text]; ok {
		text = equate
	}

	if len(text) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	invert := false
	if text[0] == '~' {
		invert = true
		text = text[1:]
	}

	v64, err := strconv.ParseInt(text, 0, 64)
	if err != nil || v64 > 0xffffffff || v64 < -0x80000000 {
		err = ErrParseNumber(text)
		return
	}

	value = word.Word(uint32(v64))
	if invert {
		value = ^value
	}

	return
}

// register returns the index of a register name or alias.
func (asm *Assembler) register(text string) (index int, err error) {
	if equate, ok := asm.Equate[text]; ok {
		text = equate
	}

	index, ok := asm.registers[text]
	if !ok {
		err = ErrRegisterInvalid
		return
	}

	return
}

// memory splits an 'imm(rs1)' operand.
func (asm *Assembler) memory(text string) (offset word.Word, base int, err error) {
	parts := reMemory.FindStringSubmatch(text)
	if parts == nil {
		err = ErrRegisterInvalid
		return
	}

	if len(parts[1]) > 0 {
		offset, err = asm.valueOf(parts[1])
		if err != nil {
			return
		}
	}

	base, err = asm.register(parts[2])
	return
}

// target returns either a numeric offset, or a label to be linked.
func (asm *Assembler) target(text string) (value word.Word, label string, err error) {
	value, err = asm.valueOf(text)
	if err == nil {
		return
	}

	if !reLabel.MatchString(text) {
		return
	}

	err = nil
	label = text
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value word.Word, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 word.Word
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = word.Word(uint32(st_int64))
	return
}

// stripComment removes a ';' or '#' comment that is outside of quotes.
func stripComment(text string) string {
	var quote rune
	escape := false

	for n, r := range text {
		switch {
		case quote != 0:
			if escape {
				escape = false
			} else if r == '\\' {
				escape = true
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ';' || r == '#':
			return text[:n]
		}
	}

	return text
}

// splitWords splits a line at spaces and commas, keeping quotes whole.
func splitWords(line string) (words []string) {
	var sb strings.Builder
	var quote rune
	escape := false

	flush := func() {
		if sb.Len() > 0 {
			words = append(words, sb.String())
			sb.Reset()
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			sb.WriteRune(r)
			if escape {
				escape = false
			} else if r == '\\' {
				escape = true
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			sb.WriteRune(r)
		case r == ',' || unicode.IsSpace(r):
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()

	return
}

// character converts a 'x' literal to its decimal value.
func character(text string) string {
	str := text[1 : len(text)-1]
	if str[0] == '\\' {
		str = str[1:]
		switch str {
		case "\\":
			str = "\\"
		case "n":
			str = "\n"
		case "r":
			str = "\r"
		case "t":
			str = "\t"
		case "e":
			str = "\033"
		case "0":
			str = "\000"
		default:
			return text
		}
	} else if len(str) != 1 {
		return text
	}

	return fmt.Sprintf("%v", str[0])
}

// parseLine parses a single line into words, handling equates, labels and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", uint32(value))
	})
	if err != nil {
		return
	}

	words = splitWords(line)
	if len(words) == 0 {
		return
	}

	// Do 'x' evaluations
	for n, text := range words {
		if text[0] != '"' {
			words[n] = reCharacter.ReplaceAllStringFunc(text, character)
		}
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, text := range words {
		// Check for equate next
		equate, ok := asm.Equate[text]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expanded++
		expansion := asm.expanded

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_%v_", name, expansion, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the address of the next opcode.
func (asm *Assembler) currentAddress() word.Word {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + word.Word(last.Size())
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.set == nil {
		asm.set = NewInstructionSet()
		asm.registers = map[string]int{}
		for name, index := range NewRegisterFile().Aliases() {
			if index != PC_INDEX {
				asm.registers[name] = index
			}
		}
	}

	asm.Label = map[string]word.Word{}
	asm.Opcode = asm.Opcode[:0]
	asm.expanded = 0
	asm.Macro = map[string](*Macro){}
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}

		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		target, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}

		op.Codes, err = op.link(op.Address, target)
		if err != nil {
			return
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// checkImmediate verifies that an immediate fits the instruction format.
func checkImmediate(format Format, imm word.Word) (err error) {
	value := int64(imm.Signed())

	switch format {
	case FORMAT_I, FORMAT_LOAD, FORMAT_S:
		if value < -2048 || value > 2047 {
			err = ErrImmediateRange
		}
	case FORMAT_SHIFT:
		if imm > 31 {
			err = ErrImmediateRange
		}
	case FORMAT_B:
		if value < -4096 || value > 4094 {
			err = ErrImmediateRange
		} else if value&1 != 0 {
			err = ErrImmediateAlign
		}
	case FORMAT_J:
		if value < -(1<<20) || value > (1<<20)-2 {
			err = ErrImmediateRange
		} else if value&1 != 0 {
			err = ErrImmediateAlign
		}
	case FORMAT_U:
		if imm > 0xfffff {
			err = ErrImmediateRange
		}
	}

	return
}

// encode assembles a single instruction. U format immediates are the upper 20 bits.
func (asm *Assembler) encode(mnemonic string, rd, rs1, rs2 int, imm word.Word) (code word.Word, err error) {
	inst, ok := asm.set.Lookup(mnemonic)
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	err = checkImmediate(inst.Format, imm)
	if err != nil {
		return
	}

	if inst.Format == FORMAT_U {
		imm <<= 12
	}

	code = inst.Encode(rd, rs1, rs2, imm)
	return
}

// splitUpper splits a value into a lui/auipc upper immediate, and
// a sign-extended addi lower immediate.
func splitUpper(value word.Word) (hi, lo word.Word) {
	hi = (value.Add(0x800) >> 12) & 0xfffff
	lo = value.Sub(hi << 12)
	return
}

// expectArgs checks the operand count.
func expectArgs(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeValueMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}

	return
}

// pseudo rewrites pseudo-instructions into base instructions.
func pseudo(words []string) []string {
	args := words[1:]

	switch {
	case words[0] == "nop" && len(args) == 0:
		return []string{"addi", "x0", "x0", "0"}
	case words[0] == "mv" && len(args) == 2:
		return []string{"addi", args[0], args[1], "0"}
	case words[0] == "not" && len(args) == 2:
		return []string{"xori", args[0], args[1], "-1"}
	case words[0] == "neg" && len(args) == 2:
		return []string{"sub", args[0], "x0", args[1]}
	case words[0] == "j" && len(args) == 1:
		return []string{"jal", "x0", args[0]}
	case words[0] == "jal" && len(args) == 1:
		return []string{"jal", "ra", args[0]}
	case words[0] == "call" && len(args) == 1:
		return []string{"jal", "ra", args[0]}
	case words[0] == "jr" && len(args) == 1:
		return []string{"jalr", "x0", "0(" + args[0] + ")"}
	case words[0] == "ret" && len(args) == 0:
		return []string{"jalr", "x0", "0(ra)"}
	case words[0] == "beqz" && len(args) == 2:
		return []string{"beq", args[0], "x0", args[1]}
	case words[0] == "bnez" && len(args) == 2:
		return []string{"bne", args[0], "x0", args[1]}
	}

	return words
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []word.Word
	var data []byte
	var label string
	var link linkFunc

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	emit := func() {
		if len(codes) == 0 && len(data) == 0 {
			return
		}
		opcode := Opcode{
			LineNo:    lineno,
			Address:   asm.currentAddress(),
			Words:     initial_words,
			Codes:     codes,
			Data:      data,
			LinkLabel: label,
			link:      link,
		}
		asm.Opcode = append(asm.Opcode, opcode)
		codes, data, label, link = nil, nil, "", nil
	}
	defer func() {
		if err == nil {
			emit()
		}
	}()

	if strings.HasPrefix(words[0], ".") {
		return asm.parseDirective(words, emit, &codes, &data, &label, &link)
	}

	words = pseudo(words)
	args := words[1:]

	var rd, rs1, rs2 int
	var imm word.Word

	switch words[0] {
	case "li":
		err = expectArgs(args, 2)
		if err != nil {
			return
		}
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		imm, label, err = asm.target(args[1])
		if err != nil {
			return
		}
		if len(label) == 0 {
			codes, err = asm.loadImmediate(rd, imm, "lui", true)
			return
		}
		link = func(address, target word.Word) ([]word.Word, error) {
			return asm.loadImmediate(rd, target, "lui", false)
		}
		codes = make([]word.Word, 2)
		return
	case "la":
		err = expectArgs(args, 2)
		if err != nil {
			return
		}
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		imm, label, err = asm.target(args[1])
		if err != nil {
			return
		}
		link = func(address, target word.Word) ([]word.Word, error) {
			return asm.loadImmediate(rd, target.Sub(address), "auipc", false)
		}
		if len(label) == 0 {
			codes, err = link(asm.currentAddress(), imm)
			link = nil
		} else {
			codes = make([]word.Word, 2)
		}
		return
	}

	inst, ok := asm.set.Lookup(words[0])
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	switch inst.Format {
	case FORMAT_R:
		err = expectArgs(args, 3)
		if err == nil {
			rd, err = asm.register(args[0])
		}
		if err == nil {
			rs1, err = asm.register(args[1])
		}
		if err == nil {
			rs2, err = asm.register(args[2])
		}
	case FORMAT_I, FORMAT_SHIFT:
		err = expectArgs(args, 3)
		if err == nil {
			rd, err = asm.register(args[0])
		}
		if err == nil {
			rs1, err = asm.register(args[1])
		}
		if err == nil {
			imm, err = asm.valueOf(args[2])
		}
	case FORMAT_LOAD:
		err = expectArgs(args, 2)
		if err == nil {
			rd, err = asm.register(args[0])
		}
		if err == nil {
			imm, rs1, err = asm.memory(args[1])
		}
	case FORMAT_S:
		err = expectArgs(args, 2)
		if err == nil {
			rs2, err = asm.register(args[0])
		}
		if err == nil {
			imm, rs1, err = asm.memory(args[1])
		}
	case FORMAT_B:
		err = expectArgs(args, 3)
		if err == nil {
			rs1, err = asm.register(args[0])
		}
		if err == nil {
			rs2, err = asm.register(args[1])
		}
		if err == nil {
			imm, label, err = asm.target(args[2])
		}
	case FORMAT_U:
		err = expectArgs(args, 2)
		if err == nil {
			rd, err = asm.register(args[0])
		}
		if err == nil {
			imm, err = asm.valueOf(args[1])
		}
	case FORMAT_J:
		err = expectArgs(args, 2)
		if err == nil {
			rd, err = asm.register(args[0])
		}
		if err == nil {
			imm, label, err = asm.target(args[1])
		}
	case FORMAT_SYSTEM:
		err = expectArgs(args, 0)
	}
	if err != nil {
		return
	}

	mnemonic := words[0]
	if len(label) != 0 {
		link = func(address, target word.Word) (linked []word.Word, err error) {
			code, err := asm.encode(mnemonic, rd, rs1, rs2, target.Sub(address))
			if err != nil {
				return
			}
			linked = []word.Word{code}
			return
		}
		codes = make([]word.Word, 1)
		return
	}

	code, err := asm.encode(mnemonic, rd, rs1, rs2, imm)
	if err != nil {
		return
	}

	codes = []word.Word{code}
	return
}

// loadImmediate builds an 'upper' (lui or auipc) and addi pair for value.
// If short is set, only the instructions needed are generated.
func (asm *Assembler) loadImmediate(rd int, value word.Word, upper string, short bool) (codes []word.Word, err error) {
	hi, lo := splitUpper(value)

	if short && hi == 0 {
		code, err := asm.encode("addi", rd, 0, 0, lo)
		return []word.Word{code}, err
	}

	code, err := asm.encode(upper, rd, 0, 0, hi)
	if err != nil {
		return
	}
	codes = append(codes, code)

	if short && lo == 0 {
		return
	}

	code, err = asm.encode("addi", rd, rd, 0, lo)
	if err != nil {
		return
	}
	codes = append(codes, code)

	return
}

// parseDirective handles the data and alignment directives.
// Each value of a .word that refers to a label becomes its own opcode.
func (asm *Assembler) parseDirective(words []string, emit func(), codes *[]word.Word, data *[]byte, label *string, link *linkFunc) (err error) {
	args := words[1:]

	switch words[0] {
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			value, target, err := asm.target(arg)
			if err != nil {
				return err
			}
			if len(target) == 0 {
				*codes = append(*codes, value)
				continue
			}
			emit()
			*codes = make([]word.Word, 1)
			*label = target
			*link = func(_, address word.Word) ([]word.Word, error) {
				return []word.Word{address}, nil
			}
			emit()
		}
	case ".half", ".byte":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			value, err := asm.valueOf(arg)
			if err != nil {
				return err
			}
			*data = append(*data, byte(value))
			if words[0] == ".half" {
				*data = append(*data, byte(value>>8))
			}
		}
	case ".ascii", ".asciz":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			text, err := strconv.Unquote(arg)
			if err != nil || arg[0] != '"' {
				return ErrStringSyntax
			}
			*data = append(*data, text...)
			if words[0] == ".asciz" {
				*data = append(*data, 0)
			}
		}
	case ".align":
		err = expectArgs(args, 1)
		if err != nil {
			return
		}
		var align word.Word
		align, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if align == 0 || align&(align-1) != 0 {
			err = ErrImmediateAlign
			return
		}
		pad := (align - asm.currentAddress()%align) % align
		*data = make([]byte, pad)
	default:
		err = ErrDirectiveInvalid
	}

	return
}
