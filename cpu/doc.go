// Package cpu implements the RV32I hart and assembler for the rv32i simulator.
//
// The hart consists of a program counter (pc) and 32 general-purpose 32-bit
// registers (x0-x31, with x0 hardwired to zero). Each Step fetches a
// little-endian word from the bus, decodes it against the instruction rule
// table, executes it, and ticks every device on the bus once.
//
// The assembler accepts the standard RV32I mnemonics and ABI register names,
// plus the common pseudo-instructions, and supports macros, labels, equates,
// and compile-time expression evaluation.
package cpu
