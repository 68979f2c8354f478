/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "github.com/theseus-rs/ristretto-sub006/opcodes"

// Instruction is one decoded bytecode instruction: spec.md §3 calls
// for "one discriminated case per JVM opcode", which in Go is most
// naturally a tagged struct rather than N concrete types -- the
// interpreter and verifier both switch on Op, and the few opcodes that
// carry interesting operands (branch targets, CP indices, local-slot
// numbers) store them in the typed fields below instead of a single
// untyped blob.
type Instruction struct {
	Op opcodes.Opcode

	// ByteOffset is the instruction's original offset in the method's
	// bytecode array; kept for LineNumberTable/debugging lookups even
	// though branch targets and stack-map offsets are canonicalised
	// away from it.
	ByteOffset int

	// IntOperand holds a single scalar immediate: a local-variable
	// slot (loads/stores/iinc's first operand), a CP index
	// (ldc/getfield/invoke*/new/multianewarray/...), an array type
	// code (newarray), or a signed byte/short constant (bipush/sipush).
	IntOperand int

	// IntOperand2 holds iinc's signed const operand, multianewarray's
	// dimension count, or invokeinterface's count byte, when IntOperand
	// alone isn't enough.
	IntOperand2 int

	// BranchTarget holds the canonicalised instruction index a
	// control-flow opcode (if*, goto, jsr) transfers to.
	BranchTarget int

	// Switch holds tableswitch/lookupswitch data; nil for every other
	// opcode.
	Switch *SwitchData
}

// SwitchData is the decoded form of a tableswitch or lookupswitch
// instruction. Offsets are canonicalised instruction indices, per
// spec.md §4.1.
type SwitchData struct {
	Default int // canonicalised instruction index

	// Table form (tableswitch): Low/High inclusive, len(Targets) ==
	// High-Low+1.
	IsTableForm bool
	Low, High   int
	Targets     []int // canonicalised instruction indices, indexed by (key-Low)

	// Lookup form (lookupswitch): parallel Keys/Targets, Keys sorted
	// ascending per the class file format's requirement.
	Keys []int32
}
