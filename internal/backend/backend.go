// Package backend defines the capability and encoding-table model shared by
// the virtual vector targets. A Backend is immutable data: capability flags,
// a rule table keyed by mnemonic and shape, and a word encoder that lays
// operand fields over fixed opcode bits. Targets differ only in this data;
// all lowering decisions live in the codegen package.
package backend

import (
	"fmt"

	"github.com/vforge/vforge/vop"
)

// Arch distinguishes the two modeled instruction disciplines.
type Arch byte

const (
	// ArchLoadStore targets give every ALU instruction register operands
	// only; memory is reached through loads and stores.
	ArchLoadStore Arch = iota
	// ArchMemOperand targets let the scalar ALU take one memory source,
	// which shortens fallback loops to load/op/store triples.
	ArchMemOperand
)

func (a Arch) String() string {
	switch a {
	case ArchLoadStore:
		return "load-store"
	case ArchMemOperand:
		return "mem-operand"
	default:
		return "unknown"
	}
}

// Caps describes one target's fixed capabilities. Everything the selector
// branches on is here; nothing in codegen may test the target name.
type Caps struct {
	Name string
	Arch Arch

	// VectorBits is the native vector width; register pairs double it.
	VectorBits int
	// WordBytes is the fixed machine-word size every instruction encodes
	// to: 4 or 8.
	WordBytes int

	// ThreeOperand targets encode dst separately from the sources. When
	// false the destination of a vector encoding must name the first
	// source (destructive two-operand discipline). DistinctDest further
	// requires dst to differ from every source on vector encodings. The
	// general file is three-operand everywhere and exempt from both.
	ThreeOperand bool
	DistinctDest bool

	// HasBlend: a native lane-select instruction exists. BlendMaskInDst:
	// that instruction consumes the mask from the destination register.
	HasBlend       bool
	BlendMaskInDst bool

	// HasMoveMask: a byte-granular mask-to-GP move exists; otherwise mask
	// tests reduce with byte min/max and extract lane zero.
	HasMoveMask bool

	// ConstChunkBits is how many immediate bits one materialization
	// instruction carries. BranchCmpBits is the unsigned width of the
	// compare immediate conditional branches carry.
	ConstChunkBits uint8
	BranchCmpBits  uint8

	Addr vop.AddrCaps
}

// WordBits returns the machine word size in bits.
func (c Caps) WordBits() int { return c.WordBytes * 8 }

// NativeBytes returns the native vector width in bytes.
func (c Caps) NativeBytes() int { return c.VectorBits / 8 }

// PairBits returns the double width reachable with register pairs.
func (c Caps) PairBits() int { return 2 * c.VectorBits }

// NativeShape returns the native-width shape of e.
func (c Caps) NativeShape(e vop.ElemKind) vop.Shape {
	return vop.Shape{Elem: e, VecBits: uint16(c.VectorBits)}
}

func (c Caps) validate() error {
	switch c.VectorBits {
	case 128, 256, 512:
	default:
		return fmt.Errorf("backend %s: vector width %d", c.Name, c.VectorBits)
	}
	if c.WordBytes != 4 && c.WordBytes != 8 {
		return fmt.Errorf("backend %s: word size %d", c.Name, c.WordBytes)
	}
	if c.ConstChunkBits != 16 && c.ConstChunkBits != 32 {
		return fmt.Errorf("backend %s: constant chunk %d", c.Name, c.ConstChunkBits)
	}
	if c.BranchCmpBits == 0 || c.BranchCmpBits > 32 {
		return fmt.Errorf("backend %s: branch compare width %d", c.Name, c.BranchCmpBits)
	}
	if c.Addr.DispBits == 0 {
		return fmt.Errorf("backend %s: no displacement field", c.Name)
	}
	if c.DistinctDest && !c.ThreeOperand {
		return fmt.Errorf("backend %s: distinct-dest requires three-operand encodings", c.Name)
	}
	if c.HasBlend && !c.ThreeOperand && !c.BlendMaskInDst {
		return fmt.Errorf("backend %s: two-operand blend must take the mask in dst", c.Name)
	}
	return nil
}

// WordEncoder lays instruction operands over a template's fixed bits,
// producing the final machine word. One implementation per target family.
type WordEncoder interface {
	Encode(t Template, inst *vop.Inst) (uint64, error)
	// PatchBranch rewrites the displacement field of an encoded branch
	// word with a word-count delta.
	PatchBranch(word uint64, deltaWords int64) (uint64, error)
}

// RuleKey addresses the encoding table: mnemonic at an element and total
// width. Scalar rules use the element's own width; selector-internal
// mnemonics with no lane geometry are keyed at Scalar(ElemI64).
type RuleKey struct {
	Mnemonic vop.Mnemonic
	Elem     vop.ElemKind
	VecBits  uint16
}

func keyFor(m vop.Mnemonic, s vop.Shape) RuleKey {
	return RuleKey{Mnemonic: m, Elem: s.Elem, VecBits: s.VecBits}
}

// Backend is one immutable target: capabilities, rule table, word encoder.
type Backend struct {
	caps  Caps
	enc   WordEncoder
	rules map[RuleKey]EncodingRule
}

// Caps returns the target's capabilities.
func (b *Backend) Caps() Caps { return b.caps }

// Rule looks up the encoding rule for m at shape s.
func (b *Backend) Rule(m vop.Mnemonic, s vop.Shape) (EncodingRule, bool) {
	r, ok := b.rules[keyFor(m, s)]
	return r, ok
}

// HasNative reports whether m encodes directly at shape s.
func (b *Backend) HasNative(m vop.Mnemonic, s vop.Shape) bool {
	r, ok := b.Rule(m, s)
	return ok && r.Kind == RuleNative
}

// EncodeInst encodes one selected instruction into its machine word.
func (b *Backend) EncodeInst(inst *vop.Inst) (uint64, error) {
	r, ok := b.Rule(inst.Mnemonic, inst.Shape)
	if !ok || r.Kind != RuleNative {
		return 0, errEncodingUnsupported(inst)
	}
	return b.enc.Encode(r.Template, inst)
}

// PatchBranch rewrites the displacement of an encoded branch word.
func (b *Backend) PatchBranch(word uint64, deltaWords int64) (uint64, error) {
	return b.enc.PatchBranch(word, deltaWords)
}

// RuleCount returns the table size, for reporting.
func (b *Backend) RuleCount() int { return len(b.rules) }

// Rules calls fn for every table entry, for reporting and table audits.
func (b *Backend) Rules(fn func(RuleKey, EncodingRule)) {
	for k, r := range b.rules {
		fn(k, r)
	}
}

func errEncodingUnsupported(inst *vop.Inst) error {
	return fmt.Errorf("%w: no encoding for %s at %s", vop.ErrUnsupported, inst.Mnemonic, inst.Shape)
}
