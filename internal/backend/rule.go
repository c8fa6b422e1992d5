package backend

import (
	"fmt"

	"github.com/vforge/vforge/vop"
)

// Layout names the operand-field arrangement of one encoding. The word
// encoder of each target implements the subset of layouts its table uses.
type Layout byte

const (
	LayoutNone Layout = iota

	// Vector forms.
	LayoutVecRRR    // dst, src1, src2
	LayoutVecRRRR   // dst, src1, src2, src3 (non-destructive blend)
	LayoutVecRR     // dst, src1 (unary, mov, reductions)
	LayoutVecRI     // dst, src1, imm (shifts by immediate)
	LayoutVecFromGP // dst, gp src (broadcast)
	LayoutGPFromVec // gp dst, vec src (lane extract, move-mask)
	LayoutVecLoad   // vec dst, mem
	LayoutVecStore  // vec src, mem

	// Scalar forms on the GP file.
	LayoutGPLoad  // gp dst, mem (element-width slice)
	LayoutGPStore // gp src, mem
	LayoutGPRR    // gp dst, src1[, src2]
	LayoutGPRM    // gp dst, src1, src2 registers, or read-modify dst with a mem source
	LayoutGPRI    // gp dst, src1, imm
	LayoutGPConst // gp dst, imm chunk at bit position
	LayoutBranch  // gp src compared with imm, label displacement
)

var layoutNames = map[Layout]string{
	LayoutNone:      "none",
	LayoutVecRRR:    "vec-rrr",
	LayoutVecRRRR:   "vec-rrrr",
	LayoutVecRR:     "vec-rr",
	LayoutVecRI:     "vec-ri",
	LayoutVecFromGP: "vec-from-gp",
	LayoutGPFromVec: "gp-from-vec",
	LayoutVecLoad:   "vec-load",
	LayoutVecStore:  "vec-store",
	LayoutGPLoad:    "gp-load",
	LayoutGPStore:   "gp-store",
	LayoutGPRR:      "gp-rr",
	LayoutGPRM:      "gp-rm",
	LayoutGPRI:      "gp-ri",
	LayoutGPConst:   "gp-const",
	LayoutBranch:    "branch",
}

func (l Layout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return "unknown"
}

// Template is the data half of one native encoding: fixed opcode bits plus
// the layout the word encoder fills operands into.
type Template struct {
	Base   uint64
	Layout Layout
}

// RuleKind separates direct encodings from composed pair idioms.
type RuleKind byte

const (
	// RuleNative encodes to one instruction from the template.
	RuleNative RuleKind = iota
	// RuleComposed lowers a double-width cross-lane op to one native op
	// per half, optionally crossing the halves.
	RuleComposed
)

// EncodingRule is one table entry.
type EncodingRule struct {
	Kind     RuleKind
	Template Template

	// HalfMnemonic is the per-half op of a composed rule; SwapHalves
	// writes each half's result into the opposite destination half, the
	// across-half idiom lane-reversal needs.
	HalfMnemonic vop.Mnemonic
	SwapHalves   bool
}

// Builder accumulates a target's rule table and validates the whole against
// its capabilities. Registration errors stick and surface at Build.
type Builder struct {
	caps  Caps
	enc   WordEncoder
	rules map[RuleKey]EncodingRule
	err   error
}

// NewBuilder starts a table for the given capabilities and encoder.
func NewBuilder(caps Caps, enc WordEncoder) *Builder {
	return &Builder{caps: caps, enc: enc, rules: map[RuleKey]EncodingRule{}}
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf("backend %s: %s", b.caps.Name, fmt.Sprintf(format, args...))
	}
}

func (b *Builder) put(k RuleKey, r EncodingRule) {
	if _, dup := b.rules[k]; dup {
		b.fail("duplicate rule %s at %s", k.Mnemonic, vop.Shape{Elem: k.Elem, VecBits: k.VecBits})
		return
	}
	b.rules[k] = r
}

// Native registers a direct encoding of m for element e at vecBits total.
func (b *Builder) Native(m vop.Mnemonic, e vop.ElemKind, vecBits int, base uint64, l Layout) *Builder {
	s := vop.Shape{Elem: e, VecBits: uint16(vecBits)}
	if err := s.Validate(); err != nil {
		b.fail("rule %s: %v", m, err)
		return b
	}
	if l == LayoutNone {
		b.fail("rule %s at %s: no layout", m, s)
		return b
	}
	b.put(keyFor(m, s), EncodingRule{Kind: RuleNative, Template: Template{Base: base, Layout: l}})
	return b
}

// Scalar registers a direct scalar encoding of m for element e.
func (b *Builder) Scalar(m vop.Mnemonic, e vop.ElemKind, base uint64, l Layout) *Builder {
	return b.Native(m, e, e.Bits(), base, l)
}

// Composed registers a pair idiom of m for element e at vecBits total,
// lowering to half per half of the half-width mnemonic.
func (b *Builder) Composed(m vop.Mnemonic, e vop.ElemKind, vecBits int, half vop.Mnemonic, swap bool) *Builder {
	s := vop.Shape{Elem: e, VecBits: uint16(vecBits)}
	if vecBits != b.caps.PairBits() {
		b.fail("composed rule %s at %s: width is not the register-pair width", m, s)
		return b
	}
	b.put(keyFor(m, s), EncodingRule{Kind: RuleComposed, HalfMnemonic: half, SwapHalves: swap})
	return b
}

// Build validates and freezes the table.
//
// Validation enforces the structural guarantees the selector depends on:
// vector rules sit at the native width only, composed rules resolve to
// native half encodings, every element that has any lane-wise or compare
// vector rule also has the scalar rule and the element-width load/store the
// scratch fallback iterates with, and the mask-test and materialization
// instructions the synthesizer emits are present.
func (b *Builder) Build() (*Backend, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.caps.validate(); err != nil {
		return nil, err
	}

	native := uint16(b.caps.VectorBits)
	fallbackElems := map[vop.ElemKind]bool{}

	for k, r := range b.rules {
		shape := vop.Shape{Elem: k.Elem, VecBits: k.VecBits}
		switch r.Kind {
		case RuleNative:
			if !shape.IsScalar() && k.VecBits != native {
				return nil, fmt.Errorf("backend %s: native rule %s at %s is neither scalar nor native width",
					b.caps.Name, k.Mnemonic, shape)
			}
		case RuleComposed:
			hk := RuleKey{Mnemonic: r.HalfMnemonic, Elem: k.Elem, VecBits: native}
			if hr, ok := b.rules[hk]; !ok || hr.Kind != RuleNative {
				return nil, fmt.Errorf("backend %s: composed rule %s at %s: half op %s has no native encoding",
					b.caps.Name, k.Mnemonic, shape, r.HalfMnemonic)
			}
		}
		cat := k.Mnemonic.Category()
		if (cat == vop.CatLaneWise || cat == vop.CatCompare) &&
			k.Mnemonic != vop.MnemBlend && !shape.IsScalar() {
			fallbackElems[k.Elem] = true
		}
	}

	requireRule := func(m vop.Mnemonic, s vop.Shape, what string) error {
		if r, ok := b.rules[keyFor(m, s)]; !ok || r.Kind != RuleNative {
			return fmt.Errorf("backend %s: missing %s rule %s at %s", b.caps.Name, what, m, s)
		}
		return nil
	}

	for e := range fallbackElems {
		scalar := vop.Scalar(e)
		for k := range b.rules {
			if k.Elem != e || k.VecBits != native {
				continue
			}
			cat := k.Mnemonic.Category()
			if (cat != vop.CatLaneWise && cat != vop.CatCompare) || k.Mnemonic == vop.MnemBlend {
				continue
			}
			if err := requireRule(k.Mnemonic, scalar, "scalar fallback"); err != nil {
				return nil, err
			}
		}
		if err := requireRule(vop.MnemLoad, scalar, "element load"); err != nil {
			return nil, err
		}
		if err := requireRule(vop.MnemStore, scalar, "element store"); err != nil {
			return nil, err
		}
		if err := requireRule(vop.MnemLoad, b.caps.NativeShape(e), "vector load"); err != nil {
			return nil, err
		}
		if err := requireRule(vop.MnemStore, b.caps.NativeShape(e), "vector store"); err != nil {
			return nil, err
		}
	}

	addr := vop.Scalar(vop.ElemI64)
	for _, m := range []vop.Mnemonic{
		vop.MnemLoadConst, vop.MnemLoadConstK,
		vop.MnemAddAddr, vop.MnemAndAddr, vop.MnemOrAddr, vop.MnemXorAddr,
		vop.MnemBrEq, vop.MnemBrNe,
	} {
		if err := requireRule(m, addr, "internal"); err != nil {
			return nil, err
		}
	}

	byteVec := b.caps.NativeShape(vop.ElemI8)
	if b.caps.HasMoveMask {
		if err := requireRule(vop.MnemMoveMask, byteVec, "mask test"); err != nil {
			return nil, err
		}
	} else {
		for _, m := range []vop.Mnemonic{vop.MnemRedMinU, vop.MnemRedMaxU} {
			if err := requireRule(m, byteVec, "mask test"); err != nil {
				return nil, err
			}
		}
		if err := requireRule(vop.MnemMovToGP, vop.Scalar(vop.ElemI8), "mask test"); err != nil {
			return nil, err
		}
	}

	if err := requireRule(vop.MnemMov, byteVec, "vector move"); err != nil {
		return nil, err
	}

	if b.caps.HasBlend {
		if err := requireRule(vop.MnemBlend, byteVec, "blend"); err != nil {
			return nil, err
		}
	}

	return &Backend{caps: b.caps, enc: b.enc, rules: b.rules}, nil
}
