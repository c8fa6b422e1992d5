// Package vforge turns portable vector operations into fixed-width machine
// words for a family of SIMD targets.
//
// Callers describe work with vop.Op values (mnemonic, element shape,
// register and memory operands) and hand them to a Context. The context
// plans each operation against the selected target: natively when the
// target encodes the operation at the requested width, as a register-pair
// expansion at double the native width, or as a scalar loop through scratch
// storage when the target has no vector form at all. Planned words accumulate
// in a code buffer owned by the context.
//
// Note: Context is not goroutine-safe. Plan one instruction stream per
// context, or guard it externally.
package vforge

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/internal/backend/avx256"
	"github.com/vforge/vforge/internal/backend/neon128"
	"github.com/vforge/vforge/internal/backend/sse128"
	"github.com/vforge/vforge/internal/backend/vex512"
	"github.com/vforge/vforge/internal/codegen"
	"github.com/vforge/vforge/vop"
)

// Target selects the instruction set a Context plans for.
type Target int

const (
	// TargetNeon128 is the 128-bit load-store target with 32-bit words.
	TargetNeon128 Target = iota
	// TargetSSE128 is the 128-bit memory-operand target with 64-bit words.
	TargetSSE128
	// TargetAVX256 is the 256-bit three-operand target.
	TargetAVX256
	// TargetVEX512 is the 512-bit target with distinct-destination encodings.
	TargetVEX512
)

// Targets returns all supported targets in declaration order.
func Targets() []Target {
	return []Target{TargetNeon128, TargetSSE128, TargetAVX256, TargetVEX512}
}

// String implements fmt.Stringer.
func (t Target) String() string {
	switch t {
	case TargetNeon128:
		return "neon128"
	case TargetSSE128:
		return "sse128"
	case TargetAVX256:
		return "avx256"
	case TargetVEX512:
		return "vex512"
	default:
		return "unknown"
	}
}

// ParseTarget returns the target named by s, as produced by Target.String.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown target %q", s)
}

// DetectTarget picks the widest target the host can execute. Hosts that
// match nothing get TargetSSE128, whose plans exercise every planning path.
func DetectTarget() Target {
	if runtime.GOARCH == "arm64" {
		return TargetNeon128
	}
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW:
		return TargetVEX512
	case cpu.X86.HasAVX2:
		return TargetAVX256
	case cpu.X86.HasSSE2:
		return TargetSSE128
	}
	return TargetSSE128
}

func newBackend(t Target) (*backend.Backend, error) {
	switch t {
	case TargetNeon128:
		return neon128.New()
	case TargetSSE128:
		return sse128.New()
	case TargetAVX256:
		return avx256.New()
	case TargetVEX512:
		return vex512.New()
	default:
		return nil, fmt.Errorf("unknown target %d", int(t))
	}
}

// Context plans operations for one target and accumulates the resulting
// words in an internal code buffer.
type Context struct {
	target Target
	cg     *codegen.Context
	buf    *vop.CodeBuffer
}

// NewContext builds a planning context from config. A nil config means
// NewConfig.
func NewContext(config *Config) (*Context, error) {
	if config == nil {
		config = NewConfig()
	}
	be, err := newBackend(config.target)
	if err != nil {
		return nil, err
	}
	buf := vop.NewCodeBuffer(config.bufferHint)
	cg, err := codegen.NewContext(codegen.Config{
		Backend:        be,
		Sink:           buf,
		ScratchBase:    config.scratchBase,
		ScratchRegions: config.scratchRegions,
		Log:            config.log,
	})
	if err != nil {
		return nil, err
	}
	return &Context{target: config.target, cg: cg, buf: buf}, nil
}

// Target returns the target this context plans for.
func (c *Context) Target() Target { return c.target }

// VectorBits returns the target's native vector width in bits.
func (c *Context) VectorBits() int { return c.cg.Backend().Caps().VectorBits }

// WordBytes returns the size of one emitted word in bytes.
func (c *Context) WordBytes() int { return c.cg.Backend().Caps().WordBytes }

// ScratchBytes returns how much scratch storage emitted code may touch
// behind the configured scratch base register.
func (c *Context) ScratchBytes() int { return c.cg.ScratchBytes() }

// Emit plans one operation and appends its words to the buffer.
func (c *Context) Emit(op vop.Op) (*vop.Plan, error) { return c.cg.Emit(op) }

// Classify reports which planning path Emit would take for the mnemonic at
// the given shape, without emitting anything.
func (c *Context) Classify(m vop.Mnemonic, s vop.Shape) (vop.Path, error) {
	return c.cg.Classify(m, s)
}

// SelectMerge emits a lane-wise merge of a and b under mask: lanes where the
// mask is set take a, the rest take b.
func (c *Context) SelectMerge(s vop.Shape, dst, mask, a, b vop.Register) (*vop.Plan, error) {
	return c.cg.SelectMerge(s, dst, mask, a, b)
}

// JumpIfMask emits a conditional branch to target, taken when the mask
// register satisfies cond at the given shape.
func (c *Context) JumpIfMask(cond vop.MaskCond, s vop.Shape, mask vop.Register, target vop.Label) (*vop.Plan, error) {
	return c.cg.JumpIfMask(cond, s, mask, target)
}

// NewLabel allocates a fresh branch target.
func (c *Context) NewLabel() vop.Label { return c.cg.NewLabel() }

// Bind pins a label to the current buffer position and back-patches any
// branches already referencing it.
func (c *Context) Bind(l vop.Label) error { return c.cg.Bind(l) }

// LabelOffset returns the byte offset a label was bound at.
func (c *Context) LabelOffset(l vop.Label) (int, bool) { return c.cg.LabelOffset(l) }

// Finalize verifies that every referenced label was bound. The context stays
// usable; Finalize may be called again after further emission.
func (c *Context) Finalize() error { return c.cg.Finalize() }

// Bytes returns the emitted machine words in little-endian byte order. The
// slice aliases the context's buffer.
func (c *Context) Bytes() []byte { return c.buf.Bytes() }

// Len returns the number of bytes emitted so far.
func (c *Context) Len() int { return c.buf.Len() }

// Dump renders the buffer as one hex word per line, for logs and tests.
func (c *Context) Dump() string { return c.buf.Dump(c.WordBytes()) }
