// Package codegen plans and emits virtual vector instructions: it
// classifies each requested operation against the target's encoding table,
// lowers it to native instructions, register-pair halves or a scratch
// emulation, synthesizes mask operations, and appends the encoded words to
// the sink with branch fixups resolved at label binding.
package codegen

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

// Default reserved registers. The scratch base and the temporaries below
// are owned by the context; operands may not name them.
var (
	defaultScratchBase = vop.R12
	defaultTmpGP       = [2]vop.Register{vop.R13, vop.R14}
	defaultTmpVec      = [2]vop.Register{vop.V28, vop.V29}
	defaultTmpSynth    = [2]vop.Register{vop.V30, vop.V31}
)

// Config assembles a Context.
type Config struct {
	Backend *backend.Backend
	Sink    vop.Sink

	// ScratchBase overrides the register pointing at scratch storage;
	// ScratchRegions overrides the region count. Zero values take the
	// defaults (R12, 3 regions).
	ScratchBase    vop.Register
	ScratchRegions int

	// Log receives per-plan trace entries when set.
	Log logrus.FieldLogger
}

type labelState struct {
	bound  bool
	off    int
	fixups []fixup
}

// fixup remembers an emitted branch word waiting for its target.
type fixup struct {
	off  int
	word uint64
}

// Context owns one emission stream: the sink, the label table, the
// classification cache and the reserved registers. It is not safe for
// concurrent use.
type Context struct {
	be      *backend.Backend
	sink    vop.Sink
	scratch Scratch
	log     logrus.FieldLogger

	tmpGP    [2]vop.Register
	tmpVec   [2]vop.Register
	tmpSynth [2]vop.Register

	classes map[classKey]vop.Path
	labels  []labelState
}

// NewContext validates the configuration and builds a context.
func NewContext(cfg Config) (*Context, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("codegen: no backend")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("codegen: no sink")
	}
	base := cfg.ScratchBase
	if base.IsNone() {
		base = defaultScratchBase
	}
	regions := cfg.ScratchRegions
	if regions == 0 {
		regions = 3
	}
	scratch, err := newScratch(base, regions, cfg.Backend.Caps())
	if err != nil {
		return nil, err
	}
	c := &Context{
		be:       cfg.Backend,
		sink:     cfg.Sink,
		scratch:  scratch,
		log:      cfg.Log,
		tmpGP:    defaultTmpGP,
		tmpVec:   defaultTmpVec,
		tmpSynth: defaultTmpSynth,
		classes:  map[classKey]vop.Path{},
	}
	if base == c.tmpGP[0] || base == c.tmpGP[1] {
		return nil, fmt.Errorf("%w: scratch base %s collides with a temporary", vop.ErrBadOperand, base)
	}
	return c, nil
}

// Backend returns the target this context emits for.
func (c *Context) Backend() *backend.Backend { return c.be }

// ScratchBytes returns the storage the caller must provide behind the
// scratch base register.
func (c *Context) ScratchBytes() int { return c.scratch.Bytes() }

func (c *Context) wordBytes() int { return c.be.Caps().WordBytes }

func (c *Context) reserved(r vop.Register) bool {
	if r.IsPair() {
		return c.reserved(r.LowReg()) || c.reserved(r.HighReg())
	}
	switch r {
	case c.scratch.Base, c.tmpGP[0], c.tmpGP[1],
		c.tmpVec[0], c.tmpVec[1], c.tmpSynth[0], c.tmpSynth[1]:
		return true
	}
	return false
}

// vecTemp returns selector temporary i, as a pair when wide is set.
func (c *Context) vecTemp(i int, wide bool) vop.Register {
	if wide {
		return vop.VPair(c.tmpVec[0], c.tmpVec[1])
	}
	return c.tmpVec[i]
}

// synthTemp returns the mask synthesizer temporary, as a pair when wide.
func (c *Context) synthTemp(wide bool) vop.Register {
	if wide {
		return vop.VPair(c.tmpSynth[0], c.tmpSynth[1])
	}
	return c.tmpSynth[0]
}

// NewLabel allocates an unbound label.
func (c *Context) NewLabel() vop.Label {
	c.labels = append(c.labels, labelState{})
	return vop.Label(len(c.labels))
}

func (c *Context) labelAt(l vop.Label) (*labelState, error) {
	if l == vop.LabelInvalid || int(l) > len(c.labels) {
		return nil, fmt.Errorf("%w: label %s", vop.ErrBadOperand, l)
	}
	return &c.labels[l-1], nil
}

// Bind fixes l to the current end of the stream and patches every branch
// already emitted against it.
func (c *Context) Bind(l vop.Label) error {
	ls, err := c.labelAt(l)
	if err != nil {
		return err
	}
	if ls.bound {
		return fmt.Errorf("%w: label %s bound twice", vop.ErrBadOperand, l)
	}
	ls.bound = true
	ls.off = c.sink.Len()
	for _, f := range ls.fixups {
		if err := c.patch(f, ls.off); err != nil {
			return err
		}
	}
	ls.fixups = nil
	if c.log != nil {
		c.log.WithFields(logrus.Fields{"label": l.String(), "off": ls.off}).Debug("bind")
	}
	return nil
}

// LabelOffset returns the bound byte offset of l.
func (c *Context) LabelOffset(l vop.Label) (int, bool) {
	ls, err := c.labelAt(l)
	if err != nil || !ls.bound {
		return 0, false
	}
	return ls.off, true
}

// Finalize verifies that no emitted branch is left dangling.
func (c *Context) Finalize() error {
	for i := range c.labels {
		if !c.labels[i].bound && len(c.labels[i].fixups) > 0 {
			return fmt.Errorf("label L%d has %d unresolved branches", i+1, len(c.labels[i].fixups))
		}
	}
	return nil
}

func (c *Context) patch(f fixup, targetOff int) error {
	delta := int64(targetOff-f.off) / int64(c.wordBytes())
	word, err := c.be.PatchBranch(f.word, delta)
	if err != nil {
		return err
	}
	if c.wordBytes() == 8 {
		c.sink.Patch64(f.off, word)
	} else {
		c.sink.Patch32(f.off, uint32(word))
	}
	return nil
}

// appendPlan encodes every planned instruction, appends the words and
// registers branch fixups. Instructions come back with Word and Off set.
func (c *Context) appendPlan(p *vop.Plan) error {
	for idx := range p.Insts {
		inst := &p.Insts[idx]
		word, err := c.be.EncodeInst(inst)
		if err != nil {
			return err
		}
		inst.Word = word
		inst.Off = c.sink.Len()
		if c.wordBytes() == 8 {
			c.sink.Append64(word)
		} else {
			c.sink.Append32(uint32(word))
		}
		if inst.Target != vop.LabelInvalid {
			ls, err := c.labelAt(inst.Target)
			if err != nil {
				return err
			}
			f := fixup{off: inst.Off, word: word}
			if ls.bound {
				if err := c.patch(f, ls.off); err != nil {
					return err
				}
				// Keep the plan's view of the word in step with the sink.
				patched, _ := c.be.PatchBranch(word, int64(ls.off-f.off)/int64(c.wordBytes()))
				inst.Word = patched
			} else {
				ls.fixups = append(ls.fixups, f)
			}
		}
	}
	if c.log != nil {
		c.log.WithFields(logrus.Fields{
			"op":    p.Mnemonic.String(),
			"shape": p.Shape.String(),
			"path":  p.Path.String(),
			"words": len(p.Insts),
		}).Debug("emit")
	}
	return nil
}
