package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vforge/vforge"
	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/internal/backend/avx256"
	"github.com/vforge/vforge/internal/backend/neon128"
	"github.com/vforge/vforge/internal/backend/sse128"
	"github.com/vforge/vforge/internal/backend/vex512"
	"github.com/vforge/vforge/vop"
)

func newTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Audit the encoding table of every target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTargets(cmd.OutOrStdout())
		},
	}
}

func buildBackend(t vforge.Target) (*backend.Backend, error) {
	switch t {
	case vforge.TargetNeon128:
		return neon128.New()
	case vforge.TargetSSE128:
		return sse128.New()
	case vforge.TargetAVX256:
		return avx256.New()
	case vforge.TargetVEX512:
		return vex512.New()
	}
	return nil, fmt.Errorf("unknown target %s", t)
}

// laneOps is the caller-visible lane-wise and compare surface, the part of
// the table where a missing vector rule sends the op to the scratch loop.
var laneOps = []vop.Mnemonic{
	vop.MnemAdd, vop.MnemSub, vop.MnemMul, vop.MnemDiv,
	vop.MnemMin, vop.MnemMax, vop.MnemAbs, vop.MnemNeg,
	vop.MnemAnd, vop.MnemOr, vop.MnemXor, vop.MnemAndNot,
	vop.MnemShlImm, vop.MnemShrImm, vop.MnemSarImm, vop.MnemShlVar,
	vop.MnemCmpEq, vop.MnemCmpNe, vop.MnemCmpGt, vop.MnemCmpLt,
	vop.MnemCvtToInt, vop.MnemCvtToFloat,
}

var allElems = []vop.ElemKind{
	vop.ElemI8, vop.ElemI16, vop.ElemI32, vop.ElemI64, vop.ElemF32, vop.ElemF64,
}

func runTargets(out io.Writer) error {
	for _, t := range vforge.Targets() {
		be, err := buildBackend(t)
		if err != nil {
			return err
		}
		caps := be.Caps()

		var native, composed int
		be.Rules(func(_ backend.RuleKey, r backend.EncodingRule) {
			if r.Kind == backend.RuleComposed {
				composed++
			} else {
				native++
			}
		})

		var gaps []string
		for _, m := range laneOps {
			for _, e := range allElems {
				if m.IntOnly() && e.IsFloat() {
					continue
				}
				if !be.HasNative(m, caps.NativeShape(e)) {
					gaps = append(gaps, fmt.Sprintf("%s.%s", m, e))
				}
			}
		}
		sort.Strings(gaps)

		fmt.Fprintf(out, "%s: %s, %d-bit vectors, %d-byte words\n",
			caps.Name, caps.Arch, caps.VectorBits, caps.WordBytes)
		fmt.Fprintf(out, "  rules: %d native, %d composed\n", native, composed)
		if len(gaps) > 0 {
			fmt.Fprintf(out, "  scratch fallbacks: %s\n", strings.Join(gaps, " "))
		}
		fmt.Fprintln(out)
	}
	return nil
}
