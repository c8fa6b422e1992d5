package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vforge/vforge"
	"github.com/vforge/vforge/vop"
)

type emitOptions struct {
	target string
	all    bool
}

func newEmitCommand(log *logrus.Logger) *cobra.Command {
	var opts emitOptions
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emit the demo kernel and dump its words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEmit(cmd.OutOrStdout(), log, &opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.target, "target", "t", "",
		"target to emit for (default: VFORGE_TARGET, then host detection)")
	flags.BoolVar(&opts.all, "all", false, "emit for every target")
	return cmd
}

func runEmit(out io.Writer, log *logrus.Logger, opts *emitOptions) error {
	if !opts.all {
		target, err := resolveTarget(opts.target)
		if err != nil {
			return err
		}
		text, err := emitKernel(target, log)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	}

	// Contexts are single-stream, so every target plans on its own one.
	targets := vforge.Targets()
	texts := make([]string, len(targets))
	var g errgroup.Group
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			text, err := emitKernel(target, nil)
			texts[i] = text
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, text := range texts {
		fmt.Fprint(out, text)
	}
	return nil
}

// emitKernel plans the demo stream: load a block, scale it, compare the
// result against a threshold, keep the surviving lanes, store, and loop
// while any lane survives.
func emitKernel(target vforge.Target, log logrus.FieldLogger) (string, error) {
	cfg := vforge.NewConfig().WithTarget(target)
	if log != nil {
		cfg = cfg.WithTrace(log)
	}
	ctx, err := vforge.NewContext(cfg)
	if err != nil {
		return "", err
	}

	s := vop.Scalable(vop.ElemF32)
	mem, err := vop.NewMem(vop.R1, 0)
	if err != nil {
		return "", err
	}

	var plans []*vop.Plan
	collect := func(p *vop.Plan, err error) error {
		if err != nil {
			return err
		}
		plans = append(plans, p)
		return nil
	}

	top := ctx.NewLabel()
	if err := ctx.Bind(top); err != nil {
		return "", err
	}
	if err := collect(ctx.Load(s, vop.V1, mem)); err != nil {
		return "", err
	}
	if err := collect(ctx.Mul(s, vop.V2, vop.V1, vop.V0)); err != nil {
		return "", err
	}
	if err := collect(ctx.CmpGt(s, vop.V3, vop.V2, vop.V4)); err != nil {
		return "", err
	}
	if err := collect(ctx.SelectMerge(s, vop.V5, vop.V3, vop.V4, vop.V2)); err != nil {
		return "", err
	}
	if err := collect(ctx.Store(s, mem, vop.V5)); err != nil {
		return "", err
	}
	if err := collect(ctx.JumpIfMask(vop.MaskAny, s, vop.V3, top)); err != nil {
		return "", err
	}
	if err := ctx.Finalize(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d words, %d scratch bytes\n",
		target, ctx.Len()/ctx.WordBytes(), ctx.ScratchBytes())
	for _, p := range plans {
		b.WriteString(p.String())
	}
	b.WriteString("buffer:\n")
	b.WriteString(ctx.Dump())
	b.WriteString("\n")
	return b.String(), nil
}
