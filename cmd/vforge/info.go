package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vforge/vforge"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Report the host and the target it dispatches to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd.OutOrStdout())
		},
	}
}

func runInfo(out io.Writer) error {
	detected := vforge.DetectTarget()
	fmt.Fprintf(out, "host:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "dispatch: %s\n\n", detected)

	for _, t := range vforge.Targets() {
		ctx, err := vforge.NewContext(vforge.NewConfig().WithTarget(t))
		if err != nil {
			return err
		}
		marker := ' '
		if t == detected {
			marker = '*'
		}
		fmt.Fprintf(out, "%c %-8s %4d-bit vectors, %d-byte words, %d scratch bytes\n",
			marker, t, ctx.VectorBits(), ctx.WordBytes(), ctx.ScratchBytes())
	}
	return nil
}
