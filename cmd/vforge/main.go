// Command vforge reports the supported instruction targets and emits
// example instruction streams against them.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/vforge/vforge"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := newRootCommand(log).Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand(log *logrus.Logger) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:           "vforge",
		Short:         "Plan and encode portable vector operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if trace {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&trace, "trace", false, "log every planned operation")
	cmd.AddCommand(newInfoCommand(), newTargetsCommand(), newEmitCommand(log))
	return cmd
}

// resolveTarget picks the flag value first, then the VFORGE_TARGET
// environment variable, then host detection.
func resolveTarget(flagValue string) (vforge.Target, error) {
	name := flagValue
	if name == "" {
		name = env.Str("VFORGE_TARGET", "")
	}
	if name == "" {
		return vforge.DetectTarget(), nil
	}
	return vforge.ParseTarget(name)
}
