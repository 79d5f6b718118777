// SPDX-License-Identifier: MIT

package main

import (
	"flag"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gemmbench",
		Short:         "Run, verify and time the blocked streaming matrix multiply",
		SilenceUsage:  true,
	}

	// klog flags (-v, --logtostderr, ...) on every subcommand.
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	root.PersistentFlags().AddGoFlagSet(fs)

	root.AddCommand(newRunCmd(), newTilesCmd())

	return root
}
