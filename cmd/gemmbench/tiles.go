// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/blockgemm/gemm"
)

func newTilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiles",
		Short: "Print the host CPU profile and the default tile sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := gemm.DetectCPU()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "arch:        %s\n", p.Arch)
			fmt.Fprintf(out, "vector bits: %d\n", p.VectorBits)
			fmt.Fprintf(out, "cache line:  %d\n", p.CacheLine)
			fmt.Fprintf(out, "features:    %s\n", strings.Join(p.Features, ","))
			t := gemm.DefaultTiles()
			fmt.Fprintf(out, "tiles:       %d,%d,%d\n", t.M, t.K, t.N)

			return nil
		},
	}
}
