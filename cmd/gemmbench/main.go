// SPDX-License-Identifier: MIT

// Command gemmbench runs the blocked streaming GEMM on random operands,
// verifies the result and reports timing.
//
//	gemmbench run --m 512 --k 256 --n 384 --tiles 32,64,32 --workers 4 --type float32
//	gemmbench tiles
//	gemmbench run --type int8 --narrow saturate -v 2
package main

import (
	"os"

	"k8s.io/klog/v2"
)

func main() {
	defer klog.Flush()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
