// Command linecat is the operator CLI for the spectral line toolchain:
// it normalizes local catalog exports, inspects species partition
// functions, and queries the live catalog services without going through
// the streaming pipeline.
package main

import (
	"os"
)

var (
	// Version is set by build flags.
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
