package main

import (
	"os"

	"rv39kernel/internal/config"
)

// hostExit stands in for the system-reset MMIO register on hosted
// hardware: there is no real reset line this process can write, so a
// reset is modeled as a clean process exit with the register value's
// sign folded into an exit status a caller's shell can observe.
func hostExit(code uint32) {
	switch code {
	case config.ResetOK:
		os.Exit(0)
	case config.ResetPower:
		os.Exit(0)
	default:
		os.Exit(1)
	}
}
