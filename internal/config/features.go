package config

import "golang.org/x/sys/cpu"

// ProbeFeatures reports a short banner line describing ISA extensions the
// build host can detect via golang.org/x/sys/cpu. This kernel has no
// register model for the real target's misa/Sv39 CSRs, so the probe is
// cosmetic boot-banner output only (cmd/kernel logs it once at bring-up)
// and must never gate an allocator or scheduler fast path.
func ProbeFeatures() string {
	if cpu.RISCV64.HasV {
		return "riscv64: vector extension detected on build host"
	}
	return "riscv64: no vector extension reported by build host"
}
