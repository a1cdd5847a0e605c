// Package diag is the kernel's ambient logging and fatal-error path:
// leveled console logging, a panic-unwind dump grounded on
// caller.Callerdump, and allocator usage reports formatted with
// golang.org/x/text/message.
package diag

import (
	"fmt"
	"runtime"

	"golang.org/x/text/message"

	"rv39kernel/internal/config"
	"rv39kernel/internal/console"
)

var printer = message.NewPrinter(message.MatchLanguage("en"))

// Logf writes an informational line to the console.
func Logf(format string, args ...any) {
	console.Write([]byte(fmt.Sprintf("[kernel] "+format+"\n", args...)))
}

// Warnf writes a warning line, the same sink as Logf but tagged so a
// human scanning boot output can tell recoverable conditions apart from
// routine progress.
func Warnf(format string, args ...any) {
	console.Write([]byte(fmt.Sprintf("[kernel][warn] "+format+"\n", args...)))
}

// UsageReport formats a byte-count triple with thousands separators,
// the same role x/text/message plays wherever the corpus needs a
// human-readable magnitude rather than a bare integer.
func UsageReport(label string, total, user, allocated uint64) string {
	return printer.Sprintf("%s: total=%d user=%d allocated=%d", label, total, user, allocated)
}

// Oops dumps the call stack leading to a panic, grounded on
// caller.Callerdump's depth-indexed runtime.Caller loop, then calls
// SystemReset with the error code. cmd/kernel calls it directly on each
// fatal bring-up error, so the failure and the call stack reach the
// console before the platform resets; no recover() handler routes other
// panics here.
func Oops(r any) {
	Warnf("panic: %v", r)
	for i := 2; ; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		console.Write([]byte(fmt.Sprintf("\t<- %s:%d\n", file, line)))
	}
	SystemReset(config.ResetError)
}

// SystemReset is wired by cmd/kernel to the platform's memory-mapped
// reset register; declared here as a variable, like syscall's shutdown
// hook, to keep diag's import graph from needing the arch package.
var SystemReset = func(code uint32) {}
