package diag

import "github.com/ianlancetaylor/demangle"

// SymbolicName demangles a symbol name recovered from an embedded
// program's own symbol table when reporting why that program was
// killed. Embedded apps may be produced by toolchains that mangle
// names (C++, Rust); demangle.Filter returns the input unchanged when
// it is not a mangled name, so this is safe to call on every symbol
// name this kernel ever prints, mangled or not.
func SymbolicName(raw string) string {
	return demangle.Filter(raw)
}
