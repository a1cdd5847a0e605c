// Package loader owns the embedded application images this kernel can
// exec(): a name-indexed table built at boot and consulted by
// internal/syscall's sysExec through the AppLookup hook.
package loader

import "hash/fnv"

type entry struct {
	name string
	data []byte
	next *entry
}

// AppTable is a single-hart simplification of hashtable.Hashtable_t: the
// same bucket-chain-by-hash layout, with the RWMutex-per-bucket and
// atomic pointer loads dropped since every call into this kernel runs
// on one hart with interrupts disabled across the lookup.
type AppTable struct {
	buckets []*entry
}

// NewAppTable allocates a table sized for n images.
func NewAppTable(n int) *AppTable {
	size := n
	if size < 8 {
		size = 8
	}
	return &AppTable{buckets: make([]*entry, size)}
}

func (t *AppTable) hash(name string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32()) % len(t.buckets)
}

// Add registers an image, panicking if the name is already present: the
// app directory is built once at boot from a fixed set of names, so a
// collision means the embedding step is broken, not a runtime condition
// to recover from.
func (t *AppTable) Add(name string, data []byte) {
	i := t.hash(name)
	for e := t.buckets[i]; e != nil; e = e.next {
		if e.name == name {
			panic("loader: duplicate app name " + name)
		}
	}
	t.buckets[i] = &entry{name: name, data: data, next: t.buckets[i]}
}

// Lookup returns the image bytes registered under name.
func (t *AppTable) Lookup(name string) ([]byte, bool) {
	i := t.hash(name)
	for e := t.buckets[i]; e != nil; e = e.next {
		if e.name == name {
			return e.data, true
		}
	}
	return nil, false
}

// Names returns every registered app name, in unspecified order.
func (t *AppTable) Names() []string {
	var out []string
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			out = append(out, e.name)
		}
	}
	return out
}
