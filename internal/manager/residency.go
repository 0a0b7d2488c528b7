package manager

import "hidream/pkg/types"

// needsReload decides whether serving d requires replacing the resident
// pipeline. It is false only when a pipeline is resident and was loaded from
// a descriptor equal to d.
func needsReload(cur *resident, d types.ModelDescriptor) bool {
	return cur == nil || !cur.desc.Equal(d)
}
