package metadata

// TypeIDOf hashes a fully qualified type name into its stable 32-bit
// id. Two djb2 lanes walk alternating bytes and are folded with a
// multiplier, so the id depends only on the string and is identical
// across runs, processes, and platforms. The zero id is reserved for
// the null sentinel; the astronomically unlikely natural zero is bumped.
func TypeIDOf(fqn string) uint32 {
	h1 := uint32(5381)
	h2 := uint32(5381)
	for i := 0; i < len(fqn); i += 2 {
		h1 = ((h1 << 5) + h1) ^ uint32(fqn[i])
		if i+1 < len(fqn) {
			h2 = ((h2 << 5) + h2) ^ uint32(fqn[i+1])
		}
	}
	id := h1 + h2*1566083941
	if id == 0 {
		id = 1
	}
	return id
}
