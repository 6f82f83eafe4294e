package metadata

import "strings"

// instanceSigil prefixes derived identifiers so they cannot collide
// with user names; double underscore is conventional for generated
// symbols and survives gofmt.
const instanceSigil = "nino__"

// SanitizeDisplayName rewrites multi-dimensional array syntax of the
// form "[*,*]" to "[,]" so display names are safe to splice into
// emitted source. Names without the pattern pass through unchanged.
func SanitizeDisplayName(name string) string {
	if !strings.Contains(name, "[*") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '*' && i > 0 && (name[i-1] == '[' || name[i-1] == ',') {
			continue
		}
		b.WriteByte(name[i])
	}
	return b.String()
}

// InstanceNameOf derives a lowercase identifier-safe variable name from
// a display name: every non-alphanumeric rune becomes '_', the result
// is lowercased and prefixed with the reserved sigil.
func InstanceNameOf(displayName string) string {
	var b strings.Builder
	b.Grow(len(instanceSigil) + len(displayName))
	b.WriteString(instanceSigil)
	for _, r := range strings.ToLower(displayName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
