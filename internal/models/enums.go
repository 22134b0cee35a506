package models

// EnumInfo describes one enum! or enum_flags! declaration.
type EnumInfo struct {
	Name    string
	Members []string // declaration order, bare identifiers (value assignments stripped)
	IsFlags bool     // flags enums are exempt from exhaustiveness checking
	Pos     int      // byte offset of the declaration in the body text
}

// Has reports whether member is declared on this enum.
func (e *EnumInfo) Has(member string) bool {
	for _, m := range e.Members {
		if m == member {
			return true
		}
	}
	return false
}

// EnumRegistry maps enum type names to their member sets. It is written once
// by the enum lowering pass, read once by the exhaustiveness checker, and
// discarded afterwards; registries are never shared across compilation units.
type EnumRegistry struct {
	order  []string
	byName map[string]*EnumInfo
}

func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{byName: make(map[string]*EnumInfo)}
}

// Add registers an enum declaration. A second declaration with the same name
// is rejected; letting the later one win silently would make exhaustiveness
// diagnostics point at the wrong member set.
func (r *EnumRegistry) Add(src string, info *EnumInfo) error {
	if prev, ok := r.byName[info.Name]; ok {
		return NewCompileErrorAt(src, info.Pos,
			"duplicate enum declaration '%s' (first declared at offset %d)", info.Name, prev.Pos)
	}
	r.byName[info.Name] = info
	r.order = append(r.order, info.Name)
	return nil
}

// Lookup returns the enum with the given type name.
func (r *EnumRegistry) Lookup(name string) (*EnumInfo, bool) {
	info, ok := r.byName[name]
	return info, ok
}

// Names returns enum type names in declaration order.
func (r *EnumRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered enums.
func (r *EnumRegistry) Len() int {
	return len(r.order)
}
