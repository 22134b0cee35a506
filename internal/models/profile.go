package models

// HotSet is the set of function names selected for the hot attribute in the
// optimized build. Built once per profiling cycle, read once by the second
// softline pass, then discarded.
type HotSet map[string]bool

// Has reports whether the named function was selected as hot.
func (h HotSet) Has(name string) bool {
	return h[name]
}

// ProfileCounts maps function names to accumulated hit counts parsed from the
// instrumented binary's counter file. Duplicate name lines sum.
type ProfileCounts map[string]uint64
