package model

// HashChange is a key present in both reports whose entry differs.
type HashChange struct {
	Key       string
	Reference HashEntry
	Current   HashEntry
}

// HashComparison is the difference between a reference and a current hash report.
type HashComparison struct {
	Added   []string
	Removed []string
	Changed []HashChange
	Diff    string
}

// Equal reports whether both reports carried identical entries.
func (c HashComparison) Equal() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}
