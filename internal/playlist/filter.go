package playlist

// Policy maps source genre names to output names. A genre absent from the
// policy is dropped; an empty value keeps the original name; any other
// value renames the block header.
type Policy map[string]string

// Allows reports whether the named genre survives the policy. The empty
// name never does.
func (p Policy) Allows(name string) bool {
	if name == "" {
		return false
	}
	_, ok := p[name]
	return ok
}

// FilterStats summarizes the outcome of a filter pass.
type FilterStats struct {
	Kept    int
	Dropped int
	Renamed int
}

// Filter applies policy to a canonical document. A nil policy returns the
// document unchanged.
func Filter(doc string, policy Policy) string {
	filtered, _ := FilterWithStats(doc, policy)
	return filtered
}

// FilterWithStats is Filter, also reporting how many blocks were kept,
// dropped and renamed.
func FilterWithStats(doc string, policy Policy) (string, FilterStats) {
	if policy == nil {
		blocks := len(SplitBlocks(doc))
		return doc, FilterStats{Kept: blocks}
	}

	var (
		stats FilterStats
		kept  []Block
	)
	for _, block := range SplitBlocks(doc) {
		name := block.Name()
		if !policy.Allows(name) {
			stats.Dropped++
			continue
		}

		if replacement := policy[name]; replacement != "" {
			renamed := block.Rename(replacement)
			if renamed != block {
				stats.Renamed++
			}
			block = renamed
		}
		kept = append(kept, block)
		stats.Kept++
	}

	return JoinBlocks(kept), stats
}
