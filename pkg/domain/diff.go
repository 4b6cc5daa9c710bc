package domain

// Diff calculates how override departs from base.
// Elements only in override are added, elements only in base are removed, and
// elements present in both with a different kind are changed.
// If base is nil, every element of override is reported as added.
func Diff(base, override *SchemaAnalysis) AnalysisDiff {
	var diff AnalysisDiff
	if override == nil {
		return diff
	}

	// 1. Index base by name
	old := make(map[string]ElementDef)
	if base != nil {
		for _, el := range base.Elements {
			old[el.Name] = el
		}
	}

	// 2. Added or Changed, in override order (sorted by name)
	seen := make(map[string]bool, len(override.Elements))
	for _, el := range override.Elements {
		seen[el.Name] = true
		prev, exists := old[el.Name]
		if !exists {
			diff.Added = append(diff.Added, el)
			continue
		}
		if prev.Kind != el.Kind {
			diff.Changed = append(diff.Changed, KindChange{Name: el.Name, From: prev.Kind, To: el.Kind})
		}
	}

	// 3. Removed, in base order
	if base != nil {
		for _, el := range base.Elements {
			if !seen[el.Name] {
				diff.Removed = append(diff.Removed, el)
			}
		}
	}

	return diff
}
