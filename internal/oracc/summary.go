package oracc

import "sort"

// Summarize returns, per catalogue field, the percentage of entries that
// carry a non-empty value for it.
func Summarize(entries []CatalogueEntry) map[string]float64 {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, name := range e.FieldNames() {
			if _, ok := counts[name]; !ok {
				counts[name] = 0
			}
			if e.Field(name) != "" {
				counts[name]++
			}
		}
	}
	out := make(map[string]float64, len(counts))
	if len(entries) == 0 {
		return out
	}
	for name, n := range counts {
		out[name] = float64(n) / float64(len(entries)) * 100
	}
	return out
}

// UniqueValues returns the sorted distinct values of each requested field.
func UniqueValues(entries []CatalogueEntry, fields []string) map[string][]string {
	seen := make(map[string]map[string]bool, len(fields))
	for _, f := range fields {
		seen[f] = make(map[string]bool)
	}
	for _, e := range entries {
		for _, f := range fields {
			seen[f][e.Field(f)] = true
		}
	}
	out := make(map[string][]string, len(fields))
	for f, values := range seen {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		out[f] = list
	}
	return out
}
