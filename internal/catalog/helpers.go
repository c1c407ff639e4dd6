package catalog

import "sort"

// sortedKeys даёт стабильный порядок bind-параметров
func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
