package graph

import "strconv"

// UniqueName returns name if it is not in existing, otherwise the first of
// name1, name2, ... that is free.
func UniqueName(existing []string, name string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e] = struct{}{}
	}
	if _, ok := taken[name]; !ok {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
