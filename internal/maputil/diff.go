package maputil

// maxDiffDepth bounds recursion into nested mappings. Below it nested values
// are compared whole.
const maxDiffDepth = 1

// Diff returns the fields where changed disagrees with initial, taking the
// value from changed. A key missing from changed yields a nil entry. When
// both sides hold nested mappings the entry is itself a Diff of the two,
// one level deep; sequences are compared by full value. The result is an
// empty, non-nil map when the inputs agree.
func Diff(changed, initial Object) Object {
	return diff(changed, initial, 0)
}

func diff(changed, initial Object, depth int) Object {
	res := make(Object)

	for _, key := range unionKeys(changed, initial) {
		cv, iv := changed[key], initial[key]
		if Equal(cv, iv) {
			continue
		}

		cm, cIsMap := cv.(map[string]any)
		im, iIsMap := iv.(map[string]any)

		if cIsMap && iIsMap && depth < maxDiffDepth {
			res[key] = diff(cm, im, depth+1)
			continue
		}

		res[key] = cv
	}

	return res
}

func unionKeys(a, b Object) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))

	for _, m := range []Object{a, b} {
		for k := range m {
			if _, ok := seen[k]; ok {
				continue
			}

			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	return keys
}
