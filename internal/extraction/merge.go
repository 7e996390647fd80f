package extraction

// Merge overlays primary on secondary: keys present in primary win, keys
// missing from primary are filled from secondary. The secondary payload is
// also kept nested under mergedKey so its source tag remains visible to
// provenance. Neither input is modified.
func Merge(primary, secondary map[string]any) map[string]any {
	if len(secondary) == 0 {
		return primary
	}
	if len(primary) == 0 {
		return secondary
	}

	out := make(map[string]any, len(primary)+len(secondary)+1)
	for k, v := range secondary {
		if k == KeySourceType || k == KeyError {
			continue
		}
		out[k] = v
	}
	for k, v := range primary {
		if isEmpty(v) {
			if _, ok := out[k]; ok {
				continue
			}
		}
		out[k] = v
	}
	out[mergedKey(secondary)] = secondary
	return out
}

func mergedKey(m map[string]any) string {
	if s := asString(m[KeySourceType]); s != "" {
		return s + "_extraction"
	}
	return "merged_extraction"
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
