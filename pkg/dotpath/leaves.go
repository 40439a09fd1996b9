package dotpath

import (
	"sort"
	"strconv"
)

// Leaf pairs a dotted path with the value stored at it.
type Leaf struct {
	Path  string
	Value any
}

// Leaves enumerates every leaf of record in deterministic order: map keys
// sorted lexically, slice elements by index. Empty containers are emitted as
// leaves of their own path.
func Leaves(record map[string]any) []Leaf {
	var out []Leaf
	walkMap("", record, &out)
	return out
}

func walkMap(prefix string, node map[string]any, out *[]Leaf) {
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		walkValue(joinPath(prefix, key), node[key], out)
	}
}

func walkValue(path string, value any, out *[]Leaf) {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			*out = append(*out, Leaf{Path: path, Value: typed})
			return
		}
		walkMap(path, typed, out)
	case []any:
		if len(typed) == 0 {
			*out = append(*out, Leaf{Path: path, Value: typed})
			return
		}
		for i, item := range typed {
			walkValue(joinPath(path, strconv.Itoa(i)), item, out)
		}
	default:
		*out = append(*out, Leaf{Path: path, Value: typed})
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
