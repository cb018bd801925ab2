package marker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultPlaceholder is written for marker ids that have no entry in the table.
const DefaultPlaceholder = "unknown"

// DefaultNames maps the markers placed in the recording room.
func DefaultNames() map[int]string {
	return map[int]string{
		0: "dresser",
		2: "reachy",
		3: "table",
		4: "shelf",
		7: "monitor",
	}
}

// NameTable is an immutable id -> semantic label mapping.
type NameTable struct {
	names       map[int]string
	placeholder string
}

// NewNameTable copies names so later changes to the map do not leak in.
func NewNameTable(names map[int]string, placeholder string) NameTable {
	copied := make(map[int]string, len(names))
	for id, name := range names {
		copied[id] = name
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return NameTable{names: copied, placeholder: placeholder}
}

// ParseNameTable reads a table written as "0:dresser,2:reachy".
func ParseNameTable(raw, placeholder string) (NameTable, error) {
	names := make(map[int]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idPart, name, ok := strings.Cut(entry, ":")
		if !ok {
			return NameTable{}, fmt.Errorf("invalid marker name entry %q: expected id:name", entry)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idPart))
		if err != nil || id < 0 {
			return NameTable{}, fmt.Errorf("invalid marker id in %q", entry)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return NameTable{}, fmt.Errorf("empty marker name for id %d", id)
		}
		if _, dup := names[id]; dup {
			return NameTable{}, fmt.Errorf("duplicate marker id %d", id)
		}
		names[id] = name
	}
	return NewNameTable(names, placeholder), nil
}

// Name resolves an id. Unmapped ids get the placeholder text and Known=false.
func (t NameTable) Name(id int) Name {
	if name, ok := t.names[id]; ok {
		return Name{ID: id, Text: name, Known: true}
	}
	return Name{ID: id, Text: t.Placeholder(), Known: false}
}

// Placeholder returns the text used for unmapped ids.
func (t NameTable) Placeholder() string {
	if t.placeholder == "" {
		return DefaultPlaceholder
	}
	return t.placeholder
}

// Len returns the number of mapped ids.
func (t NameTable) Len() int {
	return len(t.names)
}

// String renders the table back in its "id:name" form, ordered by id.
func (t NameTable) String() string {
	ids := make([]int, 0, len(t.names))
	for id := range t.names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d:%s", id, t.names[id]))
	}
	return strings.Join(parts, ",")
}
