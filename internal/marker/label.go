package marker

import "strings"

// LabelKind tags which variant a Label holds.
type LabelKind int

const (
	LabelAbsent LabelKind = iota
	LabelPresent
	LabelSet
)

func (k LabelKind) String() string {
	switch k {
	case LabelPresent:
		return "present"
	case LabelSet:
		return "set"
	default:
		return "absent"
	}
}

// Name is a resolved marker id. Known is false when the id had no table entry,
// in which case Text holds the placeholder.
type Name struct {
	ID    int
	Text  string
	Known bool
}

// Label is the resolved value of one second: Absent, Present(name) or Set(names).
type Label struct {
	Kind  LabelKind
	Names []Name
}

// Absent is the label of a second without any usable detection.
func Absent() Label {
	return Label{Kind: LabelAbsent}
}

// Present wraps a single resolved name.
func Present(n Name) Label {
	return Label{Kind: LabelPresent, Names: []Name{n}}
}

// Set wraps every name seen during the second. An empty set is still a Set.
func Set(names []Name) Label {
	if names == nil {
		names = []Name{}
	}
	return Label{Kind: LabelSet, Names: names}
}

// Single returns the name of a Present label.
func (l Label) Single() (Name, bool) {
	if l.Kind != LabelPresent || len(l.Names) == 0 {
		return Name{}, false
	}
	return l.Names[0], true
}

// IDs returns the marker ids carried by the label.
func (l Label) IDs() []int {
	ids := make([]int, 0, len(l.Names))
	for _, n := range l.Names {
		ids = append(ids, n.ID)
	}
	return ids
}

// Texts returns the names carried by the label, placeholders included.
func (l Label) Texts() []string {
	texts := make([]string, 0, len(l.Names))
	for _, n := range l.Names {
		texts = append(texts, n.Text)
	}
	return texts
}

// String is the CSV cell form: "" for Absent, the name for Present and
// {'a', 'b'} set notation for Set.
func (l Label) String() string {
	switch l.Kind {
	case LabelPresent:
		n, _ := l.Single()
		return n.Text
	case LabelSet:
		quoted := make([]string, 0, len(l.Names))
		for _, n := range l.Names {
			quoted = append(quoted, "'"+n.Text+"'")
		}
		return "{" + strings.Join(quoted, ", ") + "}"
	default:
		return ""
	}
}
