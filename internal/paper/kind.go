package paper

import "fmt"

// SectionKind drives the chunking policy of a section.
type SectionKind int

const (
	KindOther SectionKind = iota
	KindResults
	KindDiscussion
	KindConclusion
)

func (k SectionKind) String() string {
	switch k {
	case KindOther:
		return "Other"
	case KindResults:
		return "Results"
	case KindDiscussion:
		return "Discussion"
	case KindConclusion:
		return "Conclusion"
	}
	return fmt.Sprintf("SectionKind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k SectionKind) Valid() bool {
	return k >= KindOther && k <= KindConclusion
}

// Splittable reports whether sections of this kind may be split and overlapped.
func (k SectionKind) Splittable() bool {
	switch k {
	case KindDiscussion:
		return true
	case KindOther, KindResults, KindConclusion:
		return false
	}
	return false
}
