package malasim

// DosingDaysModel describes how the number of dosing days for a
// course is determined: either a fixed value or a draw from a
// configured distribution of completion days (spec.md §3's Therapy
// type).
type DosingDaysModel struct {
	Fixed int // if > 0, used as-is
	Mean  float64
	SD    float64
	Min   int
	Max   int
}

// Sample returns the number of dosing days for one course.
func (m DosingDaysModel) Sample(r *Random) int {
	if m.Fixed > 0 {
		return m.Fixed
	}
	v := r.TruncatedNormal(m.Mean, m.SD, float64(m.Min), float64(m.Max))
	days := int(v + 0.5)
	if days < m.Min {
		days = m.Min
	}
	if days > m.Max {
		days = m.Max
	}
	return days
}

// Therapy is either a SingleCourseTherapy (an ordered list of drugs
// given together for one dosing run) or a MultiCourseTherapy (ordered
// sub-therapies with relative start offsets), per spec.md §3.
type Therapy struct {
	ID   int
	Name string

	// Single-course fields (used when len(Components) == 0).
	DrugTypeIDs []int
	Dosing      DosingDaysModel

	// Multi-course fields: each component is a fully compliant
	// sub-therapy id starting StartDay days after the regimen began.
	Components []TherapyComponent
}

// TherapyComponent is one step of a MultiCourseTherapy.
type TherapyComponent struct {
	TherapyID int
	StartDay  int
}

// IsMultiCourse reports whether this therapy is a MultiCourseTherapy.
func (t *Therapy) IsMultiCourse() bool {
	return len(t.Components) > 0
}
