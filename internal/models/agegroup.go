package models

// AgeGroup is an ordinal bucket over customer age. The ordering of the
// constants is the chart axis ordering; grouped output must never re-sort the
// labels alphabetically.
type AgeGroup int

const (
	AgeGroupUnknown AgeGroup = iota
	AgeGroupUnder20
	AgeGroup20s
	AgeGroup30s
	AgeGroup40s
	AgeGroup50s
	AgeGroup60s
	AgeGroup70Plus
)

var ageGroupLabels = map[AgeGroup]string{
	AgeGroupUnder20: "~19",
	AgeGroup20s:     "20s",
	AgeGroup30s:     "30s",
	AgeGroup40s:     "40s",
	AgeGroup50s:     "50s",
	AgeGroup60s:     "60s",
	AgeGroup70Plus:  "70+",
}

func (g AgeGroup) String() string {
	if label, ok := ageGroupLabels[g]; ok {
		return label
	}
	return "unknown"
}

func (g AgeGroup) Known() bool {
	return g != AgeGroupUnknown
}

// ClassifyAge maps an age onto its bucket. Boundaries are left-inclusive
// (age 20 is "20s", not "~19") and "70+" is unbounded, so every non-negative
// age classifies. Negative ages mark a missing value and stay unknown.
func ClassifyAge(age int) AgeGroup {
	switch {
	case age < 0:
		return AgeGroupUnknown
	case age < 20:
		return AgeGroupUnder20
	case age < 30:
		return AgeGroup20s
	case age < 40:
		return AgeGroup30s
	case age < 50:
		return AgeGroup40s
	case age < 60:
		return AgeGroup50s
	case age < 70:
		return AgeGroup60s
	default:
		return AgeGroup70Plus
	}
}

// AgeGroups returns the seven known buckets in their fixed ordinal order.
func AgeGroups() []AgeGroup {
	return []AgeGroup{
		AgeGroupUnder20,
		AgeGroup20s,
		AgeGroup30s,
		AgeGroup40s,
		AgeGroup50s,
		AgeGroup60s,
		AgeGroup70Plus,
	}
}
