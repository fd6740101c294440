package models

import "testing"

func TestClassifyAge_Buckets(t *testing.T) {
	tests := []struct {
		age  int
		want AgeGroup
	}{
		{0, AgeGroupUnder20},
		{19, AgeGroupUnder20},
		{20, AgeGroup20s}, // boundary goes to the upper bucket
		{25, AgeGroup20s},
		{29, AgeGroup20s},
		{30, AgeGroup30s},
		{40, AgeGroup40s},
		{50, AgeGroup50s},
		{60, AgeGroup60s},
		{69, AgeGroup60s},
		{70, AgeGroup70Plus},
		{99, AgeGroup70Plus},
		{100, AgeGroup70Plus}, // "70+" is unbounded
		{130, AgeGroup70Plus},
		{-1, AgeGroupUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyAge(tt.age); got != tt.want {
			t.Errorf("ClassifyAge(%d) = %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestClassifyAge_TotalAndDisjoint(t *testing.T) {
	// Every age in [0,100) maps to exactly one of the seven known buckets.
	for age := 0; age < 100; age++ {
		group := ClassifyAge(age)
		if !group.Known() {
			t.Errorf("ClassifyAge(%d) should classify, got unknown", age)
		}
	}
}

func TestAgeGroups_Order(t *testing.T) {
	wantLabels := []string{"~19", "20s", "30s", "40s", "50s", "60s", "70+"}

	groups := AgeGroups()
	if len(groups) != len(wantLabels) {
		t.Fatalf("AgeGroups() returned %d groups, want %d", len(groups), len(wantLabels))
	}

	for i, group := range groups {
		if group.String() != wantLabels[i] {
			t.Errorf("AgeGroups()[%d] = %q, want %q", i, group.String(), wantLabels[i])
		}
		if i > 0 && groups[i-1] >= group {
			t.Errorf("AgeGroups() must be strictly increasing at index %d", i)
		}
	}
}

func TestAgeGroup_UnknownLabel(t *testing.T) {
	if AgeGroupUnknown.String() != "unknown" {
		t.Errorf("AgeGroupUnknown.String() = %q", AgeGroupUnknown.String())
	}
	if AgeGroupUnknown.Known() {
		t.Error("AgeGroupUnknown.Known() should be false")
	}
}
