package uuid

import "testing"

func TestNewInspectionID(t *testing.T) {
	id := NewInspectionID()
	if !IsInspectionID(id) {
		t.Fatalf("generated ID is not well-formed: %q", id)
	}

	other := NewInspectionID()
	if id == other {
		t.Fatal("generated IDs collide")
	}
}

func TestIsInspectionID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{InspectionPrefix + "0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"0f8fad5b-d9cb-469f-a165-70867728950e", false},
		{InspectionPrefix + "not-a-uuid", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsInspectionID(tc.in); got != tc.want {
			t.Errorf("IsInspectionID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateInspectionID(t *testing.T) {
	if err := ValidateInspectionID(NewInspectionID()); err != nil {
		t.Fatalf("valid ID rejected: %v", err)
	}
	if err := ValidateInspectionID("bogus"); err == nil {
		t.Fatal("malformed ID accepted")
	}
}
