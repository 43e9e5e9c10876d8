package constants

import "testing"

func TestTerminal(t *testing.T) {
	for _, st := range []JobStatus{JobStatusQueued, JobStatusRendering, JobStatusOCR, JobStatusBuilding} {
		if st.Terminal() {
			t.Fatalf("%q reported terminal", st)
		}
	}
	for _, st := range []JobStatus{JobStatusComplete, JobStatusError} {
		if !st.Terminal() {
			t.Fatalf("%q not reported terminal", st)
		}
	}
}

func TestCanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobStatusQueued, JobStatusRendering, true},
		{JobStatusRendering, JobStatusOCR, true},
		{JobStatusOCR, JobStatusBuilding, true},
		{JobStatusBuilding, JobStatusComplete, true},
		{JobStatusQueued, JobStatusError, true},
		{JobStatusOCR, JobStatusRendering, false}, // backward
		{JobStatusOCR, JobStatusOCR, false},       // no self-transition
		{JobStatusComplete, JobStatusError, false},
		{JobStatusError, JobStatusRendering, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Fatalf("CanAdvanceTo(%q → %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
