package normalization

import "testing"

func TestToBritish(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The government will prioritize the program.", "The government will prioritise the programme."},
		{"Color, COLOR and color.", "Colour, COLOUR and colour."},
		{"Members honored the Defense Secretary's labor reforms", "Members honoured the Defence Secretary's labour reforms"},
		{"a discolored colorant", "a discolored colorant"},
		{"Organization of the centers", "Organisation of the centres"},
		{"Nothing to change here.", "Nothing to change here."},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ToBritish(tc.in); got != tc.want {
			t.Fatalf("ToBritish(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestToBritishIsIdempotent(t *testing.T) {
	inputs := []string{
		"We realize the organization must analyze its behavior and favorite programs.",
		"THE CENTER FOR DEFENSE",
		"Already British: organise, colour, programme, centre.",
	}
	for _, in := range inputs {
		once := ToBritish(in)
		if twice := ToBritish(once); twice != once {
			t.Fatalf("not idempotent: once=%q twice=%q", once, twice)
		}
	}
	for us, uk := range britishTable {
		if got := ToBritish(uk); got != uk {
			t.Fatalf("british form %q (from %q) rewritten to %q", uk, us, got)
		}
	}
}

func TestToBritishAll(t *testing.T) {
	xs := ToBritishAll([]string{"gray", "Theater"})
	if xs[0] != "grey" || xs[1] != "Theatre" {
		t.Fatalf("ToBritishAll: %v", xs)
	}
}
