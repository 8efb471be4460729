package interval

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want Comparison
	}{
		{name: "identical", a: iv(0, 10), b: iv(0, 10), want: Same},
		{name: "strictly before", a: iv(0, 10), b: iv(20, 30), want: Before},
		{name: "touching is before", a: iv(0, 10), b: iv(10, 20), want: Before},
		{name: "strictly after", a: iv(20, 30), b: iv(0, 10), want: After},
		{name: "touching is after", a: iv(10, 20), b: iv(0, 10), want: After},
		{name: "overlaps at start", a: iv(0, 15), b: iv(10, 20), want: OverlapsAtStart},
		{name: "shared start ending inside", a: iv(10, 15), b: iv(10, 20), want: OverlapsAtStart},
		{name: "overlaps at end", a: iv(15, 30), b: iv(10, 20), want: OverlapsAtEnd},
		{name: "starting inside sharing end", a: iv(15, 20), b: iv(10, 20), want: OverlapsAtEnd},
		{name: "strictly within", a: iv(12, 18), b: iv(10, 20), want: Within},
		{name: "encompasses", a: iv(0, 100), b: iv(25, 30), want: Encompasses},
		{name: "shared start reaching past end", a: iv(10, 30), b: iv(10, 20), want: Encompasses},
		{name: "starting before sharing end", a: iv(0, 20), b: iv(10, 20), want: Encompasses},
		{name: "empty a before b", a: iv(5, 5), b: iv(5, 10), want: Before},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Fatalf("Compare(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareBeforeAfterAreInverses(t *testing.T) {
	pairs := [][2]Interval{
		{iv(0, 10), iv(10, 20)},
		{iv(0, 10), iv(30, 40)},
	}
	for _, p := range pairs {
		if Compare(p[0], p[1]) != Before || Compare(p[1], p[0]) != After {
			t.Fatalf("expected %v before %v and the inverse after", p[0], p[1])
		}
	}
}

func TestCompareIsTotal(t *testing.T) {
	// Exhaustively pair every well-formed interval on a small grid.
	var all []Interval
	for s := 0; s <= 6; s++ {
		for e := s; e <= 6; e++ {
			all = append(all, iv(s, e))
		}
	}
	for _, a := range all {
		if Compare(a, a) != Same {
			t.Fatalf("Compare(%v, itself) = %v, want same", a, Compare(a, a))
		}
		for _, b := range all {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Compare(%v, %v) panicked: %v", a, b, r)
					}
				}()
				c := Compare(a, b)
				if c < Same || c > Encompasses {
					t.Fatalf("Compare(%v, %v) = %d, out of range", a, b, int(c))
				}
			}()
		}
	}
}

func TestComparisonString(t *testing.T) {
	if Within.String() != "within" {
		t.Fatalf("Within.String() = %q", Within.String())
	}
	if Comparison(42).String() != "Comparison(42)" {
		t.Fatalf("unexpected fallback name %q", Comparison(42).String())
	}
}
