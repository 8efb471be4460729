package interval

import (
	"testing"
	"time"
)

func TestSubtractOne(t *testing.T) {
	tests := []struct {
		name        string
		self, other Interval
		want        []Interval
	}{
		{name: "same removes everything", self: iv(0, 100), other: iv(0, 100), want: nil},
		{name: "within removes everything", self: iv(20, 30), other: iv(0, 100), want: nil},
		{name: "before is unchanged", self: iv(0, 10), other: iv(10, 20), want: []Interval{iv(0, 10)}},
		{name: "after is unchanged", self: iv(30, 40), other: iv(10, 20), want: []Interval{iv(30, 40)}},
		{name: "overlap at start keeps head", self: iv(0, 50), other: iv(30, 80), want: []Interval{iv(0, 30)}},
		{name: "overlap at end keeps tail", self: iv(30, 80), other: iv(0, 50), want: []Interval{iv(50, 80)}},
		{name: "encompasses splits in two", self: iv(0, 100), other: iv(25, 30), want: []Interval{iv(0, 25), iv(30, 100)}},
		{name: "encompasses with shared start", self: iv(0, 100), other: iv(0, 30), want: []Interval{iv(30, 100)}},
		{name: "encompasses with shared end", self: iv(0, 100), other: iv(70, 100), want: []Interval{iv(0, 70)}},
		{name: "shared start ending inside other", self: iv(10, 15), other: iv(10, 20), want: nil},
		{name: "starting inside other sharing end", self: iv(15, 20), other: iv(10, 20), want: nil},
		{name: "empty other removes nothing", self: iv(0, 100), other: iv(50, 50), want: []Interval{iv(0, 100)}},
		{name: "empty self leaves nothing", self: iv(50, 50), other: iv(0, 10), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertIntervals(t, SubtractOne(tt.self, tt.other), tt.want)
		})
	}
}

func TestSubtractOneDoesNotAliasInput(t *testing.T) {
	self := iv(0, 100)
	out := SubtractOne(self, iv(200, 300))
	out[0].End = base
	if !self.Equal(iv(0, 100)) {
		t.Fatalf("input mutated: %v", self)
	}
}

func TestSubtractMany(t *testing.T) {
	tests := []struct {
		name   string
		self   Interval
		others []Interval
		want   []Interval
	}{
		{
			name:   "adjacent busy blocks",
			self:   iv(0, 100),
			others: []Interval{iv(10, 20), iv(20, 30), iv(30, 40)},
			want:   []Interval{iv(0, 10), iv(40, 100)},
		},
		{
			name:   "fully covered",
			self:   iv(0, 100),
			others: []Interval{iv(0, 50), iv(50, 100)},
			want:   nil,
		},
		{
			name:   "no busy time",
			self:   iv(0, 100),
			others: nil,
			want:   []Interval{iv(0, 100)},
		},
		{
			name:   "busy outside the window",
			self:   iv(100, 200),
			others: []Interval{iv(0, 50), iv(250, 300)},
			want:   []Interval{iv(100, 200)},
		},
		{
			name:   "unsorted overlapping busy",
			self:   iv(0, 100),
			others: []Interval{iv(60, 70), iv(5, 15), iv(10, 20), iv(90, 120)},
			want:   []Interval{iv(0, 5), iv(20, 60), iv(70, 90)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertIntervals(t, SubtractMany(tt.self, tt.others), tt.want)
		})
	}
}

func TestSubtractManyOrderDoesNotMatter(t *testing.T) {
	w := iv(0, 240)
	busy := []Interval{iv(10, 30), iv(50, 55), iv(100, 180), iv(200, 260)}
	reversed := []Interval{busy[3], busy[2], busy[1], busy[0]}
	assertIntervals(t, SubtractMany(w, reversed), SubtractMany(w, busy))
}

func TestSubtractManyConservesDuration(t *testing.T) {
	w := iv(0, 600)
	busy := []Interval{iv(0, 30), iv(45, 90), iv(200, 201), iv(500, 600)}
	free := SubtractMany(w, busy)

	want := w.Duration() - TotalDuration(busy)
	if got := TotalDuration(free); got != want {
		t.Fatalf("free duration = %v, want %v", got, want)
	}
	if want != 600*time.Minute-176*time.Minute {
		t.Fatalf("unexpected busy total %v", TotalDuration(busy))
	}
}
