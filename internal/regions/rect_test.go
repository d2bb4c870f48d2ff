package regions

import (
	"math/rand"
	"testing"
)

func TestFilterAndOrder(t *testing.T) {
	in := []Rect{
		{X: 0, Y: 500, W: 300, H: 300},
		{X: 0, Y: 10, W: 200, H: 300},  // width not > 200
		{X: 0, Y: 20, W: 300, H: 200},  // height not > 200
		{X: 5, Y: 100, W: 201, H: 201}, // smallest accepted
		{X: 9, Y: 100, W: 400, H: 250}, // same Y, must stay after the previous one
	}
	got := FilterAndOrder(in, 200, 200)
	want := []Rect{
		{X: 5, Y: 100, W: 201, H: 201},
		{X: 9, Y: 100, W: 400, H: 250},
		{X: 0, Y: 500, W: 300, H: 300},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFilterAndOrderEmpty(t *testing.T) {
	if got := FilterAndOrder(nil, 200, 200); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestFilterAndOrderRandomized(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		in := make([]Rect, rnd.Intn(40))
		for i := range in {
			// X doubles as the input position so stability can be checked.
			in[i] = Rect{X: i, Y: rnd.Intn(5) * 100, W: rnd.Intn(400), H: rnd.Intn(400)}
		}
		got := FilterAndOrder(in, 200, 200)

		kept := 0
		for _, r := range in {
			if r.W > 200 && r.H > 200 {
				kept++
			}
		}
		if len(got) != kept {
			t.Fatalf("iter %d: kept %d, want %d", iter, len(got), kept)
		}
		for i, r := range got {
			if r.W <= 200 || r.H <= 200 {
				t.Fatalf("iter %d: undersized rect kept: %v", iter, r)
			}
			if i == 0 {
				continue
			}
			prev := got[i-1]
			if prev.Y > r.Y {
				t.Fatalf("iter %d: not sorted by Y: %v before %v", iter, prev, r)
			}
			if prev.Y == r.Y && prev.X > r.X {
				t.Fatalf("iter %d: unstable order for Y=%d", iter, r.Y)
			}
		}
	}
}
