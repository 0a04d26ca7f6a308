package visitor

import (
	"testing"

	"github.com/san-kum/eventsim/internal/part"
)

type fakeEvent struct{ t float64 }

func (f *fakeEvent) Enqueue(part.Part) {}
func (f *fakeEvent) Time() float64     { return f.t }
func (f *fakeEvent) Dt() float64       { return 0 }

type testPart struct {
	part.Timed
	name    string
	visited int
}

func newTestPart(name string) *testPart {
	p := &testPart{name: name}
	p.Bind(p)
	return p
}

func TestStepEnqueueOrderIsLIFO(t *testing.T) {
	s := NewStep(&fakeEvent{})
	a := newTestPart("a")
	b := newTestPart("b")
	c := newTestPart("c")
	s.Enqueue(a)
	s.Enqueue(b)
	s.Enqueue(c)

	var order []string
	s.Visit(func(v *Visitor) {
		order = append(order, v.Part.(*testPart).name)
	})
	want := []string{"c", "b", "a"}
	for i, n := range want {
		if order[i] != n {
			t.Fatalf("visit order = %v, want %v", order, want)
		}
	}
}

func TestStepVisitSelfDequeueMidWalk(t *testing.T) {
	s := NewStep(&fakeEvent{})
	a := newTestPart("a")
	b := newTestPart("b")
	c := newTestPart("c")
	s.Enqueue(a)
	s.Enqueue(b)
	s.Enqueue(c)

	var order []string
	s.Visit(func(v *Visitor) {
		p := v.Part.(*testPart)
		order = append(order, p.name)
		if p.name == "b" {
			p.Dequeue()
		}
	})
	if len(order) != 3 {
		t.Fatalf("expected all 3 parts visited despite mid-walk dequeue, got %v", order)
	}

	var remaining []string
	s.Visit(func(v *Visitor) {
		remaining = append(remaining, v.Part.(*testPart).name)
	})
	want := []string{"c", "a"}
	if len(remaining) != 2 || remaining[0] != want[0] || remaining[1] != want[1] {
		t.Fatalf("remaining after dequeue = %v, want %v", remaining, want)
	}
}

func TestStepDequeueFirstElement(t *testing.T) {
	s := NewStep(&fakeEvent{})
	a := newTestPart("a")
	b := newTestPart("b")
	s.Enqueue(a)
	s.Enqueue(b) // queue head-to-tail: b, a

	var order []string
	s.Visit(func(v *Visitor) {
		p := v.Part.(*testPart)
		order = append(order, p.name)
		if p.name == "b" {
			p.Dequeue()
		}
	})
	if len(order) != 2 {
		t.Fatalf("expected 2 parts visited, got %v", order)
	}
	if s.Empty() {
		t.Fatal("expected 'a' still queued")
	}
}

func TestStepEmpty(t *testing.T) {
	s := NewStep(&fakeEvent{})
	if !s.Empty() {
		t.Fatal("freshly built step should be empty")
	}
	p := newTestPart("a")
	s.Enqueue(p)
	if s.Empty() {
		t.Fatal("step with one enqueued part should not be empty")
	}
}

func TestSpikeMultiVisitsEveryTarget(t *testing.T) {
	a := newTestPart("a")
	b := newTestPart("b")
	targets := []part.Part{a, b}
	v := NewSpikeMulti(&fakeEvent{}, &targets)

	var order []string
	v.Visit(func(vv *Visitor) {
		order = append(order, vv.Part.(*testPart).name)
	})
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
}

func TestOneShotVisitorCallsOnce(t *testing.T) {
	p := newTestPart("solo")
	calls := 0
	v := New(&fakeEvent{}, p)
	v.Visit(func(vv *Visitor) {
		calls++
		if vv.Part != p {
			t.Fatal("expected the bound part")
		}
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
