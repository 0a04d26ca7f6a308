// Package event implements the five event flavors the simulator schedules:
// the periodic EventStep and the four spike-delivery events fired by
// connection targets reacting to a source part's output.
package event

import (
	"container/heap"

	"github.com/san-kum/eventsim/internal/integrator"
	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/visitor"
)

// Event is anything the simulator's priority queue can hold and run.
type Event interface {
	part.EventHandle
	Run()
}

// queueItem pairs a queued Event with its push order. container/heap's sift
// operations don't, on their own, preserve FIFO order among elements that
// compare equal (unlike the `a->t >= b->t` comparator this is grounded on,
// which relies on std::priority_queue's specific heap-percolation behavior
// to get that for free) — so ties are broken explicitly by seq instead.
type queueItem struct {
	ev  Event
	seq uint64
}

// Queue is a container/heap-backed min-priority-queue of events, ordered
// by simulated time, with ties broken by push order (earlier insertions
// pop first).
type Queue struct {
	items []queueItem
	next  uint64
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.ev.Time() != b.ev.Time() {
		return a.ev.Time() < b.ev.Time()
	}
	return a.seq < b.seq
}

func (q *Queue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *Queue) Push(x any) {
	q.items = append(q.items, queueItem{ev: x.(Event), seq: q.next})
	q.next++
}

func (q *Queue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem{}
	q.items = old[:n-1]
	return item.ev
}

var _ heap.Interface = (*Queue)(nil)

// periodOwner is the narrow view of the Simulator an EventStep needs to
// requeue or retire itself.
type periodOwner interface {
	PushEvent(Event)
	RemovePeriod(*Step)
}

// Step is the periodic event: every dt seconds it runs the integrator over
// its queue of parts, updates and finalizes them, and requeues itself if
// any parts remain.
type Step struct {
	t          float64
	dt         float64
	Integrator integrator.Integrator
	visitor    *visitor.Step
}

// NewStep builds an EventStep at time t with period dt, running the given
// integrator.
func NewStep(t, dt float64, integ integrator.Integrator) *Step {
	s := &Step{t: t, dt: dt, Integrator: integ}
	s.visitor = visitor.NewStep(s)
	return s
}

// Time implements part.EventHandle.
func (s *Step) Time() float64 { return s.t }

// Dt implements part.EventHandle.
func (s *Step) Dt() float64 { return s.dt }

// Enqueue adds newPart to this event's queue.
func (s *Step) Enqueue(newPart part.Part) {
	s.visitor.Enqueue(newPart)
}

// Empty reports whether this event currently holds no parts.
func (s *Step) Empty() bool { return s.visitor.Empty() }

// Visit walks every part currently queued under this event.
func (s *Step) Visit(f visitor.Func) { s.visitor.Visit(f) }

// GetT, SetT, GetDt and SetDt let the RungeKutta integrator temporarily
// rewind this event's clock and halve its step for the midpoint passes,
// then restore both afterward. Spike events don't implement these, so a
// type assertion against integrator.TimeStepper is how RungeKutta tells
// a periodic event apart from a one-shot one.
func (s *Step) GetT() float64    { return s.t }
func (s *Step) SetT(t float64)   { s.t = t }
func (s *Step) GetDt() float64   { return s.dt }
func (s *Step) SetDt(dt float64) { s.dt = dt }

// Run advances every part in this event's queue by one dt: integrates,
// updates, and finalizes, unlinking any part whose Finalize reports false
// (it has left the simulation).
func (s *Step) Run() {
	s.Integrator.Run(s)

	s.visitor.Visit(func(v *visitor.Visitor) {
		v.Part.Update()
	})
	s.visitor.Visit(func(v *visitor.Visitor) {
		if !v.Part.Finalize() {
			s.visitor.UnlinkCurrent(v.Part)
			v.Part.LeaveSimulation()
		}
	})
}

// Requeue decides whether this event should be pushed back onto the
// simulator's priority queue (it still holds live parts) or should be
// retired (its queue has gone empty). Called after the simulator has
// drained its resize/connect/clearNew deferred queues for the tick.
func (s *Step) Requeue(sim periodOwner) {
	if !s.Empty() {
		s.t += s.dt
		sim.PushEvent(s)
	} else {
		sim.RemovePeriod(s)
	}
}

// SingleSpike delivers one spike to a single target part at a fixed time.
type SingleSpike struct {
	T          float64
	Target     part.Part
	Latch      int
	Integrator integrator.Integrator
}

func (e *SingleSpike) Time() float64     { return e.T }
func (e *SingleSpike) Enqueue(part.Part) {}

// Dt is always 0: a one-shot spike has no subdivision to apply.
func (e *SingleSpike) Dt() float64 { return 0 }

// Visit calls f once against the single target, matching the one-shot
// Visitor this event walks with.
func (e *SingleSpike) Visit(f visitor.Func) {
	visitor.New(e, e.Target).Visit(f)
}

// Run applies the latch, integrates the single target through the event's
// integrator, then updates/finalizes/fires its event hook.
func (e *SingleSpike) Run() {
	if e.Latch >= 0 {
		e.Target.SetLatch(e.Latch)
	}
	e.Integrator.Run(e)
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Update()
		v.Part.Finalize()
		v.Part.FinalizeEvent()
	})
}

// SingleSpikeLatch only sets a latch flag; it carries no integration step
// because the target's period event will pick up the latched value on its
// next regular run.
type SingleSpikeLatch struct {
	T      float64
	Target part.Part
	Latch  int
}

func (e *SingleSpikeLatch) Time() float64     { return e.T }
func (e *SingleSpikeLatch) Enqueue(part.Part) {}
func (e *SingleSpikeLatch) Dt() float64       { return 0 }
func (e *SingleSpikeLatch) Run() {
	if e.Latch >= 0 {
		e.Target.SetLatch(e.Latch)
	}
}

// MultiSpike delivers one spike to a set of target parts gathered by a
// connection's projection. Targets is a borrowed, mutable slice: dead
// entries (nil) are compacted out in place by setLatch before the walk.
type MultiSpike struct {
	T          float64
	Targets    *[]part.Part
	Latch      int
	Integrator integrator.Integrator
}

func (e *MultiSpike) Time() float64     { return e.T }
func (e *MultiSpike) Enqueue(part.Part) {}
func (e *MultiSpike) Dt() float64       { return 0 }

// Visit walks the (already-compacted) target slice, calling f once per
// target in slice order.
func (e *MultiSpike) Visit(f visitor.Func) {
	visitor.NewSpikeMulti(e, e.Targets).Visit(f)
}

// setLatch applies the latch to every live target, compacting out dead
// (nil) entries by swapping each one with the last unscanned slot, the
// same in-place swap-and-shrink this method is grounded on. Order among
// surviving targets is not preserved.
func (e *MultiSpike) setLatch() {
	targets := *e.Targets
	i := 0
	last := len(targets) - 1
	for i <= last {
		target := targets[i]
		if target != nil {
			if e.Latch >= 0 {
				target.SetLatch(e.Latch)
			}
			i++
		} else {
			// Re-examine slot i: it now holds the former tail entry.
			targets[i] = targets[last]
			last--
		}
	}
	if last >= 0 && targets[last] != nil {
		*e.Targets = targets[:last+1]
	} else if last >= 0 {
		*e.Targets = targets[:last]
	} else {
		*e.Targets = targets[:0]
	}
}

// Run latches every surviving target, integrates and updates them as a
// batch, then finalizes.
func (e *MultiSpike) Run() {
	e.setLatch()
	e.Integrator.Run(e)
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Update()
	})
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Finalize()
		v.Part.FinalizeEvent()
	})
}

// MultiSpikeLatch only applies latches across a target set, with no
// integration pass.
type MultiSpikeLatch struct {
	T       float64
	Targets *[]part.Part
	Latch   int
}

func (e *MultiSpikeLatch) Time() float64     { return e.T }
func (e *MultiSpikeLatch) Enqueue(part.Part) {}
func (e *MultiSpikeLatch) Dt() float64       { return 0 }
func (e *MultiSpikeLatch) Run() {
	ms := &MultiSpike{T: e.T, Targets: e.Targets, Latch: e.Latch}
	ms.setLatch()
}
