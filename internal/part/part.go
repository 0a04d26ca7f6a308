// Package part defines the per-instance simulation unit: state, lifecycle
// hooks, and the intrusive list links used by the event queues that hold it.
//
// Two flavors are distinguished by capability, mirroring the base-class
// split in the system this package is modeled on: [Base] lives only inside
// a VisitorStep's queue; [Timed] additionally supports out-of-order
// self-removal ([Timed.Dequeue]) and changing its period ([Timed.SetPeriod]).
// Concrete part types embed one of the two and override only the lifecycle
// hooks their behavior needs — every other hook keeps its no-op default.
package part

import "github.com/san-kum/eventsim/internal/sampling"

// Vector3 is the coordinate/projection type used by spatial hooks.
type Vector3 [3]float64

// EventHandle is the narrow view of an Event a part needs: enough to
// enqueue a freshly matched connection part onto it, and to read its
// current simulated time.
type EventHandle interface {
	Enqueue(Part)
	Time() float64
	// Dt reports the step size a concrete part's Integrate hook should
	// apply. Periodic events return their period; one-shot spike events,
	// which have no subdivision, return 0.
	Dt() float64
}

// VisitorQueue is the narrow view of a VisitorStep a Timed part needs for
// self-removal: it must be able to fix up the visitor's walk cursor before
// the part unlinks itself, and to report which event it belongs to.
type VisitorQueue interface {
	Event() EventHandle
	// NotifyDequeue moves the visitor's cursor off p, back to p's
	// predecessor, if p is the part the cursor currently points at and p
	// is about to unlink.
	NotifyDequeue(p Part)
}

// SimulatorHandle is the narrow view of the Simulator a part needs: the
// event currently being run (for Base.GetEvent, which — like the base
// class it is grounded on — only makes sense to call while that part's
// owning event is the one executing) and the ability to (re)schedule a
// part under a given period.
type SimulatorHandle interface {
	CurrentEvent() EventHandle
	Enqueue(p Part, dt float64)
}

// Part is the full capability interface a concrete simulation unit may
// implement. Every method has a workable default (see Base); a concrete
// type overrides only what its behavior needs.
type Part interface {
	// Lifecycle / integration hooks.
	Clear()
	Init(s sampling.Sampler)
	Integrate()
	Update()
	Finalize() bool
	UpdateDerivative()
	FinalizeDerivative()
	Snapshot()
	Restore()
	PushDerivative()
	MultiplyAddToStack(scalar float64)
	Multiply(scalar float64)
	AddToMembers()

	// Simulation membership hooks.
	Die()
	EnterSimulation()
	LeaveSimulation()
	IsFree() bool

	// Structural/behavioral hooks used by connection matching and events.
	SetPart(i int, p Part)
	GetPart(i int) Part
	GetCount(i int) int
	Project(i, j int) Vector3
	GetLive() float64
	GetP(s sampling.Sampler) float64
	GetXYZ() Vector3
	EventTest(i int) bool
	EventDelay(i int) float64
	SetLatch(i int)
	FinalizeEvent()

	// Intrusive VisitorStep-queue plumbing.
	Next() Part
	SetNext(Part)
	Previous() Part
	SetPrevious(Part)
	SetVisitor(VisitorQueue)
	GetEvent() EventHandle

	// Bind records the interface value that wraps this part's concrete
	// type, so embedded hooks (Dequeue, GetEvent) can hand "self" to
	// collaborators without the concrete type doing it manually. Called
	// once, by whatever constructs the part (typically a population's part
	// factory).
	Bind(self Part)
	SetSimulator(s SimulatorHandle)
}

// Base is embedded by every concrete part type that lives only inside an
// EventStep's queue; it has only the `next` link and relies on the
// surrounding visitor for iteration.
type Base struct {
	self Part
	next Part
	sim  SimulatorHandle
}

func (b *Base) Bind(self Part)                { b.self = self }
func (b *Base) SetSimulator(s SimulatorHandle) { b.sim = s }

func (b *Base) Clear()                        {}
func (b *Base) Init(sampling.Sampler)         {}
func (b *Base) Integrate()                    {}
func (b *Base) Update()                       {}
func (b *Base) Finalize() bool                { return true }
func (b *Base) UpdateDerivative()             {}
func (b *Base) FinalizeDerivative()           {}
func (b *Base) Snapshot()                     {}
func (b *Base) Restore()                      {}
func (b *Base) PushDerivative()               {}
func (b *Base) MultiplyAddToStack(float64)    {}
func (b *Base) Multiply(float64)              {}
func (b *Base) AddToMembers()                 {}

func (b *Base) Die()             {}
func (b *Base) EnterSimulation() {}
func (b *Base) LeaveSimulation() {}
func (b *Base) IsFree() bool     { return true }

func (b *Base) SetPart(int, Part)             {}
func (b *Base) GetPart(int) Part              { return nil }
func (b *Base) GetCount(int) int              { return 0 }
func (b *Base) Project(int, int) Vector3      { return Vector3{} }
func (b *Base) GetLive() float64              { return 1 }
func (b *Base) GetP(sampling.Sampler) float64 { return 1 }
func (b *Base) GetXYZ() Vector3               { return Vector3{} }
func (b *Base) EventTest(int) bool            { return false }
func (b *Base) EventDelay(int) float64        { return -1 }
func (b *Base) SetLatch(int)                  {}
func (b *Base) FinalizeEvent()                {}

func (b *Base) Next() Part         { return b.next }
func (b *Base) SetNext(p Part)     { b.next = p }
func (b *Base) Previous() Part     { return nil }
func (b *Base) SetPrevious(Part)   {}
func (b *Base) SetVisitor(VisitorQueue) {}

// GetEvent reports the event currently running in this part's simulator.
// Only meaningful while that event is what scheduled the call (e.g. during
// connection matching, which the simulator's updatePopulations phase runs
// right after an EventStep's Run), exactly like the base Part this is
// grounded on.
func (b *Base) GetEvent() EventHandle {
	if b.sim == nil {
		return nil
	}
	return b.sim.CurrentEvent()
}

// Timed adds a `previous` back-link and a visitor pointer, enabling
// self-removal from the middle of a VisitorStep's queue and changing
// periods through the simulator the part is bound to.
type Timed struct {
	Base
	previous Part
	visitor  VisitorQueue
}

func (t *Timed) Previous() Part          { return t.previous }
func (t *Timed) SetPrevious(p Part)      { t.previous = p }
func (t *Timed) SetVisitor(v VisitorQueue) { t.visitor = v }

// GetEvent returns the event that owns the visitor this part is currently
// queued under, independent of whatever event the simulator happens to be
// running right now.
func (t *Timed) GetEvent() EventHandle {
	if t.visitor == nil {
		return nil
	}
	return t.visitor.Event()
}

// Dequeue removes this part from its current VisitorStep's queue,
// carefully nudging the visitor's iteration cursor first if the visitor is
// currently walking and sitting right on this part.
func (t *Timed) Dequeue() {
	if t.visitor == nil {
		return
	}
	if t.Base.sim != nil && t.Base.sim.CurrentEvent() == t.visitor.Event() {
		t.visitor.NotifyDequeue(t.self)
	}
	next := t.Next()
	if next != nil {
		next.SetPrevious(t.previous)
	}
	if t.previous != nil {
		t.previous.SetNext(next)
	}
}

// SetPeriod dequeues this part from its current period and enqueues it
// under the EventStep for the new dt, creating that EventStep if needed.
func (t *Timed) SetPeriod(dt float64) {
	t.Dequeue()
	if t.Base.sim != nil {
		t.Base.sim.Enqueue(t.self, dt)
	}
}
