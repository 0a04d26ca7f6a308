// Package visitor implements the iteration strategies used to walk the
// part set an event targets. VisitorStep is the performance-critical one:
// it supports safe mutation (a part dequeuing itself) mid-walk.
package visitor

import "github.com/san-kum/eventsim/internal/part"

// Func is the callback invoked once per part during a walk. It receives
// the Visitor so it can observe both the current event and the current
// part, the way the event loop's lambdas do.
type Func func(v *Visitor)

// Visitor is the base, one-shot walker: it holds a single part and calls f
// exactly once.
type Visitor struct {
	Event part.EventHandle
	Part  part.Part
}

// New builds a one-shot Visitor over a single part.
func New(event part.EventHandle, p part.Part) *Visitor {
	return &Visitor{Event: event, Part: p}
}

// Visit calls f once against the held part.
func (v *Visitor) Visit(f Func) {
	f(v)
}

// sentinel is a degenerate part used purely as the head of a VisitorStep's
// queue; it is never passed to a visitor callback.
type sentinel struct {
	part.Base
}

// Step walks a singly/doubly-linked queue of parts sharing one EventStep.
// Enqueue pushes at the head. Visit walks from the head, and is safe
// against the callback dequeuing the part currently being visited: the
// cursor only advances past a part if that part is still the cursor's
// immediate successor after the callback returns.
type Step struct {
	Visitor
	head     part.Part // sentinel; head.Next() is the first real part
	previous part.Part // walk cursor, valid only during Visit
}

// NewStep builds an empty VisitorStep bound to the given event.
func NewStep(event part.EventHandle) *Step {
	s := &Step{}
	s.Visitor.Event = event
	head := &sentinel{}
	head.Bind(head)
	s.head = head
	return s
}

// Enqueue pushes newPart onto the head of the queue.
func (s *Step) Enqueue(newPart part.Part) {
	newPart.SetVisitor(s)
	if old := s.head.Next(); old != nil {
		old.SetPrevious(newPart)
	}
	newPart.SetPrevious(s.head)
	newPart.SetNext(s.head.Next())
	s.head.SetNext(newPart)
}

// Empty reports whether the queue currently holds no parts.
func (s *Step) Empty() bool {
	return s.head.Next() == nil
}

// Visit walks every part currently in the queue, invoking f once per part.
// f may dequeue the part it was just called with (via Timed.Dequeue); the
// walk still reaches every other live part exactly once.
func (s *Step) Visit(f Func) {
	s.previous = s.head
	for s.previous.Next() != nil {
		p := s.previous.Next()
		s.Visitor.Part = p
		f(&s.Visitor)
		if s.previous.Next() == p {
			// Normal advance: f did not dequeue p.
			s.previous = p
		}
		// Otherwise f dequeued p and already re-stitched previous.Next(),
		// so previous stays put and now points at p's successor.
	}
}

// UnlinkCurrent removes the part just past the walk cursor (previous.Next())
// from the list, without involving the visitor cursor fixup that Dequeue
// performs — used by EventStep.Run's finalize pass, which walks and removes
// in the same loop that drives the cursor.
func (s *Step) UnlinkCurrent(p part.Part) {
	next := p.Next()
	if next != nil {
		next.SetPrevious(s.previous)
	}
	s.previous.SetNext(next)
}

// NotifyDequeue implements part.VisitorQueue: if the walk cursor currently
// sits on p (p was already visited and is about to unlink itself), move the
// cursor back to p's predecessor so it stays on a linked part. A part that
// dequeues itself while being visited needs no fixup: Visit sees that the
// cursor's successor changed and does not advance.
func (s *Step) NotifyDequeue(p part.Part) {
	if s.previous == p {
		s.previous = p.Previous()
	}
}

// Event implements part.VisitorQueue.
func (s *Step) Event() part.EventHandle { return s.Visitor.Event }

// SpikeMulti walks a borrowed, mutable list of target parts.
type SpikeMulti struct {
	Visitor
	Targets *[]part.Part
}

// NewSpikeMulti builds a visitor over a (possibly nil-containing) slice of
// targets. The slice is shared with the caller; EventSpikeMulti compacts it
// before handing it here.
func NewSpikeMulti(event part.EventHandle, targets *[]part.Part) *SpikeMulti {
	return &SpikeMulti{Visitor: Visitor{Event: event}, Targets: targets}
}

// Visit calls f once per target, in slice order.
func (s *SpikeMulti) Visit(f Func) {
	for _, target := range *s.Targets {
		s.Visitor.Part = target
		f(&s.Visitor)
	}
}
