// Package population implements the live/dead part membership list and the
// connection-matching algorithm that proposes new connection instances
// between two populations as they grow.
//
// The live list and its "new since last scan" boundary are modeled as an
// arena of internal nodes with stable identity and a doubly-linked ring,
// rather than reusing the Part's own intrusive next/previous fields (those
// belong to the VisitorStep queue a part is independently enqueued under).
// This keeps a part's VisitorStep-queue membership and its Population-live
// membership as two unrelated intrusive structures, the way the system
// this package is modeled on keeps a separate before/after link pair on
// Part purely for population bookkeeping.
package population

import (
	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/sampling"
)

type entry struct {
	part       part.Part
	prev, next *entry // live ring neighbors; nil/unused while on the dead chain
	deadNext   *entry // dead free-list link
}

// Population holds the live/dead membership of one part type and,
// optionally, the configuration needed to run as a connection population
// between two target populations.
type Population struct {
	factory func() part.Part
	sampler sampling.Sampler

	sentinel *entry // ring head; sentinel.next is the newest live part
	old      *entry // boundary: (sentinel.next .. old) is "new", (old .. sentinel) is "old"
	dead     *entry // singly-linked free list

	byPart map[part.Part]*entry
	n      int

	// Connection configuration. TargetA/TargetB are nil for a plain
	// (non-connection) population.
	TargetA, TargetB       *Population
	MinA, MaxA, MinB, MaxB int
	KA, KB                 int
	RadiusA, RadiusB       float64
}

// New builds an empty population whose members are produced by factory.
func New(factory func() part.Part, sampler sampling.Sampler) *Population {
	p := &Population{factory: factory, sampler: sampler, byPart: map[part.Part]*entry{}}
	p.sentinel = &entry{}
	p.sentinel.next = p.sentinel
	p.sentinel.prev = p.sentinel
	p.old = p.sentinel
	return p
}

// Len reports the current live count.
func (p *Population) Len() int { return p.n }

// GetMin, GetMax, GetK and GetRadius report this population's connection
// policy for endpoint i (0 = A, 1 = B). GetK and GetRadius back a
// nearest-neighbor restricted search that Connect does not currently
// perform (see Connect's doc comment); they are wired for completeness and
// future use, matching unused hooks in the system this is grounded on.
func (p *Population) GetMin(i int) int {
	if i == 0 {
		return p.MinA
	}
	return p.MinB
}

func (p *Population) GetMax(i int) int {
	if i == 0 {
		return p.MaxA
	}
	return p.MaxB
}

func (p *Population) GetK(i int) int {
	if i == 0 {
		return p.KA
	}
	return p.KB
}

func (p *Population) GetRadius(i int) float64 {
	if i == 0 {
		return p.RadiusA
	}
	return p.RadiusB
}

// insert links e at the ring head (the newest position), so it is "new"
// until a ClearNew call moves old past it.
func (p *Population) insert(e *entry) {
	head := p.sentinel.next
	e.prev = p.sentinel
	e.next = head
	head.prev = e
	p.sentinel.next = e
	p.n++
}

// unlink removes e from the live ring. If e happens to be the old marker,
// the marker moves to e's successor so the new/old boundary stays valid.
func (p *Population) unlink(e *entry) {
	if p.old == e {
		p.old = e.next
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	p.n--
}

// Add brings newPart into the population as a live, newly-added member.
func (p *Population) Add(newPart part.Part) {
	e := &entry{part: newPart}
	p.insert(e)
	p.byPart[newPart] = e
}

// Remove takes target out of the live ring and pushes it onto the dead
// free list for future reuse by Allocate.
func (p *Population) Remove(target part.Part) {
	e, ok := p.byPart[target]
	if !ok {
		return
	}
	p.unlink(e)
	delete(p.byPart, target)
	e.deadNext = p.dead
	p.dead = e
}

// Allocate returns a live part: a cleared, reused dead part if one is free,
// or a freshly constructed one otherwise, and calls its Init hook either
// way. The original this is grounded on leaves `init` to a per-model
// generated `resize` override that calls `create` then `init` together;
// this Population has no generated subclass to do that, so Allocate — the
// one path every part enters the population through — calls Init itself.
func (p *Population) Allocate() part.Part {
	var prev *entry
	for e := p.dead; e != nil; e = e.deadNext {
		if e.part.IsFree() {
			if prev == nil {
				p.dead = e.deadNext
			} else {
				prev.deadNext = e.deadNext
			}
			e.part.Clear()
			e.deadNext = nil
			p.insert(e)
			p.byPart[e.part] = e
			e.part.Init(p.sampler)
			return e.part
		}
		prev = e
	}

	newPart := p.factory()
	p.Add(newPart)
	newPart.Init(p.sampler)
	return newPart
}

// Resize grows or shrinks the population to exactly n live members,
// allocating new parts or killing and removing surplus ones.
func (p *Population) Resize(n int) {
	for p.n < n {
		p.Allocate()
	}
	for p.n > n && p.sentinel.next != p.sentinel {
		e := p.sentinel.prev // oldest first
		e.part.Die()
		p.Remove(e.part)
	}
}

// Each walks every live member, head (newest) to tail (oldest), calling fn
// once per part. It is the same sentinel-ring traversal Connect and Resize
// use internally, exposed so a driver can schedule a freshly built
// population's members onto a Simulator.
func (p *Population) Each(fn func(part.Part)) {
	for e := p.sentinel.next; e != p.sentinel; e = e.next {
		fn(e.part)
	}
}

// ClearNew moves the old marker to the ring head, meaning every part
// currently live is no longer "new" for the purposes of the next Connect
// pass.
func (p *Population) ClearNew() {
	p.old = p.sentinel.next
}

// Connect implements the max-only, single-pass connection-matching
// algorithm between TargetA and TargetB: it proposes a candidate
// connection part for every (new A, any B) and (new B, old A) pair,
// accepting it with probability given by the candidate's GetP, and
// skipping an endpoint once it has reached its configured max degree. It
// does not perform nearest-neighbor-restricted search (GetK/GetRadius are
// present but unused) and does not retry to satisfy a minimum degree
// (GetMin is present but unused) — both match the single, max-only scan
// this algorithm is grounded on.
func (p *Population) Connect() {
	A, B := p.TargetA, p.TargetB
	if A == nil || B == nil {
		return
	}
	if A.old == A.sentinel.next && B.old == B.sentinel.next {
		return // neither side has new members since the last scan
	}

	Amin, Amax := p.GetMin(0), p.GetMax(0)
	Bmin, Bmax := p.GetMin(1), p.GetMax(1)

	c := p.factory()

	Alast := A.old
	Blast := B.sentinel.next
	minSatisfied := false
	for !minSatisfied {
		minSatisfied = true

		// New A against all of B.
		for a := A.sentinel.next; a != A.old; a = a.next {
			c.SetPart(0, a.part)
			var acount int
			if Amax != 0 || Amin != 0 {
				acount = c.GetCount(0)
			}
			if Amax != 0 && acount >= Amax {
				continue
			}

			bnext := Blast.prev
			if bnext == B.sentinel {
				bnext = bnext.prev
			}
			b := Blast
			for {
				b = b.next
				if b == B.sentinel {
					b = b.next
				}
				c.SetPart(1, b.part)

				accepted := false
				if Bmax == 0 || c.GetCount(1) < Bmax {
					create := c.GetP(p.sampler)
					if create > 0 && (create >= 1 || create >= p.sampler.Uniform()) {
						c.EnterSimulation()
						if ev := a.part.GetEvent(); ev != nil {
							ev.Enqueue(c)
						}
						c.Init(p.sampler)
						accepted = true
					}
				}
				if accepted {
					bnext = b
					c = p.factory()
					c.SetPart(0, a.part)
					if Amax != 0 {
						acount++
						if acount >= Amax {
							break
						}
					}
				}
				if b == Blast {
					break
				}
			}
			Blast = bnext
		}

		// New B against old A (new-A-vs-new-B already covered above).
		if A.old != A.sentinel {
			for b := B.sentinel.next; b != B.old; b = b.next {
				c.SetPart(1, b.part)
				var bcount int
				if Bmax != 0 || Bmin != 0 {
					bcount = c.GetCount(1)
				}
				if Bmax != 0 && bcount >= Bmax {
					continue
				}

				var anext *entry
				if Alast == A.old {
					anext = A.sentinel.prev
				} else {
					anext = Alast.prev
				}
				a := Alast
				for {
					a = a.next
					if a == A.sentinel {
						a = A.old
					}
					c.SetPart(0, a.part)

					accepted := false
					if Amax == 0 || c.GetCount(0) < Amax {
						create := c.GetP(p.sampler)
						if create > 0 && (create >= 1 || create >= p.sampler.Uniform()) {
							c.EnterSimulation()
							if ev := b.part.GetEvent(); ev != nil {
								ev.Enqueue(c)
							}
							c.Init(p.sampler)
							accepted = true
						}
					}
					if accepted {
						anext = a
						c = p.factory()
						c.SetPart(1, b.part)
						if Bmax != 0 {
							bcount++
							if bcount >= Bmax {
								break
							}
						}
					}
					if a == Alast {
						break
					}
				}
				Alast = anext
			}
		}
	}
}
