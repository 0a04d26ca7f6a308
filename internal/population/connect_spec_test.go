package population

import (
	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/sampling"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// endpointPart is a minimal A/B-side population member: just enough identity
// to be a distinct map key and a no-op event handle to enqueue onto.
type endpointPart struct {
	part.Base
	label string
	ev    *fakeConnEvent
}

func newEndpointPart(label string) *endpointPart {
	p := &endpointPart{label: label, ev: &fakeConnEvent{}}
	p.Bind(p)
	return p
}

func (p *endpointPart) GetEvent() part.EventHandle { return p.ev }

type fakeConnEvent struct{ enqueued []part.Part }

func (f *fakeConnEvent) Enqueue(p part.Part) { f.enqueued = append(f.enqueued, p) }
func (f *fakeConnEvent) Time() float64       { return 0 }
func (f *fakeConnEvent) Dt() float64         { return 0 }

// connDegree tracks, per endpoint part, how many accepted connections
// reference it on a given side — this is what GetCount reports back to
// Connect so Amax/Bmax are enforced.
type connDegree struct {
	a, b map[part.Part]int
}

func newConnDegree() *connDegree {
	return &connDegree{a: map[part.Part]int{}, b: map[part.Part]int{}}
}

// connCandidate is the connection population's part type: a scratch pairing
// of one A and one B endpoint, probed via SetPart/GetCount/GetP and only
// recorded as a real connection once EnterSimulation is called on it.
type connCandidate struct {
	part.Base
	a, b    part.Part
	degrees *connDegree
	p       func(a, b part.Part) float64
	pairs   *[][2]part.Part
}

func (c *connCandidate) SetPart(i int, p part.Part) {
	if i == 0 {
		c.a = p
	} else {
		c.b = p
	}
}
func (c *connCandidate) GetPart(i int) part.Part {
	if i == 0 {
		return c.a
	}
	return c.b
}
func (c *connCandidate) GetCount(i int) int {
	if i == 0 {
		return c.degrees.a[c.a]
	}
	return c.degrees.b[c.b]
}
func (c *connCandidate) GetP(sampling.Sampler) float64 { return c.p(c.a, c.b) }
func (c *connCandidate) EnterSimulation() {
	c.degrees.a[c.a]++
	c.degrees.b[c.b]++
	*c.pairs = append(*c.pairs, [2]part.Part{c.a, c.b})
}

func newConnPopulation(p func(a, b part.Part) float64) (*Population, *connDegree, *[][2]part.Part) {
	degrees := newConnDegree()
	pairs := &[][2]part.Part{}
	factory := func() part.Part {
		cand := &connCandidate{degrees: degrees, p: p, pairs: pairs}
		cand.Bind(cand)
		return cand
	}
	conn := New(factory, sampling.New(7))
	return conn, degrees, pairs
}

var _ = Describe("Connect", func() {
	var A, B *Population
	var a1, a2, b1, b2 *endpointPart

	BeforeEach(func() {
		A = New(func() part.Part { return newEndpointPart("a") }, sampling.New(1))
		B = New(func() part.Part { return newEndpointPart("b") }, sampling.New(2))
		a1, a2 = newEndpointPart("a1"), newEndpointPart("a2")
		b1, b2 = newEndpointPart("b1"), newEndpointPart("b2")
		A.Add(a1)
		A.Add(a2)
		B.Add(b1)
		B.Add(b2)
	})

	It("connects every new-A to every new-B when p=1 and no caps are set (S4)", func() {
		conn, _, pairs := newConnPopulation(func(a, b part.Part) float64 { return 1 })
		conn.TargetA, conn.TargetB = A, B

		conn.Connect()

		Expect(*pairs).To(HaveLen(4))
		seen := map[[2]part.Part]bool{}
		for _, pr := range *pairs {
			Expect(seen[pr]).To(BeFalse(), "pair %v should be distinct", pr)
			seen[pr] = true
		}

		A.ClearNew()
		B.ClearNew()
		*pairs = nil
		conn.Connect()
		Expect(*pairs).To(BeEmpty(), "a rescan after clearNew with no new members should add nothing")
	})

	It("produces a perfect one-to-one matching when Amax=Bmax=1 and p=1", func() {
		a3 := newEndpointPart("a3")
		b3 := newEndpointPart("b3")
		A.Add(a3)
		B.Add(b3)

		conn, _, pairs := newConnPopulation(func(a, b part.Part) float64 { return 1 })
		conn.TargetA, conn.TargetB = A, B
		conn.MaxA, conn.MaxB = 1, 1

		conn.Connect()

		Expect(*pairs).To(HaveLen(3))
		aUsed := map[part.Part]bool{}
		bUsed := map[part.Part]bool{}
		for _, pr := range *pairs {
			Expect(aUsed[pr[0]]).To(BeFalse(), "each A endpoint should appear at most once")
			Expect(bUsed[pr[1]]).To(BeFalse(), "each B endpoint should appear at most once")
			aUsed[pr[0]] = true
			bUsed[pr[1]] = true
		}
	})

	It("creates no connections when p=0", func() {
		conn, _, pairs := newConnPopulation(func(a, b part.Part) float64 { return 0 })
		conn.TargetA, conn.TargetB = A, B

		conn.Connect()

		Expect(*pairs).To(BeEmpty())
	})

	It("does nothing when neither population has new members", func() {
		conn, _, pairs := newConnPopulation(func(a, b part.Part) float64 { return 1 })
		conn.TargetA, conn.TargetB = A, B
		A.ClearNew()
		B.ClearNew()

		conn.Connect()

		Expect(*pairs).To(BeEmpty())
	})
})
