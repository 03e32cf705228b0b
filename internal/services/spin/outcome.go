package spin

import "math/rand/v2"

// Section is a wheel section index in [0, NumSections).
type Section int

const NumSections = 8

// SectionJackpot pays out the whole jackpot.
const SectionJackpot Section = 7

var fixedPayouts = [NumSections]int64{0, 10, 50, 100, 200, 500, 750, 0}

// Outcome is the payout rule of a section. For the jackpot section Payout is
// zero and the amount is taken from the jackpot counter instead.
type Outcome struct {
	Section Section
	Payout  int64
	Jackpot bool
}

// Resolve maps a section to its payout rule. Sections outside the wheel are
// reduced modulo NumSections.
func Resolve(s Section) Outcome {
	s = ((s % NumSections) + NumSections) % NumSections

	if s == SectionJackpot {
		return Outcome{Section: s, Jackpot: true}
	}

	return Outcome{Section: s, Payout: fixedPayouts[s]}
}

// Drawer picks a wheel section. Implementations must be safe for concurrent use.
type Drawer interface {
	Draw() Section
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func() Section

func (f DrawerFunc) Draw() Section { return f() }

type uniformDrawer struct{}

func (uniformDrawer) Draw() Section {
	return Section(rand.IntN(NumSections))
}

// UniformDrawer draws every section with equal probability.
func UniformDrawer() Drawer { return uniformDrawer{} }
