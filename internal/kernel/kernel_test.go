package kernel

import (
	"math/rand"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/require"
)

func defaultSnapshot() Snapshot {
	return Snapshot{
		AmountMax: 1000,
		Allowlist: map[string]bool{"US": true, "CA": true, "GB": true, "DE": true},
		ParamHash: "test-hash",
	}
}

var weekday = time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC) // Tuesday
var weekend = time.Date(2025, 9, 14, 13, 0, 0, 0, time.UTC) // Sunday

func TestScenarioSmallUSWeekdayPasses(t *testing.T) {
	result := Decide(Inputs{Amount: 100.00, Country: "US", Ts: weekday, Recent: 0}, defaultSnapshot())
	require.Equal(t, Pass, result.Decision)
}

func TestScenarioLargeDisallowedCountryHoldsHuman(t *testing.T) {
	result := Decide(Inputs{Amount: 5000.00, Country: "RU", Ts: weekday, Recent: 0}, defaultSnapshot())
	require.Equal(t, HoldHuman, result.Decision)
}

func TestScenarioWeekendOverCeilingNeedsOneBit(t *testing.T) {
	result := Decide(Inputs{Amount: 2800.00, Country: "US", Ts: weekend, Recent: 3}, defaultSnapshot())
	require.Equal(t, NeedOneBit, result.Decision)
}

func TestDeterminism(t *testing.T) {
	in := Inputs{Amount: 2800, Country: "US", Ts: weekend, Recent: 3}
	snap := defaultSnapshot()
	first := Decide(in, snap)
	second := Decide(in, snap)
	require.Equal(t, first, second)
}

func TestWeekendWeakensOtherwisePassingRequest(t *testing.T) {
	snap := defaultSnapshot()
	f := func(amountCents uint16, recent uint8) bool {
		amount := float64(amountCents%1500) + 1
		r := int(recent % 4)
		weekdayResult := Decide(Inputs{Amount: amount, Country: "US", Ts: weekday, Recent: r}, snap)
		weekendResult := Decide(Inputs{Amount: amount, Country: "US", Ts: weekend, Recent: r}, snap)
		if weekdayResult.Decision != Pass {
			return true
		}
		return weekendResult.Decision == NeedOneBit || weekendResult.Decision == HoldHuman
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 200, Rand: rand.New(rand.NewSource(1))}))
}

func TestMonotoneInAmount(t *testing.T) {
	snap := defaultSnapshot()
	f := func(a1, a2 uint16, recent uint8, weekendFlag bool) bool {
		amount1 := float64(a1 % 3000)
		amount2 := float64(a2 % 3000)
		lo, hi := amount1, amount2
		if lo > hi {
			lo, hi = hi, lo
		}
		ts := weekday
		if weekendFlag {
			ts = weekend
		}
		r := int(recent % 4)
		loResult := Decide(Inputs{Amount: lo, Country: "US", Ts: ts, Recent: r}, snap)
		hiResult := Decide(Inputs{Amount: hi, Country: "US", Ts: ts, Recent: r}, snap)
		return Severity(loResult.Decision) <= Severity(hiResult.Decision)
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 500, Rand: rand.New(rand.NewSource(2))}))
}

func TestRecentActivityNeverImproves(t *testing.T) {
	snap := defaultSnapshot()
	f := func(amountCents uint16, r1, r2 uint8) bool {
		amount := float64(amountCents % 3000)
		recentLo, recentHi := int(r1%8), int(r2%8)
		if recentLo > recentHi {
			recentLo, recentHi = recentHi, recentLo
		}
		loResult := Decide(Inputs{Amount: amount, Country: "US", Ts: weekday, Recent: recentLo}, snap)
		hiResult := Decide(Inputs{Amount: amount, Country: "US", Ts: weekday, Recent: recentHi}, snap)
		return Severity(loResult.Decision) <= Severity(hiResult.Decision)
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 500, Rand: rand.New(rand.NewSource(3))}))
}

func TestKernelMayEmitNeedOneBitForEngineToResolve(t *testing.T) {
	result := Decide(Inputs{Amount: 2800, Country: "US", Ts: weekend, Recent: 3}, defaultSnapshot())
	require.Equal(t, NeedOneBit, result.Decision, "kernel may emit NEED_ONE_BIT; it is the engine's job to resolve it before signing")
}
