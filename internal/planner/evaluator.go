package planner

import "sort"

// =============================================================================
// COGNITIVE TAX EVALUATION
// =============================================================================

// Tax weighting. The score must rise with switching and fragmentation
// and fall with longer focus blocks; these constants keep it in [0,1].
const (
	switchWeight        = 0.6
	fragmentationWeight = 0.2
	durationWeight      = 0.2

	// Blocks at or above this many hours earn the full duration bonus.
	fullFocusHours = 2.0
)

// Evaluate computes the cognitive cost of a schedule. It is a pure
// function of the block sequence: blocks are taken in chronological
// order across the whole week, a context switch is an adjacent pair
// with differing categories, and a block shorter than focusThreshold
// counts toward fragmentation.
func Evaluate(blocks []Block, focusThreshold float64) CognitiveMetrics {
	if focusThreshold <= 0 {
		focusThreshold = 1
	}
	if len(blocks) == 0 {
		return CognitiveMetrics{Interpretation: interpretTax(0)}
	}

	ordered := make([]Block, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	switches := 0
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Category != ordered[i-1].Category {
			switches++
		}
	}

	totalHours := 0.0
	small := 0
	for _, b := range ordered {
		totalHours += b.DurationHours
		if b.DurationHours < focusThreshold {
			small++
		}
	}
	avg := totalHours / float64(len(ordered))
	fragmentation := float64(small) / float64(len(ordered))

	switchRate := float64(switches) / float64(len(ordered))
	durationPenalty := 1 - avg/fullFocusHours
	if durationPenalty < 0 {
		durationPenalty = 0
	}

	tax := switchRate*switchWeight + fragmentation*fragmentationWeight + durationPenalty*durationWeight
	if tax > 1 {
		tax = 1
	}

	return CognitiveMetrics{
		CognitiveTaxScore:    round3(tax),
		ContextSwitches:      switches,
		AverageBlockDuration: round2(avg),
		FragmentationScore:   round3(fragmentation),
		Interpretation:       interpretTax(tax),
	}
}

// interpretTax maps a score to a human-readable band.
func interpretTax(score float64) string {
	switch {
	case score < 0.3:
		return "Excellent - Very low context switching and good focus blocks"
	case score < 0.5:
		return "Good - Moderate context switching with decent focus time"
	case score < 0.7:
		return "Fair - Significant context switching, consider regrouping tasks"
	default:
		return "Poor - High context switching and fragmentation, needs optimization"
	}
}

func round2(v float64) float64 { return roundTo(v, 100) }
func round3(v float64) float64 { return roundTo(v, 1000) }

func roundTo(v float64, scale float64) float64 {
	if v >= 0 {
		return float64(int64(v*scale+0.5)) / scale
	}
	return float64(int64(v*scale-0.5)) / scale
}
