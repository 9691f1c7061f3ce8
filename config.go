package amlengine

import "time"

// Config is the tunable-constants surface for every detector and scoring
// weight in the engine. It is a plain struct rather than package-level
// globals so a composition root can override any threshold per deployment
// while DefaultConfig() documents the defaults in one place.
type Config struct {
	// StructuringThreshold is the floor used when computing the dynamic
	// structuring threshold T = max(1.1*p90, StructuringThreshold).
	StructuringThreshold float64

	// DedupWindow is the lookback window within which a second alert for
	// the same account is suppressed as a duplicate.
	DedupWindow time.Duration

	// MaxPathDepth bounds the circular-flow DFS in Network.Analyze.
	MaxPathDepth int

	// SmurfingMinSenders is the minimum distinct-sender count over
	// SmurfingWindow that qualifies as smurfing.
	SmurfingMinSenders int
	SmurfingWindow     time.Duration

	// LayeringWindow and LayeringAmountTolerance bound the rapid in/out
	// matching used by layering detection.
	LayeringWindow           time.Duration
	LayeringAmountTolerance  float64
	LayeringMinMatchedCycles int

	// RapidRedistributionWindow bounds the hub-account redistribution test.
	RapidRedistributionWindow time.Duration
	HubMinCounterparties      int
	HubMinRedistributions     int

	// UnusualHourStart/End define the "unusual timing" hour-of-day window,
	// half-open [Start, End).
	UnusualHourStart int
	UnusualHourEnd   int

	// Score weights, applied in Evidence.Evaluate's reduction.
	WeightSuspiciousTx    int
	WeightPattern         int
	WeightNetworkSignal   int
	WeightProbableMLBonus int

	// SuspiciousThreshold is the score at or above which an alert is
	// generated.
	SuspiciousThreshold int

	// Risk band floors: score >= RiskBandProbableML -> ProbableML, else
	// >= RiskBandHighRisk -> HighRisk, else >= RiskBandSuspicious ->
	// Suspicious, else Normal.
	RiskBandSuspicious int
	RiskBandHighRisk   int
	RiskBandProbableML int

	// StructuringMinOccurrences/StructuringMinDistinctDays are the
	// per-pattern occurrence floors used by structuring detection,
	// pulled into Config so they're tunable alongside everything else.
	StructuringMinOccurrences  int
	StructuringMinDistinctDays int
	IncomeMismatchMinAgeDays   int
}

// DefaultConfig returns the documented default constants table.
func DefaultConfig() Config {
	return Config{
		StructuringThreshold: 10000,
		DedupWindow:          time.Hour,

		MaxPathDepth: 5,

		SmurfingMinSenders: 6,
		SmurfingWindow:     48 * time.Hour,

		LayeringWindow:           2 * time.Hour,
		LayeringAmountTolerance:  0.10,
		LayeringMinMatchedCycles: 3,

		RapidRedistributionWindow: 24 * time.Hour,
		HubMinCounterparties:      5,
		HubMinRedistributions:     3,

		UnusualHourStart: 0,
		UnusualHourEnd:   5,

		WeightSuspiciousTx:    10,
		WeightPattern:         20,
		WeightNetworkSignal:   30,
		WeightProbableMLBonus: 20,

		SuspiciousThreshold: 30,

		RiskBandSuspicious: 30,
		RiskBandHighRisk:   60,
		RiskBandProbableML: 80,

		StructuringMinOccurrences:  3,
		StructuringMinDistinctDays: 2,
		IncomeMismatchMinAgeDays:   7,
	}
}
