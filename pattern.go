package amlengine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DetectAll runs every pattern matcher for accountID and returns the
// confirmed detections, in a fixed order (smurfing, layering, structuring,
// income mismatch) so output is deterministic given identical inputs.
func DetectAll(accountID string, transactions []Transaction, baseline Baseline, cfg Config, now time.Time) []PatternDetection {
	var out []PatternDetection
	if d := DetectSmurfing(accountID, transactions, cfg, now); d != nil {
		out = append(out, *d)
	}
	if d := DetectLayering(accountID, transactions, cfg); d != nil {
		out = append(out, *d)
	}
	if d := DetectStructuring(accountID, transactions, baseline, cfg); d != nil {
		out = append(out, *d)
	}
	if d := DetectIncomeMismatch(accountID, transactions, baseline, cfg, now); d != nil {
		out = append(out, *d)
	}
	return out
}

// DetectSmurfing looks for many-to-one inflows within cfg.SmurfingWindow.
func DetectSmurfing(accountID string, transactions []Transaction, cfg Config, now time.Time) *PatternDetection {
	cutoff := now.Add(-cfg.SmurfingWindow)
	var inflows []Transaction
	senders := make(map[string]bool)
	var total float64
	for _, t := range transactions {
		if t.Receiver == accountID && t.Timestamp.After(cutoff) && !t.Timestamp.After(now) {
			inflows = append(inflows, t)
			senders[t.Sender] = true
			total += t.Amount
		}
	}
	if len(senders) < cfg.SmurfingMinSenders {
		return nil
	}

	mean := total / float64(len(inflows))
	var clustered int
	ids := make([]string, 0, len(inflows))
	for _, t := range inflows {
		ids = append(ids, t.ID)
		if mean > 0 && math.Abs(t.Amount-mean)/mean <= 0.20 {
			clustered++
		}
	}
	clusteredFlag := float64(clustered)/float64(len(inflows)) >= 0.6

	return &PatternDetection{
		Type:           "smurfing",
		Severity:       SeverityHigh,
		Description:    fmt.Sprintf("%d distinct senders deposited into account within %s", len(senders), cfg.SmurfingWindow),
		TransactionIDs: ids,
		Details: map[string]interface{}{
			"unique_senders": len(senders),
			"clustered":      clusteredFlag,
		},
	}
}

// DetectLayering looks for rapid in/out matching: an inflow followed within
// cfg.LayeringWindow by an outflow of nearly the same amount. Matching is
// greedy first-match in inflow time order; an outflow may satisfy more than
// one inflow, which is documented, intentional behavior rather than a bug.
func DetectLayering(accountID string, transactions []Transaction, cfg Config) *PatternDetection {
	var inflows, outflows []Transaction
	for _, t := range transactions {
		if t.Receiver == accountID {
			inflows = append(inflows, t)
		}
		if t.Sender == accountID {
			outflows = append(outflows, t)
		}
	}
	sort.Slice(inflows, func(i, j int) bool { return inflows[i].Timestamp.Before(inflows[j].Timestamp) })
	sort.Slice(outflows, func(i, j int) bool { return outflows[i].Timestamp.Before(outflows[j].Timestamp) })

	var matchedIDs []string
	matches := 0
	for _, in := range inflows {
		for _, out := range outflows {
			delta := out.Timestamp.Sub(in.Timestamp)
			if delta <= 0 || delta >= cfg.LayeringWindow {
				continue
			}
			if math.Abs(out.Amount-in.Amount)/in.Amount >= cfg.LayeringAmountTolerance {
				continue
			}
			matches++
			matchedIDs = append(matchedIDs, in.ID, out.ID)
			break
		}
	}

	if matches < cfg.LayeringMinMatchedCycles {
		return nil
	}

	return &PatternDetection{
		Type:           "layering",
		Severity:       SeverityHigh,
		Description:    fmt.Sprintf("%d rapid in/out cycles matched within %s", matches, cfg.LayeringWindow),
		TransactionIDs: matchedIDs,
		Details: map[string]interface{}{
			"matched_cycles": matches,
		},
	}
}

// DetectStructuring looks for outflows clustered just under a dynamic
// reporting threshold, spread across multiple calendar days (UTC).
func DetectStructuring(accountID string, transactions []Transaction, baseline Baseline, cfg Config) *PatternDetection {
	threshold := math.Max(1.1*baseline.TypicalAmountHigh, cfg.StructuringThreshold)
	low := 0.85 * threshold
	high := 0.99 * threshold

	var matched []Transaction
	days := make(map[string]bool)
	var total float64
	for _, t := range transactions {
		if t.Sender != accountID {
			continue
		}
		if t.Amount < low || t.Amount > high {
			continue
		}
		matched = append(matched, t)
		days[civilDateUTC(t.Timestamp)] = true
		total += t.Amount
	}

	if len(matched) < cfg.StructuringMinOccurrences || len(days) < cfg.StructuringMinDistinctDays {
		return nil
	}

	ids := make([]string, len(matched))
	for i, t := range matched {
		ids[i] = t.ID
	}
	avg := total / float64(len(matched))

	return &PatternDetection{
		Type:           "structuring",
		Severity:       SeverityHigh,
		Description:    fmt.Sprintf("%d outflows averaging %.2f clustered just under threshold %.2f across %d days", len(matched), avg, threshold, len(days)),
		TransactionIDs: ids,
		Details: map[string]interface{}{
			"threshold":    threshold,
			"average":      avg,
			"distinct_days": len(days),
		},
	}
}

// DetectIncomeMismatch compares an account's recent inflow rate against its
// long-run baseline.
func DetectIncomeMismatch(accountID string, transactions []Transaction, baseline Baseline, cfg Config, now time.Time) *PatternDetection {
	if baseline.AccountAgeDays < cfg.IncomeMismatchMinAgeDays {
		return nil
	}
	if baseline.AvgDailyInflow == 0 {
		return nil
	}

	recent := RecentActivity(accountID, transactions, now, 7*24)
	var total float64
	var ids []string
	for _, t := range recent {
		if t.Receiver == accountID {
			total += t.Amount
			ids = append(ids, t.ID)
		}
	}
	recentDailyAvg := total / 7

	r := recentDailyAvg / baseline.AvgDailyInflow
	if r <= 3 {
		return nil
	}
	sev := SeverityMedium
	if r > 5 {
		sev = SeverityHigh
	}

	return &PatternDetection{
		Type:           "income_mismatch",
		Severity:       sev,
		Description:    fmt.Sprintf("recent inflow rate %.2f is %.1fx the baseline daily inflow %.2f", recentDailyAvg, r, baseline.AvgDailyInflow),
		TransactionIDs: ids,
		Details: map[string]interface{}{
			"ratio": r,
		},
	}
}

// civilDateUTC returns the calendar-date portion of t in UTC, as used to
// count distinct days for structuring detection. UTC is this module's
// documented choice when no deployment-specific time zone is configured
// (see DESIGN.md).
func civilDateUTC(t time.Time) string {
	u := t.UTC()
	return u.Format("2006-01-02")
}
