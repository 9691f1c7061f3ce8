package amlengine

import (
	"fmt"
	"sort"
	"time"
)

// ComputeBaseline derives a Baseline for accountID from transactions as of
// now. Transactions not touching the account are ignored; an account with
// no transactions at all gets DefaultBaseline.
func ComputeBaseline(accountID string, transactions []Transaction, now time.Time) Baseline {
	var touching []Transaction
	for _, t := range transactions {
		if t.TouchesAccount(accountID) {
			touching = append(touching, t)
		}
	}
	if len(touching) == 0 {
		return DefaultBaseline
	}

	first := touching[0].Timestamp
	for _, t := range touching[1:] {
		if t.Timestamp.Before(first) {
			first = t.Timestamp
		}
	}
	ageDays := int(now.Sub(first).Hours() / 24)
	if ageDays < 1 {
		ageDays = 1
	}

	var inflow, outflow float64
	senders := make(map[string]bool)
	receivers := make(map[string]bool)
	amounts := make([]float64, 0, len(touching))
	for _, t := range touching {
		amounts = append(amounts, t.Amount)
		if t.Receiver == accountID {
			inflow += t.Amount
			senders[t.Sender] = true
		}
		if t.Sender == accountID {
			outflow += t.Amount
			receivers[t.Receiver] = true
		}
	}
	sort.Float64s(amounts)
	n := len(amounts)
	p10 := amounts[int(0.1*float64(n))]
	p90 := amounts[int(0.9*float64(n))]

	days := float64(ageDays)
	return Baseline{
		AccountID:          accountID,
		AvgDailyInflow:     inflow / days,
		AvgDailyOutflow:    outflow / days,
		AvgTxFrequency:     float64(n) / days,
		AvgUniqueSenders:   float64(len(senders)) / days,
		AvgUniqueReceivers: float64(len(receivers)) / days,
		TypicalAmountLow:   p10,
		TypicalAmountHigh:  p90,
		AccountAgeDays:     ageDays,
		TotalTransactions:  n,
	}
}

// CheckDeviation tests a single transaction against accountID's baseline.
// Only outbound legs (tx.Sender == accountID) are considered for
// amount_deviation/first_transaction; range_deviation applies regardless
// of direction since it is a property of the amount relative to the
// account's typical range.
func CheckDeviation(tx Transaction, accountID string, b Baseline) (bool, []Deviation) {
	var deviations []Deviation

	if tx.Sender == accountID {
		switch {
		case b.AvgDailyOutflow > 0 && tx.Amount/b.AvgDailyOutflow > 3:
			ratio := tx.Amount / b.AvgDailyOutflow
			sev := SeverityMedium
			if ratio > 5 {
				sev = SeverityHigh
			}
			deviations = append(deviations, Deviation{
				Kind:          "amount_deviation",
				Severity:      sev,
				Description:   fmt.Sprintf("outflow %.2f is %.1fx the daily average outflow", tx.Amount, ratio),
				TransactionID: tx.ID,
			})
		case b.AvgDailyOutflow == 0 && tx.Amount > 0:
			deviations = append(deviations, Deviation{
				Kind:          "first_transaction",
				Severity:      SeverityMedium,
				Description:   "first outbound transaction observed for this account",
				TransactionID: tx.ID,
			})
		}
	}

	if b.TypicalAmountHigh > 0 && tx.Amount > 1.5*b.TypicalAmountHigh {
		deviations = append(deviations, Deviation{
			Kind:          "range_deviation",
			Severity:      SeverityMedium,
			Description:   fmt.Sprintf("amount %.2f exceeds 1.5x the typical range ceiling (%.2f)", tx.Amount, b.TypicalAmountHigh),
			TransactionID: tx.ID,
		})
	}

	return len(deviations) > 0, deviations
}

// RecentActivity returns the transactions touching accountID whose
// timestamp falls within the last hoursBack hours before now.
func RecentActivity(accountID string, transactions []Transaction, now time.Time, hoursBack float64) []Transaction {
	cutoff := now.Add(-time.Duration(hoursBack * float64(time.Hour)))
	var out []Transaction
	for _, t := range transactions {
		if t.TouchesAccount(accountID) && t.Timestamp.After(cutoff) && !t.Timestamp.After(now) {
			out = append(out, t)
		}
	}
	return out
}
