package amlengine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// EvidenceService computes and persists per-account Evaluations. It holds
// no mutable state of its own — every call reads the full transaction log
// from store and recomputes everything from scratch.
type EvidenceService struct {
	store Store
	cfg   Config
	clock func() time.Time
}

// NewEvidenceService constructs an EvidenceService. clock defaults to
// time.Now when nil.
func NewEvidenceService(store Store, cfg Config, clock func() time.Time) *EvidenceService {
	if clock == nil {
		clock = time.Now
	}
	return &EvidenceService{store: store, cfg: cfg, clock: clock}
}

// Evaluate computes a fresh Evaluation for accountID from the full
// transaction log. It does not persist the result; call UpdateEvidence
// with the returned value to do that.
func (e *EvidenceService) Evaluate(accountID string) (Evaluation, error) {
	all, err := e.store.ListTransactions()
	if err != nil {
		return Evaluation{}, wrapStoreFailure("list_transactions", err)
	}

	now := e.clock()
	baseline := ComputeBaseline(accountID, all, now)
	suspicious := e.FindSuspicious(accountID, all, baseline, now)
	patterns := DetectAll(accountID, all, baseline, e.cfg, now)

	lookup := func(id string) (*AccountEvidence, bool) {
		ev, err := e.store.GetEvidence(id)
		if err != nil || ev == nil {
			return nil, false
		}
		return ev, true
	}
	net := Analyze(accountID, all, lookup, e.cfg)

	score := clampScore(
		e.cfg.WeightSuspiciousTx*len(suspicious)+
			e.cfg.WeightPattern*len(patterns)+
			e.cfg.WeightNetworkSignal*len(net.Signals)+
			probableMLBonus(net.IsProbableML, e.cfg),
	)

	return Evaluation{
		AccountID:     accountID,
		Baseline:      baseline,
		SuspiciousTxs: suspicious,
		Patterns:      patterns,
		Network:       net,
		Score:         score,
		RiskLevel:     BandForScore(score, e.cfg),
		EvaluatedAt:   now,
	}, nil
}

func probableMLBonus(isProbableML bool, cfg Config) int {
	if isProbableML {
		return cfg.WeightProbableMLBonus
	}
	return 0
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FindSuspicious runs five suspicious-transaction tests (baseline
// deviation, frequency spike, sender-count spike, similar-value repeat,
// unusual timing) against every transaction touching accountID.
func (e *EvidenceService) FindSuspicious(accountID string, transactions []Transaction, baseline Baseline, now time.Time) []SuspiciousEntry {
	var out []SuspiciousEntry

	todayTouching := RecentActivity(accountID, transactions, now, 24)
	todayCount := len(todayTouching)
	todaySenders := make(map[string]bool)
	for _, t := range todayTouching {
		if t.Receiver == accountID {
			todaySenders[t.Sender] = true
		}
	}

	var historyHours, unusualHours int
	for _, t := range transactions {
		if !t.TouchesAccount(accountID) {
			continue
		}
		h := t.Timestamp.UTC().Hour()
		historyHours++
		if h >= e.cfg.UnusualHourStart && h < e.cfg.UnusualHourEnd {
			unusualHours++
		}
	}
	normalFraction := 0.0
	if historyHours > 0 {
		normalFraction = float64(historyHours-unusualHours) / float64(historyHours)
	}

	freqSpike := baseline.AvgTxFrequency > 0 && float64(todayCount) > 3*baseline.AvgTxFrequency
	senderSpike := baseline.AvgUniqueSenders > 0 && float64(len(todaySenders)) > 2*baseline.AvgUniqueSenders

	for _, t := range transactions {
		if !t.TouchesAccount(accountID) {
			continue
		}

		if t.Sender == accountID {
			if has, devs := CheckDeviation(t, accountID, baseline); has {
				for _, d := range devs {
					out = append(out, SuspiciousEntry{
						TransactionID: t.ID,
						Kind:          "baseline_deviation:" + d.Kind,
						Severity:      d.Severity,
						Description:   d.Description,
						Transaction:   t,
					})
				}
			}
		}

		isToday := !t.Timestamp.Before(now.Add(-24*time.Hour)) && !t.Timestamp.After(now)

		if isToday && freqSpike {
			out = append(out, SuspiciousEntry{
				TransactionID: t.ID,
				Kind:          "frequency_spike",
				Severity:      SeverityMedium,
				Description:   fmt.Sprintf("today's transaction count %d exceeds 3x the baseline frequency %.2f", todayCount, baseline.AvgTxFrequency),
				Transaction:   t,
			})
		}

		if isToday && t.Receiver == accountID && senderSpike {
			out = append(out, SuspiciousEntry{
				TransactionID: t.ID,
				Kind:          "sender_count_spike",
				Severity:      SeverityMedium,
				Description:   fmt.Sprintf("today's unique sender count %d exceeds 2x the baseline %.2f", len(todaySenders), baseline.AvgUniqueSenders),
				Transaction:   t,
			})
		}

		if similarValueRepeatCount(accountID, transactions, t) >= 3 {
			out = append(out, SuspiciousEntry{
				TransactionID: t.ID,
				Kind:          "similar_value_repeat",
				Severity:      SeverityMedium,
				Description:   fmt.Sprintf("3 or more transactions within 24h have an amount within 5%% of %.2f", t.Amount),
				Transaction:   t,
			})
		}

		h := t.Timestamp.UTC().Hour()
		if h >= e.cfg.UnusualHourStart && h < e.cfg.UnusualHourEnd && normalFraction > 0.80 {
			out = append(out, SuspiciousEntry{
				TransactionID: t.ID,
				Kind:          "unusual_timing",
				Severity:      SeverityLow,
				Description:   fmt.Sprintf("transaction at hour %d falls outside the account's usual activity hours", h),
				Transaction:   t,
			})
		}
	}

	return out
}

// similarValueRepeatCount counts transactions touching accountID within 24h
// before tx.Timestamp (inclusive of tx itself) whose amount is within 5% of
// tx.Amount.
func similarValueRepeatCount(accountID string, transactions []Transaction, tx Transaction) int {
	cutoff := tx.Timestamp.Add(-24 * time.Hour)
	count := 0
	for _, t := range transactions {
		if !t.TouchesAccount(accountID) {
			continue
		}
		if t.Timestamp.Before(cutoff) || t.Timestamp.After(tx.Timestamp) {
			continue
		}
		if tx.Amount == 0 {
			continue
		}
		if math.Abs(t.Amount-tx.Amount)/tx.Amount < 0.05 {
			count++
		}
	}
	return count
}

// UpdateEvidence persists eval's summary fields to Store, overwriting
// accountID's previous record.
func (e *EvidenceService) UpdateEvidence(eval Evaluation) error {
	ev := AccountEvidence{
		AccountID:              eval.AccountID,
		Score:                  eval.Score,
		RiskLevel:              eval.RiskLevel,
		SuspiciousTransactions: len(eval.SuspiciousTxs),
		ConfirmedPatterns:      len(eval.Patterns),
		NetworkSignals:         len(eval.Network.Signals),
		IsProbableML:           eval.Network.IsProbableML,
		LastUpdated:            eval.EvaluatedAt,
	}
	if err := e.store.PutEvidence(eval.AccountID, ev); err != nil {
		return wrapStoreFailure("put_evidence", err)
	}
	return nil
}

// accountsFromTransactions returns the distinct set of account ids touched
// by transactions, in first-seen order.
func accountsFromTransactions(transactions []Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range transactions {
		for _, id := range []string{t.Sender, t.Receiver} {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// EvaluateAll evaluates and persists evidence for every account that
// appears in the transaction log.
func (e *EvidenceService) EvaluateAll() ([]Evaluation, error) {
	all, err := e.store.ListTransactions()
	if err != nil {
		return nil, wrapStoreFailure("list_transactions", err)
	}

	var out []Evaluation
	for _, accountID := range accountsFromTransactions(all) {
		eval, err := e.Evaluate(accountID)
		if err != nil {
			return nil, err
		}
		if err := e.UpdateEvidence(eval); err != nil {
			return nil, err
		}
		out = append(out, eval)
	}
	return out, nil
}

// HighRiskAccounts returns persisted evidence for every account classified
// HighRisk or ProbableML, sorted by score descending.
func (e *EvidenceService) HighRiskAccounts() ([]AccountEvidence, error) {
	all, err := e.store.ListEvidence()
	if err != nil {
		return nil, wrapStoreFailure("list_evidence", err)
	}

	var out []AccountEvidence
	for _, ev := range all {
		if ev.RiskLevel == RiskHighRisk || ev.RiskLevel == RiskProbableML {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
