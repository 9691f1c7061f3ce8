package amlengine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AlertService constructs, deduplicates, and persists Alerts from
// Evaluations.
type AlertService struct {
	store    Store
	evidence *EvidenceService
	clock    func() time.Time
}

// NewAlertService constructs an AlertService. clock defaults to time.Now
// when nil.
func NewAlertService(store Store, evidence *EvidenceService, clock func() time.Time) *AlertService {
	if clock == nil {
		clock = time.Now
	}
	return &AlertService{store: store, evidence: evidence, clock: clock}
}

// Generate builds an Alert from eval, or returns nil if eval.Score is below
// the suspicious threshold. It does not persist anything or check for
// duplicates — see CreateAndSave for that.
func (a *AlertService) Generate(eval Evaluation, cfg Config) *Alert {
	if eval.Score < cfg.SuspiciousThreshold {
		return nil
	}

	severity := SeverityForRiskLevel(eval.RiskLevel)
	now := a.clock()

	alert := &Alert{
		ID:                   fmt.Sprintf("ALERT-%d", now.UnixMilli()),
		AccountID:            eval.AccountID,
		Severity:             severity,
		RiskLevel:            eval.RiskLevel,
		Score:                eval.Score,
		Timestamp:            now,
		Status:               AlertOpen,
		Summary:              buildSummary(eval),
		BehaviorSummary:      buildBehaviorSummary(eval),
		DetectedPatterns:     eval.Patterns,
		Timeline:             buildTimeline(eval, now),
		NetworkRelationships: eval.Network.Signals,
		EvidenceBreakdown: EvidenceCounts{
			SuspiciousTransactions: len(eval.SuspiciousTxs),
			ConfirmedPatterns:      len(eval.Patterns),
			NetworkSignals:         len(eval.Network.Signals),
		},
		Recommendations: recommendationsForRiskLevel(eval.RiskLevel),
	}
	return alert
}

func buildSummary(eval Evaluation) string {
	var patternTypes []string
	for _, p := range eval.Patterns {
		patternTypes = append(patternTypes, p.Type)
	}
	facts := []string{
		fmt.Sprintf("%d suspicious transactions", len(eval.SuspiciousTxs)),
		fmt.Sprintf("%d pattern(s): %s", len(eval.Patterns), strings.Join(patternTypes, ", ")),
		fmt.Sprintf("%d network signal(s)", len(eval.Network.Signals)),
	}
	return fmt.Sprintf("%s: %s", eval.AccountID, strings.Join(facts, ", "))
}

func buildBehaviorSummary(eval Evaluation) string {
	b := eval.Baseline
	return fmt.Sprintf(
		"account age %d days, %d total transactions, avg daily inflow %.2f, avg daily outflow %.2f, score %d (%s)",
		b.AccountAgeDays, b.TotalTransactions, b.AvgDailyInflow, b.AvgDailyOutflow, eval.Score, eval.RiskLevel,
	)
}

func buildTimeline(eval Evaluation, now time.Time) []TimelineEvent {
	var events []TimelineEvent
	for _, s := range eval.SuspiciousTxs {
		events = append(events, TimelineEvent{
			Timestamp:   s.Transaction.Timestamp,
			Kind:        "suspicious_tx",
			Description: s.Description,
		})
	}
	for _, p := range eval.Patterns {
		events = append(events, TimelineEvent{
			Timestamp:   now,
			Kind:        "pattern_detected",
			Description: p.Description,
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	return events
}

func recommendationsForRiskLevel(r RiskLevel) []string {
	switch r {
	case RiskProbableML:
		return []string{"file SAR", "escalate", "consider freeze"}
	case RiskHighRisk:
		return []string{"enhanced due diligence", "compliance review", "close monitoring"}
	default:
		return []string{"continue monitoring", "document", "escalate on further evidence"}
	}
}

// CreateAndSave evaluates accountID, generates an alert if warranted, and
// persists it unless a newer alert already exists for the account within
// the dedup window, in which case it returns (nil, nil) as a non-error
// suppressed-duplicate outcome.
func (a *AlertService) CreateAndSave(accountID string, cfg Config) (*Alert, error) {
	eval, err := a.evidence.Evaluate(accountID)
	if err != nil {
		return nil, err
	}

	alert := a.Generate(eval, cfg)
	if alert == nil {
		return nil, nil
	}

	existing, err := a.store.ListAlerts()
	if err != nil {
		return nil, wrapStoreFailure("list_alerts", err)
	}
	cutoff := alert.Timestamp.Add(-cfg.DedupWindow)
	if len(alertsWithinWindow(existing, accountID, cutoff)) > 0 {
		return nil, nil
	}

	if err := a.store.AppendAlert(*alert); err != nil {
		return nil, wrapStoreFailure("append_alert", err)
	}
	if err := a.store.LogAudit("amlengine", "alert_created",
		fmt.Sprintf("%s alert for account %s: %s", strings.ToUpper(string(alert.Severity)), accountID, alert.Summary)); err != nil {
		return nil, wrapStoreFailure("log_audit", err)
	}

	return alert, nil
}
