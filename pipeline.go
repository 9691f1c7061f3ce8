package amlengine

import (
	"fmt"
	"time"
)

// AccountResult is one account's outcome from a Pipeline.Process call.
type AccountResult struct {
	AccountID      string    `json:"account_id"`
	Score          int       `json:"score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	AlertGenerated bool      `json:"alert_generated"`
}

// ProcessResult is the return value of Pipeline.Process.
type ProcessResult struct {
	TransactionID      string          `json:"transaction_id"`
	PerAccount         []AccountResult `json:"per_account"`
	HighestRiskAccount string          `json:"highest_risk_account"`
}

// FullAnalysisResult is the return value of Pipeline.FullAnalysis.
type FullAnalysisResult struct {
	TotalAccounts  int               `json:"total_accounts"`
	RiskBandCounts map[RiskLevel]int `json:"risk_band_counts"`
	AlertCount     int               `json:"alert_count"`
}

// Pipeline is the composition root orchestrating Baseline, Pattern,
// Network, Evidence, and Alert on each ingested transaction and on batch
// runs. It holds only its collaborators and config; all durable state
// lives in Store.
type Pipeline struct {
	store    Store
	cfg      Config
	evidence *EvidenceService
	alerts   *AlertService
	clock    func() time.Time
}

// New assembles a Pipeline with the given Store and Config, sharing a
// single clock function across Evidence and Alert. Each service reads the
// clock whenever it runs, so with time.Now the steps of one Process call see
// slightly different instants.
func New(store Store, cfg Config) *Pipeline {
	return NewWithClock(store, cfg, time.Now)
}

// NewWithClock is New with an injectable clock, used by tests that need a
// fixed or stepped notion of "now".
func NewWithClock(store Store, cfg Config, clock func() time.Time) *Pipeline {
	if clock == nil {
		clock = time.Now
	}
	evidence := NewEvidenceService(store, cfg, clock)
	alerts := NewAlertService(store, evidence, clock)
	return &Pipeline{store: store, cfg: cfg, evidence: evidence, alerts: alerts, clock: clock}
}

// Process ingests a single transaction: validates it, persists it, then
// re-evaluates and updates evidence for both sender and receiver, creating
// an alert for either account if its score crosses the suspicious
// threshold. An invalid transaction is rejected before Store is touched.
func (p *Pipeline) Process(tx Transaction) (ProcessResult, error) {
	if !tx.Valid() {
		return ProcessResult{}, ErrInvalidTransaction
	}

	if err := p.store.AddTransaction(tx); err != nil {
		return ProcessResult{}, wrapStoreFailure("add_transaction", err)
	}

	var results []AccountResult
	highestScore := -1
	highestAccount := ""

	for _, accountID := range []string{tx.Sender, tx.Receiver} {
		eval, err := p.evidence.Evaluate(accountID)
		if err != nil {
			return ProcessResult{}, err
		}
		if err := p.evidence.UpdateEvidence(eval); err != nil {
			return ProcessResult{}, err
		}

		alertGenerated := false
		if eval.Score >= p.cfg.SuspiciousThreshold {
			alert, err := p.alerts.CreateAndSave(accountID, p.cfg)
			if err != nil {
				return ProcessResult{}, err
			}
			alertGenerated = alert != nil
		}

		results = append(results, AccountResult{
			AccountID:      accountID,
			Score:          eval.Score,
			RiskLevel:      eval.RiskLevel,
			AlertGenerated: alertGenerated,
		})

		if eval.Score > highestScore {
			highestScore = eval.Score
			highestAccount = accountID
		}
	}

	return ProcessResult{
		TransactionID:      tx.ID,
		PerAccount:         results,
		HighestRiskAccount: highestAccount,
	}, nil
}

// FullAnalysis re-evaluates every account that appears in the transaction
// log, persists updated evidence, and creates alerts for any account at or
// above the suspicious threshold.
func (p *Pipeline) FullAnalysis() (FullAnalysisResult, error) {
	evals, err := p.evidence.EvaluateAll()
	if err != nil {
		return FullAnalysisResult{}, err
	}

	bandCounts := map[RiskLevel]int{
		RiskNormal:     0,
		RiskSuspicious: 0,
		RiskHighRisk:   0,
		RiskProbableML: 0,
	}
	alertCount := 0

	for _, eval := range evals {
		bandCounts[eval.RiskLevel]++
		if eval.Score >= p.cfg.SuspiciousThreshold {
			alert, err := p.alerts.CreateAndSave(eval.AccountID, p.cfg)
			if err != nil {
				return FullAnalysisResult{}, err
			}
			if alert != nil {
				alertCount++
			}
		}
	}

	return FullAnalysisResult{
		TotalAccounts:  len(evals),
		RiskBandCounts: bandCounts,
		AlertCount:     alertCount,
	}, nil
}

// NextTransactionID mints an id following this module's documented
// convention: TX-<epoch-ms>. Callers that already have externally supplied
// ids don't need this.
func NextTransactionID(clock func() time.Time) string {
	return fmt.Sprintf("TX-%d", clock().UnixMilli())
}
