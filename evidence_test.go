package amlengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateScoreMatchesRiskBand(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	store := NewMemStore(func() time.Time { return now })
	cfg := DefaultConfig()
	svc := NewEvidenceService(store, cfg, func() time.Time { return now })

	base := now.Add(-10 * 24 * time.Hour)
	for i, s := range []string{"S1", "S2", "S3", "S4", "S5", "S6"} {
		require.NoError(t, store.AddTransaction(Transaction{
			ID: "TX-" + s, Sender: s, Receiver: "R", Amount: 5000,
			Timestamp: base.Add(time.Duration(i) * 4 * time.Hour),
		}))
	}

	eval, err := svc.Evaluate("R")
	require.NoError(t, err)
	assert.Equal(t, BandForScore(eval.Score, cfg), eval.RiskLevel)
	assert.GreaterOrEqual(t, eval.Score, 20)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	now := time.Now()
	store := NewMemStore(func() time.Time { return now })
	cfg := DefaultConfig()
	svc := NewEvidenceService(store, cfg, func() time.Time { return now })

	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: now}))

	first, err := svc.Evaluate("A")
	require.NoError(t, err)
	second, err := svc.Evaluate("A")
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.RiskLevel, second.RiskLevel)
	assert.Equal(t, len(first.SuspiciousTxs), len(second.SuspiciousTxs))
}

func TestUpdateEvidencePersists(t *testing.T) {
	now := time.Now()
	store := NewMemStore(func() time.Time { return now })
	cfg := DefaultConfig()
	svc := NewEvidenceService(store, cfg, func() time.Time { return now })

	eval := Evaluation{AccountID: "A", Score: 45, RiskLevel: RiskSuspicious, EvaluatedAt: now}
	require.NoError(t, svc.UpdateEvidence(eval))

	ev, err := store.GetEvidence("A")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 45, ev.Score)
	assert.Equal(t, RiskSuspicious, ev.RiskLevel)
}

func TestHighRiskAccountsSortedDescending(t *testing.T) {
	store := NewMemStore(nil)
	require.NoError(t, store.PutEvidence("A", AccountEvidence{AccountID: "A", Score: 65, RiskLevel: RiskHighRisk}))
	require.NoError(t, store.PutEvidence("B", AccountEvidence{AccountID: "B", Score: 90, RiskLevel: RiskProbableML}))
	require.NoError(t, store.PutEvidence("C", AccountEvidence{AccountID: "C", Score: 10, RiskLevel: RiskNormal}))

	svc := NewEvidenceService(store, DefaultConfig(), nil)
	highRisk, err := svc.HighRiskAccounts()
	require.NoError(t, err)
	require.Len(t, highRisk, 2)
	assert.Equal(t, "B", highRisk[0].AccountID)
	assert.Equal(t, "A", highRisk[1].AccountID)
}

func TestEvaluateAllCoversEveryAccount(t *testing.T) {
	now := time.Now()
	store := NewMemStore(func() time.Time { return now })
	cfg := DefaultConfig()
	svc := NewEvidenceService(store, cfg, func() time.Time { return now })

	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: now}))
	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-2", Sender: "C", Receiver: "D", Amount: 50, Timestamp: now}))

	evals, err := svc.EvaluateAll()
	require.NoError(t, err)
	accounts := make(map[string]bool)
	for _, e := range evals {
		accounts[e.AccountID] = true
	}
	for _, id := range []string{"A", "B", "C", "D"} {
		assert.True(t, accounts[id], "expected evaluation for %s", id)
	}
}
