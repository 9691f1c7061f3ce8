package amlengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReturnsNilBelowThreshold(t *testing.T) {
	store := NewMemStore(nil)
	svc := NewAlertService(store, NewEvidenceService(store, DefaultConfig(), nil), nil)
	eval := Evaluation{AccountID: "A", Score: 10, RiskLevel: RiskNormal}
	assert.Nil(t, svc.Generate(eval, DefaultConfig()))
}

func TestGenerateSeverityMapping(t *testing.T) {
	store := NewMemStore(nil)
	svc := NewAlertService(store, NewEvidenceService(store, DefaultConfig(), nil), nil)
	cfg := DefaultConfig()

	alert := svc.Generate(Evaluation{AccountID: "A", Score: 90, RiskLevel: RiskProbableML}, cfg)
	require.NotNil(t, alert)
	assert.Equal(t, SeverityCritical, alert.Severity)
	assert.Contains(t, alert.Recommendations, "file SAR")
}

func TestCreateAndSaveDeduplicatesWithinWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemStore(func() time.Time { return now })
	cfg := DefaultConfig()
	evidence := NewEvidenceService(store, cfg, func() time.Time { return now })
	alerts := NewAlertService(store, evidence, func() time.Time { return now })

	require.NoError(t, store.AddTransaction(Transaction{
		ID: "TX-1", Sender: "X", Receiver: "A", Amount: 100000, Timestamp: now,
	}))
	// A -> B -> C -> A is a circular_flow signal for A (+30), which puts A in
	// the Suspicious band.
	for _, tx := range []Transaction{
		{ID: "TX-2", Sender: "A", Receiver: "B", Amount: 1000, Timestamp: now},
		{ID: "TX-3", Sender: "B", Receiver: "C", Amount: 1000, Timestamp: now},
		{ID: "TX-4", Sender: "C", Receiver: "A", Amount: 1000, Timestamp: now},
	} {
		require.NoError(t, store.AddTransaction(tx))
	}

	first, err := alerts.CreateAndSave("A", cfg)
	require.NoError(t, err)

	second, err := alerts.CreateAndSave("A", cfg)
	require.NoError(t, err)

	require.NotNil(t, first)
	assert.Nil(t, second, "second call within the dedup window must be suppressed")

	all, err := store.ListAlerts()
	require.NoError(t, err)
	count := 0
	for _, a := range all {
		if a.AccountID == "A" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCreateAndSaveLogsAudit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemStore(func() time.Time { return now })
	cfg := DefaultConfig()
	evidence := NewEvidenceService(store, cfg, func() time.Time { return now })
	alerts := NewAlertService(store, evidence, func() time.Time { return now })

	require.NoError(t, store.AddTransaction(Transaction{
		ID: "TX-1", Sender: "X", Receiver: "A", Amount: 100000, Timestamp: now,
	}))
	// A -> B -> C -> A is a circular_flow signal for A (+30), which puts A in
	// the Suspicious band.
	for _, tx := range []Transaction{
		{ID: "TX-2", Sender: "A", Receiver: "B", Amount: 1000, Timestamp: now},
		{ID: "TX-3", Sender: "B", Receiver: "C", Amount: 1000, Timestamp: now},
		{ID: "TX-4", Sender: "C", Receiver: "A", Amount: 1000, Timestamp: now},
	} {
		require.NoError(t, store.AddTransaction(tx))
	}

	alert, err := alerts.CreateAndSave("A", cfg)
	require.NoError(t, err)
	require.NotNil(t, alert)
	log := store.AuditLog()
	require.NotEmpty(t, log)
	assert.Contains(t, log[len(log)-1].Details, "A")
}
