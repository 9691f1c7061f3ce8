package amlengine

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreAddAndListTransactions(t *testing.T) {
	dbFile := "test_boltstore_transactions.db"
	defer os.Remove(dbFile)

	store, err := NewBoltStore(dbFile, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-1", Sender: "A", Receiver: "B", Amount: 100}))
	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-2", Sender: "C", Receiver: "D", Amount: 200}))

	txs, err := store.ListTransactions()
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "TX-2", txs[0].ID)
	assert.Equal(t, "TX-1", txs[1].ID)
}

func TestBoltStoreEvidenceRoundTrip(t *testing.T) {
	dbFile := "test_boltstore_evidence.db"
	defer os.Remove(dbFile)

	store, err := NewBoltStore(dbFile, nil)
	require.NoError(t, err)
	defer store.Close()

	ev, err := store.GetEvidence("nobody")
	require.NoError(t, err)
	assert.Nil(t, ev)

	require.NoError(t, store.PutEvidence("A", AccountEvidence{AccountID: "A", Score: 50, RiskLevel: RiskSuspicious}))
	got, err := store.GetEvidence("A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 50, got.Score)
}

func TestBoltStoreAlertsAppendAndUpdate(t *testing.T) {
	dbFile := "test_boltstore_alerts.db"
	defer os.Remove(dbFile)

	store, err := NewBoltStore(dbFile, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.AppendAlert(Alert{ID: "ALERT-1", AccountID: "A", Status: AlertOpen}))
	require.NoError(t, store.UpdateAlert("ALERT-1", func(a *Alert) { a.Status = AlertSARFiled }))

	alerts, err := store.ListAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertSARFiled, alerts[0].Status)
}

func TestBoltStoreLogAudit(t *testing.T) {
	dbFile := "test_boltstore_audit.db"
	defer os.Remove(dbFile)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store, err := NewBoltStore(dbFile, func() time.Time { return now })
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.LogAudit("amlengine", "alert_created", "test details"))
}

func TestBoltStoreSatisfiesStoreInterface(t *testing.T) {
	dbFile := "test_boltstore_interface.db"
	defer os.Remove(dbFile)

	store, err := NewBoltStore(dbFile, nil)
	require.NoError(t, err)
	defer store.Close()

	var s Store = store
	require.NoError(t, s.LogAudit("amlengine", "check", "interface satisfied"))
}
