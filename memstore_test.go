package amlengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreAddTransactionPrependsNewestFirst(t *testing.T) {
	store := NewMemStore(nil)
	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-1"}))
	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-2"}))

	txs, err := store.ListTransactions()
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "TX-2", txs[0].ID)
	assert.Equal(t, "TX-1", txs[1].ID)
}

func TestMemStoreUpdateTransactionNotFound(t *testing.T) {
	store := NewMemStore(nil)
	err := store.UpdateTransaction(Transaction{ID: "missing"})
	assert.Error(t, err)
}

func TestMemStoreGetEvidenceAbsentReturnsNilNil(t *testing.T) {
	store := NewMemStore(nil)
	ev, err := store.GetEvidence("nobody")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestMemStoreListTransactionsReturnsDefensiveCopy(t *testing.T) {
	store := NewMemStore(nil)
	require.NoError(t, store.AddTransaction(Transaction{ID: "TX-1", Amount: 10}))

	txs, err := store.ListTransactions()
	require.NoError(t, err)
	txs[0].Amount = 999

	again, err := store.ListTransactions()
	require.NoError(t, err)
	assert.Equal(t, float64(10), again[0].Amount)
}

func TestMemStoreAppendAlertAndUpdateAlert(t *testing.T) {
	store := NewMemStore(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, store.AppendAlert(Alert{ID: "ALERT-1", Status: AlertOpen}))

	err := store.UpdateAlert("ALERT-1", func(a *Alert) { a.Status = AlertClosed })
	require.NoError(t, err)

	alerts, err := store.ListAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertClosed, alerts[0].Status)
}

func TestMemStoreUpdateAlertNotFound(t *testing.T) {
	store := NewMemStore(nil)
	err := store.UpdateAlert("missing", func(a *Alert) {})
	assert.Error(t, err)
}

func TestMemStoreLogAuditAppends(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemStore(func() time.Time { return now })
	require.NoError(t, store.LogAudit("amlengine", "alert_created", "details"))

	log := store.AuditLog()
	require.Len(t, log, 1)
	assert.Equal(t, "amlengine", log[0].Actor)
	assert.Equal(t, now, log[0].Timestamp)
}
