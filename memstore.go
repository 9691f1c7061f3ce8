package amlengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one record appended by LogAudit. ID is a random opaque
// identifier, distinct from the time-based conventions transaction and
// alert ids follow.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// MemStore is an in-memory Store, suitable for tests and for embedding in a
// process that doesn't need durability. All operations are serialized
// through a single RWMutex, so writes never interleave within one Store.
type MemStore struct {
	mu           sync.RWMutex
	transactions []Transaction // newest-first
	evidence     map[string]AccountEvidence
	alerts       []Alert // newest-first
	audit        []AuditEntry
	now          func() time.Time
}

// NewMemStore creates an empty in-memory Store. clock defaults to
// time.Now when nil.
func NewMemStore(clock func() time.Time) *MemStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemStore{
		evidence: make(map[string]AccountEvidence),
		now:      clock,
	}
}

func (m *MemStore) AddTransaction(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append([]Transaction{tx}, m.transactions...)
	return nil
}

func (m *MemStore) UpdateTransaction(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == tx.ID {
			m.transactions[i] = tx
			return nil
		}
	}
	return fmt.Errorf("amlengine: transaction %s not found", tx.ID)
}

func (m *MemStore) ListTransactions() ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out, nil
}

func (m *MemStore) GetEvidence(accountID string) (*AccountEvidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.evidence[accountID]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (m *MemStore) PutEvidence(accountID string, ev AccountEvidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence[accountID] = ev
	return nil
}

func (m *MemStore) ListEvidence() ([]AccountEvidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AccountEvidence, 0, len(m.evidence))
	for _, ev := range m.evidence {
		out = append(out, ev)
	}
	return out, nil
}

func (m *MemStore) ListAlerts() ([]Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out, nil
}

func (m *MemStore) AppendAlert(a Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append([]Alert{a}, m.alerts...)
	return nil
}

func (m *MemStore) UpdateAlert(id string, patch func(*Alert)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			patch(&m.alerts[i])
			return nil
		}
	}
	return fmt.Errorf("amlengine: alert %s not found", id)
}

func (m *MemStore) LogAudit(actor, action, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: m.now(),
		Actor:     actor,
		Action:    action,
		Details:   details,
	})
	return nil
}

// AuditLog returns a copy of the audit trail, oldest-first. Not part of the
// Store interface — a test/debug accessor specific to MemStore.
func (m *MemStore) AuditLog() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

var _ Store = (*MemStore)(nil)
