package amlengine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// Storage buckets. One bucket per collection.
var (
	bucketTransactions = []byte("transactions")
	bucketEvidence     = []byte("account_evidence")
	bucketAlerts       = []byte("alerts")
	bucketAudit        = []byte("audit_logs")
	// bucketSeq holds one monotonic sequence counter, shared by all
	// collections, used to build ordered keys for transactions/alerts/audit
	// entries (see seqKey).
	bucketSeq = []byte("seq")
)

// BoltStore is the production Store implementation, backed by a single
// bbolt database file. Values are JSON-encoded rather than protobuf; see
// DESIGN.md for why.
//
// bbolt itself allows only one writer transaction at a time process-wide,
// which already gives it the single-writer guarantee every Store
// implementation must provide — no additional locking is needed here.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltStore opens (creating if necessary) a bbolt database at path and
// initializes its buckets.
func NewBoltStore(path string, clock func() time.Time) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("amlengine: failed to open database: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	store := &BoltStore{db: db, now: clock}
	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("amlengine: failed to initialize buckets: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketTransactions, bucketEvidence, bucketAlerts, bucketAudit, bucketSeq} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
}

// seqKey returns a lexicographically ordered key for an append-only bucket
// by combining a monotonic sequence number with id, so that newest-first
// iteration (via a reverse cursor) preserves insertion order even when two
// entries share a timestamp.
func seqKey(seq uint64, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", seq, id))
}

func nextSeq(tx *bbolt.Tx) (uint64, error) {
	return tx.Bucket(bucketSeq).NextSequence()
}

func (s *BoltStore) AddTransaction(t Transaction) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		seq, err := nextSeq(tx)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq, t.ID), data)
	})
}

func (s *BoltStore) UpdateTransaction(t Transaction) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var existing Transaction
			if err := json.Unmarshal(v, &existing); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if existing.ID == t.ID {
				data, err := json.Marshal(t)
				if err != nil {
					return fmt.Errorf("failed to marshal transaction: %w", err)
				}
				return b.Put(k, data)
			}
		}
		return fmt.Errorf("amlengine: transaction %s not found", t.ID)
	})
}

func (s *BoltStore) ListTransactions() ([]Transaction, error) {
	var out []Transaction
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) GetEvidence(accountID string) (*AccountEvidence, error) {
	var ev *AccountEvidence
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvidence)
		data := b.Get([]byte(accountID))
		if data == nil {
			return nil
		}
		var e AccountEvidence
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to unmarshal evidence: %w", err)
		}
		ev = &e
		return nil
	})
	return ev, err
}

func (s *BoltStore) PutEvidence(accountID string, ev AccountEvidence) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvidence)
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal evidence: %w", err)
		}
		return b.Put([]byte(accountID), data)
	})
}

func (s *BoltStore) ListEvidence() ([]AccountEvidence, error) {
	var out []AccountEvidence
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvidence)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e AccountEvidence
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal evidence: %w", err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) ListAlerts() ([]Alert, error) {
	var out []Alert
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAlerts)
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var a Alert
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("failed to unmarshal alert: %w", err)
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) AppendAlert(a Alert) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAlerts)
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}
		seq, err := nextSeq(tx)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq, a.ID), data)
	})
}

func (s *BoltStore) UpdateAlert(id string, patch func(*Alert)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAlerts)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var a Alert
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("failed to unmarshal alert: %w", err)
			}
			if a.ID == id {
				patch(&a)
				data, err := json.Marshal(a)
				if err != nil {
					return fmt.Errorf("failed to marshal alert: %w", err)
				}
				return b.Put(k, data)
			}
		}
		return fmt.Errorf("amlengine: alert %s not found", id)
	})
}

func (s *BoltStore) LogAudit(actor, action, details string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAudit)
		entry := AuditEntry{ID: uuid.NewString(), Timestamp: s.now(), Actor: actor, Action: action, Details: details}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal audit entry: %w", err)
		}
		seq, err := nextSeq(tx)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq, ""), data)
	})
}

var _ Store = (*BoltStore)(nil)
