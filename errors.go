package amlengine

import "errors"

// InvalidTransaction and StoreFailure are the only two error kinds that
// ever surface to a caller. A no-op evaluation and a suppressed duplicate
// alert are not errors at all, so they're expressed as nil returns rather
// than sentinel values.
var (
	// ErrInvalidTransaction is returned by Pipeline.Process when a
	// transaction fails the structural invariants (amount <= 0,
	// sender == receiver, or zero timestamp). Store is left untouched.
	ErrInvalidTransaction = errors.New("amlengine: invalid transaction")
)

// wrapStoreFailure tags an underlying Store error as a StoreFailure,
// preserving the original error for errors.Is/errors.As.
func wrapStoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreFailureError{Op: op, Err: err}
}

// StoreFailureError wraps a failure from the Store collaborator. It is
// always propagated to the caller. Writes that the same call made before
// the failure (the transaction itself, an earlier account's evidence or
// alert) are not rolled back.
type StoreFailureError struct {
	Op  string
	Err error
}

func (e *StoreFailureError) Error() string {
	return "amlengine: store failure during " + e.Op + ": " + e.Err.Error()
}

func (e *StoreFailureError) Unwrap() error {
	return e.Err
}
