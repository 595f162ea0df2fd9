// Package pg classifies postgres driver errors into the error kinds the
// transaction coordinators care about.
package pg

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrContention marks a lock-wait timeout or deadlock abort. The caller may
// retry; no mutation was committed.
var ErrContention = errors.New("inventory row contention")

// Postgres error codes treated as retryable contention.
const (
	codeDeadlockDetected  = "40P01"
	codeLockNotAvailable  = "55P03"
	codeSerializationFail = "40001"
)

// Classify wraps retryable lock failures with ErrContention and returns
// every other error unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeDeadlockDetected, codeLockNotAvailable, codeSerializationFail:
			return fmt.Errorf("%w: %v", ErrContention, err)
		}
	}
	return err
}
