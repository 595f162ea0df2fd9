package dispense

import (
	"fmt"
	"strings"
)

// LineError describes why one basket line failed validation.
type LineError struct {
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}

// ValidationError aggregates every failing line of a basket. Validation
// happens before any mutation; a basket that fails leaves no side effects.
type ValidationError struct {
	Lines []LineError `json:"lines"`
}

func (e *ValidationError) Error() string {
	if len(e.Lines) == 0 {
		return "invalid dispense request"
	}
	reasons := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		reasons[i] = fmt.Sprintf("product %d: %s", l.ProductID, l.Reason)
	}
	return "dispense rejected: " + strings.Join(reasons, "; ")
}

func (e *ValidationError) add(productID int64, reason string) {
	e.Lines = append(e.Lines, LineError{ProductID: productID, Reason: reason})
}

func (e *ValidationError) failed() bool { return len(e.Lines) > 0 }
