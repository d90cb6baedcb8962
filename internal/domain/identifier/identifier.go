// Package identifier builds human-readable, store-unique document numbers of the
// form PREFIX-YYYYMMDD-NNNN.
package identifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	// DateLayout is the date segment layout of an identifier
	DateLayout = "20060102"
	// DefaultMaxAttempts bounds regeneration after storage-level collisions
	DefaultMaxAttempts = 20
	// SequenceWidth is the minimum zero-padded width of the sequence segment
	SequenceWidth = 4
)

// ErrCollision is returned by repositories when an insert lost a race for an identifier,
// and by Assign once every attempt has collided.
var ErrCollision = shared.NewDomainError("IDENTIFIER_COLLISION", "Could not allocate a unique identifier")

// Namespace scopes a sequence: identifiers in different namespaces never share a counter
type Namespace struct {
	Name   string
	Prefix string
}

// Standard namespaces. Prefixes can be overridden from configuration.
var (
	OrderNamespace       = Namespace{Name: "layaway_order", Prefix: "LAY"}
	TransactionNamespace = Namespace{Name: "ledger_transaction", Prefix: "TXN"}
	RefundNamespace      = Namespace{Name: "ledger_refund", Prefix: "RFD"}
)

// Validate checks the namespace is usable
func (n Namespace) Validate() error {
	if n.Name == "" || n.Prefix == "" {
		return shared.NewDomainError("INVALID_NAMESPACE", "Identifier namespace requires a name and a prefix")
	}
	if strings.Contains(n.Prefix, "-") {
		return shared.NewDomainError("INVALID_NAMESPACE", "Identifier prefix must not contain '-'")
	}
	return nil
}

// DayPrefix returns the PREFIX-YYYYMMDD- segment shared by all identifiers of a day
func (n Namespace) DayPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", n.Prefix, day.Format(DateLayout))
}

// Format renders a candidate identifier
func (n Namespace) Format(day time.Time, seq int) string {
	return fmt.Sprintf("%s%0*d", n.DayPrefix(day), SequenceWidth, seq)
}

// Generator proposes the next free identifier by probing persisted records.
// It reserves nothing: the owning insert is the authority on uniqueness.
type Generator interface {
	Generate(ctx context.Context, storeID uuid.UUID, ns Namespace) (string, error)
}

// Assign generates a candidate and hands it to insert, regenerating when insert reports
// ErrCollision. Any other error is returned as is. After maxAttempts collisions it fails
// with ErrCollision carrying the attempt count.
func Assign(
	ctx context.Context,
	gen Generator,
	storeID uuid.UUID,
	ns Namespace,
	maxAttempts int,
	insert func(identifier string) error,
) (string, int, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", attempt - 1, err
		}

		candidate, err := gen.Generate(ctx, storeID, ns)
		if err != nil {
			return "", attempt - 1, fmt.Errorf("generate %s identifier: %w", ns.Name, err)
		}

		err = insert(candidate)
		if err == nil {
			return candidate, attempt - 1, nil
		}
		if !errors.Is(err, ErrCollision) {
			return "", attempt - 1, err
		}
		if attempt < maxAttempts {
			if err := pause(ctx, attempt); err != nil {
				return "", attempt, err
			}
		}
	}

	return "", maxAttempts, ErrCollision.
		WithDetail("namespace", ns.Name).
		WithDetail("attempts", maxAttempts)
}

// maxBackoff caps the pause between attempts
const maxBackoff = 40 * time.Millisecond

// pause waits a jittered, attempt-scaled delay so callers that lost the same race
// do not regenerate in lockstep.
func pause(ctx context.Context, attempt int) error {
	ceiling := time.Duration(attempt) * 2 * time.Millisecond
	if ceiling > maxBackoff {
		ceiling = maxBackoff
	}
	timer := time.NewTimer(rand.N(ceiling) + time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
