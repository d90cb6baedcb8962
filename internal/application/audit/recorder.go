// Package audit records and serves the append-only audit trail.
package audit

import (
	"context"

	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// WarningAuditDegraded is returned to callers whose mutation committed without
// its audit entries
const WarningAuditDegraded = "AUDIT_DEGRADED"

// DegradationObserver is told about every audit entry that could not be recorded
type DegradationObserver interface {
	RecordAuditDegraded(ctx context.Context, action string)
}

// Recorder writes audit entries alongside financial mutations. Entries are first
// written inside the mutation's transaction; when that fails the mutation still
// commits, the entries are retried once on their own, and a persistent failure is
// logged and surfaced as a warning instead of rolling back money movements.
type Recorder struct {
	repo     audit.Repository
	observer DegradationObserver
	logger   *zap.Logger
}

// NewRecorder creates a Recorder. repo is used for the retry after commit and must
// not be bound to a transaction.
func NewRecorder(repo audit.Repository, observer DegradationObserver, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, observer: observer, logger: logger}
}

// WithinTx appends entries through the transaction-bound repository. It returns the
// entries that still need to be written, or nil when they landed.
func (r *Recorder) WithinTx(ctx context.Context, txRepo audit.Repository, entries ...*audit.Entry) []*audit.Entry {
	if len(entries) == 0 {
		return nil
	}
	if err := txRepo.Append(ctx, entries...); err != nil {
		r.log(ctx).Debug("audit write inside transaction failed, retrying after commit",
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
		return entries
	}
	return nil
}

// AfterCommit retries pending entries and reports degradation. It returns the
// warnings to hand back to the caller.
func (r *Recorder) AfterCommit(ctx context.Context, pending []*audit.Entry) []string {
	if len(pending) == 0 {
		return nil
	}
	err := r.repo.Append(context.WithoutCancel(ctx), pending...)
	if err == nil {
		return nil
	}
	for _, e := range pending {
		r.log(ctx).Warn("audit entry not recorded",
			zap.String("store_id", e.StoreID.String()),
			zap.String("entity_id", e.EntityID.String()),
			zap.String("entity_type", string(e.EntityType)),
			zap.String("action", string(e.Action)),
			zap.String("performed_by", e.PerformedBy.String()),
			zap.Error(err),
		)
		if r.observer != nil {
			r.observer.RecordAuditDegraded(ctx, string(e.Action))
		}
	}
	return []string{WarningAuditDegraded}
}

// Record appends entries outside any financial mutation, such as printed markers.
// A failure is returned to the caller.
func (r *Recorder) Record(ctx context.Context, entries ...*audit.Entry) error {
	return r.repo.Append(ctx, entries...)
}

func (r *Recorder) log(ctx context.Context) *zap.Logger {
	l := logger.WithTraceContext(ctx, r.logger)
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	return l
}
