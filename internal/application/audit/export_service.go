package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore is where audit exports are written
type ObjectStore interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

const (
	exportContentType = "application/x-ndjson"
	exportBatchSize   = 500
	exportKeyLayout   = "20060102T150405Z"
)

// ExportRequest selects the entries of a store in [From, To)
type ExportRequest struct {
	StoreID uuid.UUID
	From    time.Time
	To      time.Time
}

// ExportResult locates a written export
type ExportResult struct {
	Key          string    `json:"key"`
	Entries      int       `json:"entries"`
	DownloadURL  string    `json:"download_url"`
	URLExpiresAt time.Time `json:"url_expires_at"`
	// Reused is set when a closed window had already been exported
	Reused bool `json:"reused"`
}

// ExportService writes a store's audit trail to object storage as JSON lines
type ExportService struct {
	repo      audit.Repository
	store     ObjectStore
	clock     shared.Clock
	linkTTL   time.Duration
	batchSize int
	logger    *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(repo audit.Repository, store ObjectStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:      repo,
		store:     store,
		clock:     shared.SystemClock{},
		linkTTL:   15 * time.Minute,
		batchSize: exportBatchSize,
		logger:    logger,
	}
}

// SetClock overrides the time source
func (s *ExportService) SetClock(clock shared.Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// SetLinkTTL sets how long download links stay valid
func (s *ExportService) SetLinkTTL(ttl time.Duration) {
	if ttl > 0 {
		s.linkTTL = ttl
	}
}

// ExportKey returns the object key of an export window
func ExportKey(storeID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("audit/%s/%s_%s.jsonl", storeID, from.UTC().Format(exportKeyLayout), to.UTC().Format(exportKeyLayout))
}

// ExportAuditTrail writes every entry of the window, oldest first, one JSON object
// per line. A window that closed before an earlier export of it is not rewritten.
func (s *ExportService) ExportAuditTrail(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if req.StoreID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithDetail("store_id", "required")
	}
	if !req.From.Before(req.To) {
		return nil, shared.ErrInvalidInput.WithDetail("range", "from must be before to")
	}

	key := ExportKey(req.StoreID, req.From, req.To)
	if req.To.Before(s.clock.Now()) {
		exists, err := s.store.ObjectExists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check export %s: %w", key, err)
		}
		if exists {
			return s.result(ctx, key, 0, true)
		}
	}

	var (
		buf   bytes.Buffer
		count int
	)
	enc := json.NewEncoder(&buf)
	from, to := req.From, req.To
	for offset := 0; ; offset += s.batchSize {
		entries, err := s.repo.Range(ctx, audit.Query{
			StoreID: req.StoreID,
			From:    &from,
			To:      &to,
			Limit:   s.batchSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if err := enc.Encode(ToEntryResponse(e)); err != nil {
				return nil, fmt.Errorf("encode audit entry %s: %w", e.ID, err)
			}
		}
		count += len(entries)
		if len(entries) < s.batchSize {
			break
		}
	}

	if err := s.store.Upload(ctx, key, buf.Bytes(), exportContentType); err != nil {
		return nil, fmt.Errorf("upload export %s: %w", key, err)
	}
	logger.WithTraceContext(ctx, s.logger).Info("audit trail exported",
		zap.String("store_id", req.StoreID.String()),
		zap.String("key", key),
		zap.Int("entries", count),
	)
	return s.result(ctx, key, count, false)
}

func (s *ExportService) result(ctx context.Context, key string, count int, reused bool) (*ExportResult, error) {
	url, expiresAt, err := s.store.GenerateDownloadURL(ctx, key, s.linkTTL)
	if err != nil {
		return nil, fmt.Errorf("sign export %s: %w", key, err)
	}
	return &ExportResult{
		Key:          key,
		Entries:      count,
		DownloadURL:  url,
		URLExpiresAt: expiresAt,
		Reused:       reused,
	}, nil
}
