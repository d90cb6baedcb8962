package audit_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	appaudit "github.com/erp/layaway/internal/application/audit"
	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// memoryRepository is an append-only slice; fail makes every Append return an error
type memoryRepository struct {
	mu      sync.Mutex
	entries []*audit.Entry
	fail    bool
}

func (r *memoryRepository) Append(_ context.Context, entries ...*audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return audit.ErrRecordFailed
	}
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memoryRepository) History(_ context.Context, storeID, entityID uuid.UUID, limit, offset int) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.StoreID == storeID && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.After(out[j].PerformedAt) })
	return page(out, limit, offset), nil
}

func (r *memoryRepository) Range(_ context.Context, q audit.Query) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.StoreID != q.StoreID {
			continue
		}
		if q.From != nil && e.PerformedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && !e.PerformedAt.Before(*q.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.Before(out[j].PerformedAt) })
	return page(out, q.Limit, q.Offset), nil
}

func page(entries []*audit.Entry, limit, offset int) []*audit.Entry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

type observedActions struct {
	mu      sync.Mutex
	actions []string
}

func (o *observedActions) RecordAuditDegraded(_ context.Context, action string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.actions = append(o.actions, action)
}

func entryAt(storeID, entityID uuid.UUID, action audit.ActionType, at time.Time) *audit.Entry {
	return audit.NewEntry(audit.Record{
		StoreID:    storeID,
		EntityID:   entityID,
		EntityType: audit.EntityTransaction,
		Action:     action,
		NewValues:  audit.Values{"amount": "10.00"},
		Actor:      uuid.New(),
		At:         at,
	})
}

func TestRecorder_WithinTxLandsEntries(t *testing.T) {
	repo := &memoryRepository{}
	recorder := appaudit.NewRecorder(repo, nil, zap.NewNop())
	e := entryAt(uuid.New(), uuid.New(), audit.ActionCreated, testNow)

	pending := recorder.WithinTx(context.Background(), repo, e)
	assert.Nil(t, pending)
	assert.Nil(t, recorder.AfterCommit(context.Background(), pending))
	assert.Len(t, repo.entries, 1)
}

func TestRecorder_RetriesAfterCommit(t *testing.T) {
	txRepo := &memoryRepository{fail: true}
	repo := &memoryRepository{}
	obs := &observedActions{}
	recorder := appaudit.NewRecorder(repo, obs, zap.NewNop())
	e := entryAt(uuid.New(), uuid.New(), audit.ActionPaymentApplied, testNow)

	pending := recorder.WithinTx(context.Background(), txRepo, e)
	require.Len(t, pending, 1)

	assert.Empty(t, recorder.AfterCommit(context.Background(), pending))
	assert.Len(t, repo.entries, 1)
	assert.Empty(t, obs.actions)
}

func TestRecorder_PersistentFailureWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	failing := &memoryRepository{fail: true}
	obs := &observedActions{}
	recorder := appaudit.NewRecorder(failing, obs, zap.New(core))
	storeID := uuid.New()

	pending := recorder.WithinTx(context.Background(), failing,
		entryAt(storeID, uuid.New(), audit.ActionRefunded, testNow),
		entryAt(storeID, uuid.New(), audit.ActionCreated, testNow),
	)
	warnings := recorder.AfterCommit(context.Background(), pending)

	assert.Equal(t, []string{appaudit.WarningAuditDegraded}, warnings)
	assert.Equal(t, []string{"refunded", "created"}, obs.actions)
	require.Equal(t, 2, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, storeID.String(), fields["store_id"])
	assert.Equal(t, "refunded", fields["action"])
}

func TestRecorder_RecordReturnsFailure(t *testing.T) {
	recorder := appaudit.NewRecorder(&memoryRepository{fail: true}, nil, nil)
	err := recorder.Record(context.Background(), entryAt(uuid.New(), uuid.New(), audit.ActionPrinted, testNow))
	assert.ErrorIs(t, err, audit.ErrRecordFailed)
}

func TestHistoryService_Pages(t *testing.T) {
	repo := &memoryRepository{}
	storeID, entityID := uuid.New(), uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(context.Background(), entryAt(storeID, entityID, audit.ActionNoteUpdated, testNow.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, repo.Append(context.Background(), entryAt(uuid.New(), entityID, audit.ActionCreated, testNow)))

	svc := appaudit.NewHistoryService(repo)
	first, err := svc.ListTransactionHistory(context.Background(), storeID, entityID, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, testNow.Add(4*time.Minute), first[0].PerformedAt)

	again, err := svc.ListTransactionHistory(context.Background(), storeID, entityID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	last, err := svc.ListTransactionHistory(context.Background(), storeID, entityID, 3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, testNow, last[0].PerformedAt)

	_, err = svc.ListTransactionHistory(context.Background(), storeID, uuid.Nil, 1, 10)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

type failingStore struct {
	*storage.MemoryObjectStorage
}

func (failingStore) Upload(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

func TestExportService_WritesJSONLines(t *testing.T) {
	repo := &memoryRepository{}
	store := storage.NewMemoryObjectStorage()
	storeID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(context.Background(),
		entryAt(storeID, uuid.New(), audit.ActionCreated, from.Add(2*time.Hour)),
		entryAt(storeID, uuid.New(), audit.ActionVoided, from.Add(time.Hour)),
		entryAt(storeID, uuid.New(), audit.ActionCreated, to),
		entryAt(uuid.New(), uuid.New(), audit.ActionCreated, from.Add(time.Hour)),
	))

	svc := appaudit.NewExportService(repo, store, zap.NewNop())
	svc.SetClock(shared.NewFakeClock(testNow))

	res, err := svc.ExportAuditTrail(context.Background(), appaudit.ExportRequest{StoreID: storeID, From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, "audit/"+storeID.String()+"/20260301T000000Z_20260302T000000Z.jsonl", res.Key)
	assert.Equal(t, 2, res.Entries)
	assert.False(t, res.Reused)
	assert.NotEmpty(t, res.DownloadURL)

	data, contentType, ok := store.Object(res.Key)
	require.True(t, ok)
	assert.Equal(t, "application/x-ndjson", contentType)

	var actions []audit.ActionType
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var line appaudit.EntryResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		assert.Equal(t, storeID, line.StoreID)
		actions = append(actions, line.Action)
	}
	assert.Equal(t, []audit.ActionType{audit.ActionVoided, audit.ActionCreated}, actions)

	t.Run("closed window is reused", func(t *testing.T) {
		again, err := svc.ExportAuditTrail(context.Background(), appaudit.ExportRequest{StoreID: storeID, From: from, To: to})
		require.NoError(t, err)
		assert.True(t, again.Reused)
		assert.Equal(t, res.Key, again.Key)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := svc.ExportAuditTrail(context.Background(), appaudit.ExportRequest{StoreID: storeID, From: to, To: from})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("upload failure", func(t *testing.T) {
		broken := appaudit.NewExportService(repo, failingStore{storage.NewMemoryObjectStorage()}, nil)
		_, err := broken.ExportAuditTrail(context.Background(), appaudit.ExportRequest{StoreID: storeID, From: from, To: to.Add(time.Hour)})
		assert.ErrorContains(t, err, "bucket unavailable")
	})
}
