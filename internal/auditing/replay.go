package auditing

import (
	"context"
	"errors"
	"os"

	"auditwatch/internal/constants"
	"auditwatch/internal/logger"
	"auditwatch/internal/recoverability"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/logging"
)

type ReplayResult struct {
	Replayed int
	Failed   int
}

// FailedImportReplayer re-ingests captured audit failures from disk and store.
// A capture is deleted only after its message was ingested.
type FailedImportReplayer struct {
	ingestor *Ingestor
	store    FailedImportStore
	dir      string
	logger   logger.Logger
}

func NewFailedImportReplayer(ingestor *Ingestor, store FailedImportStore, logPath string, log logger.Logger) *FailedImportReplayer {
	return &FailedImportReplayer{
		ingestor: ingestor,
		store:    store,
		dir:      recoverability.FailedImportsDir(logPath, constants.StageAudit),
		logger:   log,
	}
}

type pendingImport struct {
	failure recoverability.FailedImport
	path    string
	inStore bool
}

func (r *FailedImportReplayer) Replay(ctx context.Context) (ReplayResult, error) {
	var result ReplayResult

	pending, order, err := r.collect(ctx)
	if err != nil {
		return result, err
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p := pending[id]
		msgCtx := logging.WithMessageID(ctx, p.failure.Message.MessageID)

		if err := r.ingestor.Ingest(msgCtx, p.failure.Message); err != nil {
			result.Failed++
			r.logger.WarnwCtx(msgCtx, "Failed import could not be replayed", "failed_import_id", id, "error", err)
			continue
		}

		r.remove(msgCtx, p)
		result.Replayed++
	}

	r.logger.InfowCtx(ctx, "Failed import replay finished", "replayed", result.Replayed, "failed", result.Failed)
	return result, nil
}

func (r *FailedImportReplayer) collect(ctx context.Context) (map[string]*pendingImport, []string, error) {
	pending := make(map[string]*pendingImport)
	var order []string

	files, err := recoverability.LoadFailedImports(r.dir)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range files {
		pending[f.Failure.ID] = &pendingImport{failure: f.Failure, path: f.Path}
		order = append(order, f.Failure.ID)
	}

	if r.store == nil {
		return pending, order, nil
	}

	stored, err := r.store.ListFailedImports(ctx, constants.StageAudit)
	if err != nil {
		return nil, nil, err
	}
	for _, failure := range stored {
		if p, ok := pending[failure.ID]; ok {
			p.inStore = true
			continue
		}
		pending[failure.ID] = &pendingImport{failure: failure, inStore: true}
		order = append(order, failure.ID)
	}

	return pending, order, nil
}

func (r *FailedImportReplayer) remove(ctx context.Context, p *pendingImport) {
	if p.path != "" {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.WarnwCtx(ctx, "Failed to remove replayed capture file", "path", p.path, "error", err)
		}
	}
	if p.inStore {
		if err := r.store.DeleteFailedImport(ctx, p.failure.ID); err != nil && !apperrors.IsNotFound(err) {
			r.logger.WarnwCtx(ctx, "Failed to delete replayed capture", "failed_import_id", p.failure.ID, "error", err)
		}
	}
}
