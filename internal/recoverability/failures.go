package recoverability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"auditwatch/internal/constants"
	"auditwatch/internal/logger"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
	"auditwatch/pkg/tracing"
)

type FailedImport struct {
	ID      string                  `json:"id" bson:"_id"`
	Stage   string                  `json:"stage" bson:"stage"`
	Message models.TransportMessage `json:"message" bson:"message"`
	Failure FailureDetails          `json:"failure" bson:"failure"`
}

type FailureDetails struct {
	Reason            string    `json:"reason" bson:"reason"`
	ErrorType         string    `json:"error_type" bson:"error_type"`
	ImmediateAttempts int       `json:"immediate_attempts" bson:"immediate_attempts"`
	DelayedAttempts   int       `json:"delayed_attempts" bson:"delayed_attempts"`
	FailedAt          time.Time `json:"failed_at" bson:"failed_at"`
}

type FailureStore interface {
	StoreFailedImport(ctx context.Context, failure FailedImport) error
}

// ImportFailuresHandler persists messages that could not be imported. The file
// is the durable floor; the store copy is best effort.
type ImportFailuresHandler struct {
	dir    string
	stage  string
	store  FailureStore
	logger logger.Logger
	now    func() time.Time
}

func NewImportFailuresHandler(logPath, stage string, store FailureStore, log logger.Logger) *ImportFailuresHandler {
	return &ImportFailuresHandler{
		dir:    FailedImportsDir(logPath, stage),
		stage:  stage,
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

func FailedImportsDir(logPath, stage string) string {
	return filepath.Join(logPath, constants.FailedImportsDir, stage)
}

func (h *ImportFailuresHandler) Handle(ctx context.Context, ec ErrorContext) (err error) {
	ctx, span := tracing.StartSpan(ctx, "failed_import.capture", h.stage,
		attribute.String("messaging.message.id", ec.Message.MessageID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	failure := FailedImport{
		ID:      uuid.New().String(),
		Stage:   h.stage,
		Message: ec.Message,
		Failure: FailureDetails{
			Reason:            errorReason(ec.Err),
			ErrorType:         errorType(ec.Err),
			ImmediateAttempts: ec.ImmediateProcessingFailures,
			DelayedAttempts:   ec.DelayedDeliveriesPerformed,
			FailedAt:          h.now().UTC(),
		},
	}

	path, err := writeFailureFile(h.dir, failure)
	if err != nil {
		metrics.IncFailedImport(h.stage, "file", "error")
		return apperrors.ErrCapture.WithCause(err).WithDetail("stage", h.stage)
	}
	metrics.IncFailedImport(h.stage, "file", "ok")

	if h.store == nil {
		return nil
	}

	if err := h.store.StoreFailedImport(ctx, failure); err != nil {
		metrics.IncFailedImport(h.stage, "store", "error")
		h.logger.ErrorwCtx(ctx, "Failed to store failed import, file copy kept",
			"failed_import_id", failure.ID,
			"path", path,
			"error", err,
		)
		return nil
	}
	metrics.IncFailedImport(h.stage, "store", "ok")

	h.logger.InfowCtx(ctx, "Captured failed import",
		"failed_import_id", failure.ID,
		"path", path,
	)
	return nil
}

func writeFailureFile(dir string, failure FailedImport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create failed imports dir: %w", err)
	}

	data, err := json.MarshalIndent(failure, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal failed import: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".capture-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(dir, failure.ID+".json")
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename failed import file: %w", err)
	}
	return path, nil
}

// CapturedFile is a failed import loaded back from disk.
type CapturedFile struct {
	Path    string
	Failure FailedImport
}

// LoadFailedImports reads every capture in dir, oldest first. A missing dir is empty.
func LoadFailedImports(dir string) ([]CapturedFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read failed imports dir: %w", err)
	}

	files := make([]CapturedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var failure FailedImport
		if err := json.Unmarshal(data, &failure); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		files = append(files, CapturedFile{Path: path, Failure: failure})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Failure.Failure.FailedAt.Before(files[j].Failure.Failure.FailedAt)
	})
	return files, nil
}

func errorReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func errorType(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}
