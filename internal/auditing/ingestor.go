package auditing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"

	"auditwatch/internal/constants"
	"auditwatch/internal/logger"
	"auditwatch/pkg/logging"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
	"auditwatch/pkg/tracing"
)

type Ingestor struct {
	importer *Importer
	repo     Repository
	logger   logger.Logger
}

func NewIngestor(importer *Importer, repo Repository, log logger.Logger) *Ingestor {
	return &Ingestor{importer: importer, repo: repo, logger: log}
}

// Ingest converts and stores one audit message. Any error is returned to the caller.
func (i *Ingestor) Ingest(ctx context.Context, msg models.TransportMessage) (err error) {
	start := time.Now()
	ctx, span := tracing.StartMessageSpan(ctx, constants.StageAudit, msg.MessageID, msg.Headers)
	defer func() {
		status := "imported"
		if err != nil {
			status = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ObserveAuditIngest(time.Since(start), status)
		span.End()
	}()

	record, err := i.importer.ConvertToSaveMessage(ctx, msg)
	if err != nil {
		return err
	}

	ctx = logging.WithUniqueMessageID(ctx, record.UniqueMessageID)
	if err := i.repo.Upsert(ctx, record); err != nil {
		return err
	}

	i.logger.DebugwCtx(ctx, "Audit message imported", "record_id", record.ID)
	return nil
}
