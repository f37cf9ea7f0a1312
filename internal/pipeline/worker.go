package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/recexport/internal/export"
)

// Worker runs queued export jobs one at a time.
type Worker struct {
	exporter Exporter
	log      *slog.Logger
}

func NewWorker(exporter Exporter, log *slog.Logger) *Worker {
	return &Worker{
		exporter: exporter,
		log:      log,
	}
}

// Process runs one job's export path to completion. There is no retry: a
// failed job stays failed and the client may submit again.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "format", job.Format)

	req := job.Request()
	req.OnStage = func(s export.Stage) {
		if status, ok := statusForStage[s]; ok {
			job.SetStatus(status, string(s))
		}
	}

	log.Info("export job started")
	res, err := w.exporter.Export(ctx, job.Format, req)
	if err != nil {
		phase := job.Snapshot().Phase
		kind := "render"
		var e *export.Error
		if errors.As(err, &e) {
			kind = e.Kind.String()
		}
		log.Error("export job failed", "phase", phase, "kind", kind, "error", err)
		job.Fail(kind, phase, err)
		return
	}

	job.Complete(res)
	log.Info("export job completed", "file", res.Filename, "pages", res.Pages, "bytes", len(res.Data))
}
