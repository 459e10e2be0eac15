package simqueue

import (
	"context"
	"log/slog"
	"sync"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	"github.com/google/uuid"
)

// InlineDispatcher runs play-days requests on goroutines in this process. Used with the
// SQLite store, where River is unavailable.
type InlineDispatcher struct {
	worker *PlayDaysWorker
	logger *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInlineDispatcher creates a new InlineDispatcher.
func NewInlineDispatcher(svc simservice.Service, logger *slog.Logger) *InlineDispatcher {
	return &InlineDispatcher{
		worker: NewPlayDaysWorker(svc, logger),
		logger: logger,
	}
}

// Start must be called before EnqueuePlayDays.
func (d *InlineDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return nil
}

// Stop cancels running jobs and waits for them.
func (d *InlineDispatcher) Stop(context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}

func (d *InlineDispatcher) EnqueuePlayDays(ctx context.Context, req simservice.PlayRequest) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		d.ctx, d.cancel = context.WithCancel(context.Background())
	}

	args := PlayDaysArgs{
		NumDays:    req.NumDays,
		Start:      req.Start,
		LiveGameID: req.LiveGameID,
		Source:     req.Source,
		RunID:      uuid.NewString(),
	}
	runCtx := d.ctx
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.worker.play(runCtx, args); err != nil {
			d.logger.WarnContext(runCtx, "Inline play days run did not complete",
				slog.String("run_id", args.RunID),
				slog.Any("error", err),
			)
		}
	}()
	return args.RunID, nil
}
