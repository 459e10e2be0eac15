package simhandlers

import (
	"context"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
)

// FakeService is a programmable simservice.Service.
type FakeService struct {
	PlayFunc            func(ctx context.Context, req simservice.PlayRequest) (simservice.PlayResult, error)
	StopFunc            func(ctx context.Context) error
	StatusFunc          func(ctx context.Context) (simservice.StatusReport, error)
	SetForcedWinnerFunc func(ctx context.Context, gid int, tid *int) (simservice.ForcedWinnerResult, error)
}

func (f *FakeService) Play(ctx context.Context, req simservice.PlayRequest) (simservice.PlayResult, error) {
	if f.PlayFunc != nil {
		return f.PlayFunc(ctx, req)
	}
	return simservice.PlayResult{}, nil
}

func (f *FakeService) Stop(ctx context.Context) error {
	if f.StopFunc != nil {
		return f.StopFunc(ctx)
	}
	return nil
}

func (f *FakeService) Status(ctx context.Context) (simservice.StatusReport, error) {
	if f.StatusFunc != nil {
		return f.StatusFunc(ctx)
	}
	return simservice.StatusReport{}, nil
}

func (f *FakeService) SetForcedWinner(ctx context.Context, gid int, tid *int) (simservice.ForcedWinnerResult, error) {
	if f.SetForcedWinnerFunc != nil {
		return f.SetForcedWinnerFunc(ctx, gid, tid)
	}
	return simservice.ForcedWinnerResult{}, nil
}

// FakeDispatcher records enqueued requests.
type FakeDispatcher struct {
	Requests []simservice.PlayRequest
	Err      error
}

func (f *FakeDispatcher) EnqueuePlayDays(_ context.Context, req simservice.PlayRequest) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.Requests = append(f.Requests, req)
	return "run-1", nil
}

// FakeExporter returns fixed bytes and records the season asked for.
type FakeExporter struct {
	Season   int
	Playoffs bool
}

func (f *FakeExporter) SeasonStatsXLSX(_ context.Context, season int, playoffs bool) ([]byte, error) {
	f.Season, f.Playoffs = season, playoffs
	return []byte("xlsx"), nil
}

func (f *FakeExporter) StandingsPNG(_ context.Context, season int) ([]byte, error) {
	f.Season = season
	return []byte("png"), nil
}

var (
	_ simservice.Service = (*FakeService)(nil)
	_ Dispatcher         = (*FakeDispatcher)(nil)
	_ Exporter           = (*FakeExporter)(nil)
)
