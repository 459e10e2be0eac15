package simqueue

import (
	"context"
	"sync"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	"github.com/Black-And-White-Club/league-sim/pkg/results"
)

// ------------------------
// Fake Sim Service
// ------------------------

type FakeSimService struct {
	mu       sync.Mutex
	Requests []simservice.PlayRequest

	PlayFunc func(ctx context.Context, req simservice.PlayRequest) (simservice.PlayResult, error)
}

func (f *FakeSimService) Play(ctx context.Context, req simservice.PlayRequest) (simservice.PlayResult, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()
	if f.PlayFunc != nil {
		return f.PlayFunc(ctx, req)
	}
	return results.SuccessResult[simservice.PlaySummary, error](simservice.PlaySummary{DaysPlayed: req.NumDays}), nil
}

func (f *FakeSimService) Stop(context.Context) error { return nil }

func (f *FakeSimService) Status(context.Context) (simservice.StatusReport, error) {
	return simservice.StatusReport{}, nil
}

func (f *FakeSimService) SetForcedWinner(context.Context, int, *int) (simservice.ForcedWinnerResult, error) {
	return simservice.ForcedWinnerResult{}, nil
}

func (f *FakeSimService) calls() []simservice.PlayRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]simservice.PlayRequest(nil), f.Requests...)
}

var _ simservice.Service = (*FakeSimService)(nil)
