package stats

import (
	"context"

	"github.com/verte-zerg/radialkb/internal/model"
)

// Source reads the usage journal. *store.Store satisfies it.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionInfo, error)
	KeyAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.KeyAggregate, error)
	DailyCommits(ctx context.Context, cfg model.StatsConfig) ([]model.DayAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionInfo
	Keys     []model.KeyAggregate
	Days     []model.DayAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	keys, err := src.KeyAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	days, err := src.DailyCommits(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions, Keys: keys, Days: days}, nil
}
