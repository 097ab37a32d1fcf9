package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/radialkb/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "radialkb.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s
}

func TestRecordAggregatesPerKeyAndOrigin(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	day1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local)
	day2 := day1.Add(24 * time.Hour)

	events := []model.UsageEvent{
		{At: day1, Value: "e", Origin: model.OriginPick},
		{At: day1, Value: "e", Origin: model.OriginPick},
		{At: day2, Value: "e", Origin: model.OriginCommitChar},
		{At: day1, Value: "backspace", Origin: model.OriginSwipe},
		{At: day2, Value: "backspace", Origin: model.OriginAction},
		{At: day2, Value: "", Origin: model.OriginPick},
	}
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	aggs, err := s.KeyAggregates(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	want := []model.KeyAggregate{
		{Value: "backspace", Swipe: 1, Other: 1},
		{Value: "e", Pick: 2, Other: 1},
	}
	if len(aggs) != len(want) {
		t.Fatalf("expected %d aggregates, got %d", len(want), len(aggs))
	}
	for i := range want {
		if aggs[i] != want[i] {
			t.Fatalf("aggregate %d: expected %+v, got %+v", i, want[i], aggs[i])
		}
	}

	days, err := s.DailyCommits(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(days) != 2 || days[0].Commits != 3 || days[1].Commits != 2 {
		t.Fatalf("unexpected days: %+v", days)
	}

	since := day2
	days, err = s.DailyCommits(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("daily since: %v", err)
	}
	if len(days) != 1 || days[0].Day != day2.Format(DayLayout) {
		t.Fatalf("unexpected filtered days: %+v", days)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		info := model.SessionInfo{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), Transport: "unix"}
		if err := s.StartSession(ctx, info); err != nil {
			t.Fatalf("start: %v", err)
		}
		info.EndedAt = info.StartedAt.Add(time.Minute)
		info.Commits = i + 1
		if err := s.EndSession(ctx, info); err != nil {
			t.Fatalf("end: %v", err)
		}
	}
	if err := s.EndSession(ctx, model.SessionInfo{ID: "missing"}); err == nil {
		t.Fatalf("expected error for unknown session")
	}

	all, err := s.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].Commits != 3 {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	if !all[0].EndedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected end time: %v", all[0].EndedAt)
	}

	last, err := s.ListSessions(ctx, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].ID != "b" || last[1].ID != "c" {
		t.Fatalf("unexpected last sessions: %+v", last)
	}
}
