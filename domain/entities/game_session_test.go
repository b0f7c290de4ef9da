package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGameSession_IsActive(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name    string
		status  SessionStatus
		endTime time.Time
		want    bool
	}{
		{
			name:    "active and unexpired",
			status:  SessionStatusActive,
			endTime: now.Add(time.Minute),
			want:    true,
		},
		{
			name:    "active but expired",
			status:  SessionStatusActive,
			endTime: now.Add(-time.Second),
			want:    false,
		},
		{
			name:    "finished",
			status:  SessionStatusFinished,
			endTime: now.Add(time.Minute),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &GameSession{Status: tt.status, EndTime: tt.endTime}
			assert.Equal(t, tt.want, s.IsActive(now))
		})
	}
}

func TestGameSession_ProcessingStale(t *testing.T) {
	t.Parallel()

	now := time.Now()
	old := now.Add(-5 * time.Minute)
	recent := now.Add(-10 * time.Second)

	tests := []struct {
		name      string
		flag      bool
		startedAt *time.Time
		want      bool
	}{
		{name: "not processing", flag: false, startedAt: nil, want: false},
		{name: "processing without timestamp is reclaimable", flag: true, startedAt: nil, want: true},
		{name: "recently started", flag: true, startedAt: &recent, want: false},
		{name: "held past threshold", flag: true, startedAt: &old, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &GameSession{IsProcessing: tt.flag, ProcessingStartedAt: tt.startedAt}
			assert.Equal(t, tt.want, s.ProcessingStale(now, 2*time.Minute))
		})
	}
}

func TestNewGameSession(t *testing.T) {
	t.Parallel()

	game := &Game{
		ID:                7,
		CommissionPercent: decimal.NewFromInt(15),
		GameTimeSeconds:   300,
	}
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := NewGameSession(game, start)
	assert.Equal(t, int64(7), s.GameID)
	assert.Equal(t, SessionStatusActive, s.Status)
	assert.Equal(t, start.Add(5*time.Minute), s.EndTime)
	assert.True(t, s.CommissionPercent.Equal(decimal.NewFromInt(15)))
	assert.True(t, s.TotalBetAmount.IsZero())
}

func TestGameSession_Commission(t *testing.T) {
	t.Parallel()

	s := &GameSession{CommissionPercent: decimal.NewFromInt(15)}
	got := s.Commission(decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(30)), "15%% of 200 is 30, got %s", got)
}
