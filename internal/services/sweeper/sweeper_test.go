package sweeper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SweepableMock struct{ mock.Mock }

func (m *SweepableMock) Sweep(cutoff time.Time) int {
	return m.Called(cutoff).Int(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-10 * time.Minute)

	posts := new(SweepableMock)
	posts.On("Sweep", cutoff).Return(3).Once()
	studios := new(SweepableMock)
	studios.On("Sweep", cutoff).Return(1).Once()

	s := New("@every 5m", 10*time.Minute, newNoopLogger(), posts, studios)
	s.now = func() time.Time { return now }

	assert.Equal(t, 4, s.RunOnce())
	posts.AssertExpectations(t)
	studios.AssertExpectations(t)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New("every five minutes", time.Minute, newNoopLogger())
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services.sweeper.Start")
}

func TestStartStop(t *testing.T) {
	swept := make(chan struct{}, 1)
	c := new(SweepableMock)
	c.On("Sweep", mock.Anything).Return(0).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	})

	s := New("@every 1s", time.Minute, newNoopLogger(), c)
	require.NoError(t, s.Start())

	select {
	case <-swept:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
