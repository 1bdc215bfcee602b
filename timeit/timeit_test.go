package timeit

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrack(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1500 * time.Millisecond)
	}
	defer func() { now = time.Now }()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	elapsed := Track(log, "work")()
	require.Equal(t, 1500*time.Millisecond, elapsed)
	require.Contains(t, buf.String(), "функция 'work' выполнена за 1.5000 сек.")
}
