package backend

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaybePollHonoursInterval(t *testing.T) {
	calls := 0
	p := NewPoller(5*time.Second, func() (int, error) {
		calls++
		return calls, nil
	}, nil)
	base := time.Unix(0, 0)

	snap, polled := p.MaybePoll(base)
	require.True(t, polled)
	assert.Equal(t, 1, snap.PendingUpdates)

	snap, polled = p.MaybePoll(base.Add(3 * time.Second))
	assert.False(t, polled)
	assert.Equal(t, 1, snap.PendingUpdates)
	assert.Equal(t, 1, calls)

	snap, polled = p.MaybePoll(base.Add(6 * time.Second))
	assert.True(t, polled)
	assert.Equal(t, 2, snap.PendingUpdates)
	assert.Equal(t, 2, snap.Polls)
}

func TestMaybePollBoundedUnderFastTicks(t *testing.T) {
	calls := 0
	p := NewPoller(time.Second, func() (int, error) {
		calls++
		return 0, nil
	}, nil)
	base := time.Unix(100, 0)
	// 30 ticks per second for three seconds.
	for i := 0; i < 90; i++ {
		p.MaybePoll(base.Add(time.Duration(i) * time.Second / 30))
	}
	assert.Equal(t, 3, calls)
}

func TestMaybePollSwallowsAccessorFailures(t *testing.T) {
	fail := false
	p := NewPoller(time.Second,
		func() (int, error) {
			if fail {
				return 0, errors.New("registry offline")
			}
			return 4, nil
		},
		func() (int, error) { panic("transfer table missing") },
	)
	base := time.Unix(0, 0)

	snap, polled := p.MaybePoll(base)
	require.True(t, polled)
	assert.Equal(t, 4, snap.PendingUpdates)
	assert.NoError(t, snap.PendingErr)
	require.Error(t, snap.TransfersErr)
	assert.Contains(t, snap.TransfersErr.Error(), "transfer table missing")

	fail = true
	snap, polled = p.MaybePoll(base.Add(2 * time.Second))
	require.True(t, polled)
	assert.Equal(t, 4, snap.PendingUpdates, "failed counter keeps previous value")
	assert.Error(t, snap.PendingErr)
	assert.Equal(t, snap, p.Snapshot())
}

func TestNewPollerDefaultsInterval(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, NewPoller(0, nil, nil).Interval())
	var p *Poller
	_, polled := p.MaybePoll(time.Now())
	assert.False(t, polled)
}
