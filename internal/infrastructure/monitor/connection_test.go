package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lucidportal/backend/internal/store/storetest"
)

func TestMonitor_Refresh(t *testing.T) {
	remote := storetest.NewRemote()
	mirror := storetest.NewMirror()
	_ = mirror.Set("lucid_leads", "[]")

	m := New(remote, mirror, time.Minute, nil)
	m.Refresh()

	status := m.GetStatus()
	assert.True(t, status.RemoteConfigured)
	assert.True(t, status.Remote)
	assert.True(t, status.Mirror)
	assert.Equal(t, 1, status.MirrorSize)
	assert.Equal(t, "remote", status.Mode())
	assert.Nil(t, status.MirrorDetails)

	remote.Fail("ping", errors.New("connection refused"))
	m.Refresh()
	assert.False(t, m.GetStatus().Remote)
	assert.Equal(t, "local", m.GetStatus().Mode())
}

type detailedMirror struct {
	*storetest.Mirror
}

func (detailedMirror) Details() map[string]any {
	return map[string]any{"driver": "bolt", "open_tx": 0}
}

func TestMonitor_CollectsMirrorDetails(t *testing.T) {
	m := New(storetest.NewRemote(), detailedMirror{storetest.NewMirror()}, time.Minute, nil)
	m.Refresh()

	assert.Equal(t, "bolt", m.GetStatus().MirrorDetails["driver"])
}

func TestMonitor_UnconfiguredRemoteIsNotPinged(t *testing.T) {
	remote := storetest.NewRemote()
	remote.Unconfigured = true

	m := New(remote, nil, time.Minute, nil)
	m.Refresh()

	status := m.GetStatus()
	assert.False(t, status.RemoteConfigured)
	assert.False(t, status.Mirror)
	assert.Empty(t, remote.Calls())
}

func TestMonitor_StartStop(t *testing.T) {
	m := New(storetest.NewRemote(), storetest.NewMirror(), time.Second, nil)
	m.Start()
	assert.False(t, m.GetStatus().LastCheck.IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Stop(ctx)
}
