package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_ShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	m.Register("mirror", func(context.Context) error { order = append(order, "mirror"); return nil })
	m.Register("remote", func(context.Context) error { order = append(order, "remote"); return errors.New("boom") })
	m.Register("http", func(context.Context) error { order = append(order, "http"); return nil })
	m.Register("ignored", nil)

	err := m.Shutdown(context.Background())

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"http", "remote", "mirror"}, order)
}

func TestManager_ShutdownAppliesTimeout(t *testing.T) {
	m := New(10*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_GoCancelsOnFailure(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Listen(cancel)

	m.Go("ok", func() error { return nil })
	m.Go("http_server", func() error { return errors.New("listen failed") })

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}
