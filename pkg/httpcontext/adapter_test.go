package httpcontext

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appLogger "github.com/lucidportal/backend/pkg/logger"
)

func TestAdapter_Attach(t *testing.T) {
	a := NewAdapter(time.Second)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Request-ID", "req-42")
	ctx.Request.Header.SetUserAgent("portal-test")

	stdCtx, cancel := a.Attach(ctx)
	defer cancel()

	deadline, ok := stdCtx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "portal-test", stdCtx.Value(KeyUserAgent))
}

func TestAdapter_GeneratesRequestID(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	_, cancel := NewAdapter(0).Attach(ctx)
	defer cancel()

	_, err := uuid.Parse(string(ctx.Response.Header.Peek("X-Request-ID")))
	assert.NoError(t, err)
}

func TestAdapter_AttachesCaller(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(HeaderUserID, "ana")

	stdCtx, cancel := NewAdapter(time.Second).Attach(ctx)
	defer cancel()

	core, logs := observer.New(zapcore.InfoLevel)
	appLogger.WithRequestID(stdCtx, zap.New(core)).Info("x")
	assert.Equal(t, "ana", logs.All()[0].ContextMap()["user_id"])
}
