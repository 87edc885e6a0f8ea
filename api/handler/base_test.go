package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/pkg/httpcontext"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown kind", fmt.Errorf("lookup: %w", domain.ErrUnknownKind), http.StatusNotFound, "NOT_FOUND"},
		{"invalid", domain.ErrInvalidPayload, http.StatusBadRequest, "INVALID"},
		{"access denied", domain.WrapError(domain.ErrCodeAccessDenied, "blocked", errors.New("42501")), http.StatusForbidden, "ACCESS_DENIED"},
		{"connectivity", domain.ErrRemoteUnavailable, http.StatusServiceUnavailable, "CONNECTIVITY"},
		{"conflict", domain.NewError(domain.ErrCodeConflict, "dup"), http.StatusConflict, "CONFLICT"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestDecodeFields(t *testing.T) {
	h := newBaseHandler(nil, nil)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBody([]byte(`{"name":"Lead"}`))
	fields, ok := h.decodeFields(ctx)
	assert.True(t, ok)
	assert.Equal(t, "Lead", fields.String("name"))

	for _, body := range []string{`[1,2]`, `null`, `{`} {
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.SetBody([]byte(body))
		_, ok := h.decodeFields(ctx)
		assert.False(t, ok, body)
		assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	}
}

func TestRespondError_LogsRequestScope(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newBaseHandler(httpcontext.NewAdapter(time.Second), zap.New(core))

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(httpcontext.HeaderRequestID, "req-7")
	ctx.Request.Header.Set(httpcontext.HeaderUserID, "ana")
	_, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondError(ctx, domain.ErrRemoteUnavailable)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "ana", fields["user_id"])
	assert.Equal(t, "CONNECTIVITY", fields["code"])
	assert.Equal(t, http.StatusServiceUnavailable, ctx.Response.StatusCode())
}

func TestRespondError_SkipsClientErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newBaseHandler(nil, zap.New(core))

	ctx := &fasthttp.RequestCtx{}
	h.respondError(ctx, domain.ErrNotFound)

	assert.Zero(t, logs.Len())
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
}
