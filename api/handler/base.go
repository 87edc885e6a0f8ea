package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lucidportal/backend/api/transport"
	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/pkg/httpcontext"
	appLogger "github.com/lucidportal/backend/pkg/logger"
)

// requestScopeKey holds the request's std context on the fasthttp context so
// error responses log with the same request and user ids as the use cases.
const requestScopeKey = "request_scope"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	var (
		stdCtx context.Context
		cancel context.CancelFunc
	)
	if h.adapter != nil {
		stdCtx, cancel = h.adapter.Attach(ctx)
	} else {
		stdCtx, cancel = context.WithCancel(context.Background())
	}
	ctx.SetUserValue(requestScopeKey, stdCtx)
	return stdCtx, cancel
}

// requestLogger returns the handler logger tagged with the request and user ids.
func (h baseHandler) requestLogger(ctx *fasthttp.RequestCtx) *zap.Logger {
	scope, ok := ctx.UserValue(requestScopeKey).(context.Context)
	if !ok {
		scope = context.Background()
		if reqID := string(ctx.Response.Header.Peek(httpcontext.HeaderRequestID)); reqID != "" {
			scope = appLogger.ContextWithRequestID(scope, reqID)
		}
		if userID := string(ctx.Request.Header.Peek(httpcontext.HeaderUserID)); userID != "" {
			scope = appLogger.ContextWithUserID(scope, userID)
		}
	}
	return appLogger.WithRequestID(scope, h.logger)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, meta transport.ListMeta) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, meta))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError || code == string(domain.ErrCodeAccessDenied) {
		h.requestLogger(ctx).Warn("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.String("code", code),
			zap.Error(err))
	}
	payload := transport.NewError(code, err.Error(), nil)
	var dErr *domain.Error
	if code == string(domain.ErrCodeAccessDenied) && errors.As(err, &dErr) {
		payload = payload.WithHint(dErr.Message)
	}
	h.respondJSON(ctx, status, payload)
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

func (h baseHandler) userID(ctx *fasthttp.RequestCtx) string {
	userID := string(ctx.Request.Header.Peek(httpcontext.HeaderUserID))
	if userID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing user id", nil))
	}
	return userID
}

// decodeFields reads a JSON object body.
func (h baseHandler) decodeFields(ctx *fasthttp.RequestCtx) (domain.Fields, bool) {
	var fields map[string]any
	if err := json.Unmarshal(ctx.PostBody(), &fields); err != nil || fields == nil {
		h.respondInvalid(ctx, "invalid payload")
		return nil, false
	}
	return domain.Fields(fields), true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsAccessDenied(err):
		return http.StatusForbidden, string(domain.ErrCodeAccessDenied)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsConnectivity(err):
		return http.StatusServiceUnavailable, string(domain.ErrCodeConnectivity)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
