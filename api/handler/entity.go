package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lucidportal/backend/api/transport"
	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/pkg/httpcontext"
	entityUC "github.com/lucidportal/backend/usecase/entity"
)

// EntityHandler serves the generic collection routes for every entity kind.
type EntityHandler struct {
	baseHandler
	uc *entityUC.UseCase
}

func NewEntityHandler(uc *entityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List entities of a kind
// @Tags entities
// @Router /api/v1/{kind} [get]
func (h *EntityHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, source, err := h.uc.List(stdCtx, scope(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, items, transport.ListMeta{Count: len(items), Source: string(source)})
}

// @Summary Get one entity
// @Tags entities
// @Router /api/v1/{kind}/{id} [get]
func (h *EntityHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.Get(stdCtx, scope(ctx), pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Create entity
// @Tags entities
// @Router /api/v1/{kind} [post]
func (h *EntityHandler) Create(ctx *fasthttp.RequestCtx) {
	fields, ok := h.decodeFields(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, scope(ctx), fields)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update entity
// @Tags entities
// @Router /api/v1/{kind}/{id} [patch]
func (h *EntityHandler) Update(ctx *fasthttp.RequestCtx) {
	patch, ok := h.decodeFields(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, scope(ctx), pathParam(ctx, "id"), patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete entity
// @Tags entities
// @Router /api/v1/{kind}/{id} [delete]
func (h *EntityHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, scope(ctx), pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Delete every entity of a kind
// @Tags entities
// @Router /api/v1/{kind} [delete]
func (h *EntityHandler) DeleteAll(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteAll(stdCtx, scope(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Push the collection to the remote backend
// @Tags entities
// @Router /api/v1/{kind}/save [post]
func (h *EntityHandler) Save(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.Save(stdCtx, scope(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, items, transport.ListMeta{Count: len(items)})
}

// scope reads the kind from the path and the owner from ?owner=. Notifications are
// always scoped to the authenticated user.
func scope(ctx *fasthttp.RequestCtx) entityUC.Scope {
	s := entityUC.Scope{
		Kind:  pathParam(ctx, "kind"),
		Owner: string(ctx.QueryArgs().Peek("owner")),
	}
	if s.Kind == domain.Notification.Name {
		s.Owner = string(ctx.Request.Header.Peek(httpcontext.HeaderUserID))
	}
	return s
}
