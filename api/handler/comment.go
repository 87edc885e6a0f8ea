package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lucidportal/backend/api/transport"
	"github.com/lucidportal/backend/pkg/httpcontext"
	commentUC "github.com/lucidportal/backend/usecase/comment"
)

type CommentHandler struct {
	baseHandler
	uc *commentUC.UseCase
}

func NewCommentHandler(uc *commentUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List project comments
// @Tags comments
// @Router /api/v1/projects/{id}/comments [get]
func (h *CommentHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, source, err := h.uc.List(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, items, transport.ListMeta{Count: len(items), Source: string(source)})
}

// @Summary Add a project comment
// @Tags comments
// @Router /api/v1/projects/{id}/comments [post]
func (h *CommentHandler) Add(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.CommentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	author := commentUC.Author{ID: userID, Name: req.AuthorName}
	created, err := h.uc.Add(stdCtx, pathParam(ctx, "id"), author, req.Text)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Delete a project comment
// @Tags comments
// @Router /api/v1/projects/{id}/comments/{commentID} [delete]
func (h *CommentHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, pathParam(ctx, "id"), pathParam(ctx, "commentID")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
