package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/internal/store"
	"github.com/lucidportal/backend/usecase"
)

// Field names of a notification row.
const (
	FieldUserID  = "user_id"
	FieldType    = "type"
	FieldTitle   = "title"
	FieldMessage = "message"
	FieldLink    = "link"
	FieldData    = "data"
	FieldRead    = "read"
	FieldReadAt  = "read_at"
)

// Notification types raised by the portal.
const (
	TypeMention = "comment_mention"
	TypeSystem  = "system"
)

// Input describes a new notification.
type Input struct {
	Type    string
	Title   string
	Message string
	Link    string
	Data    map[string]any
}

type UseCase struct {
	stores usecase.Collections
	logger *zap.Logger
	now    func() time.Time
}

func New(stores usecase.Collections, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		stores: stores,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Notify stores an unread notification for userID.
func (uc *UseCase) Notify(ctx context.Context, userID string, in Input) (domain.Entity, error) {
	if userID == "" {
		return domain.Entity{}, domain.NewError(domain.ErrCodeInvalid, "user_id is required")
	}
	if in.Title == "" {
		return domain.Entity{}, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if in.Type == "" {
		in.Type = TypeSystem
	}
	fields := domain.Fields{
		FieldType:    in.Type,
		FieldTitle:   in.Title,
		FieldMessage: in.Message,
		FieldRead:    false,
	}
	if in.Link != "" {
		fields[FieldLink] = in.Link
	}
	if len(in.Data) > 0 {
		fields[FieldData] = in.Data
	}

	s := uc.stores.Store(domain.Notification, userID)
	s.Ensure(ctx)
	n := s.Create(ctx, fields)
	uc.logger.Debug("notification created", zap.String("user_id", userID), zap.String("type", in.Type))
	return n, nil
}

// List reloads the latest notifications of userID, newest first.
func (uc *UseCase) List(ctx context.Context, userID string) ([]domain.Entity, store.Source) {
	return uc.stores.Store(domain.Notification, userID).LoadWithSource(ctx)
}

// MarkRead flags one notification as read. Already-read notifications are returned unchanged.
func (uc *UseCase) MarkRead(ctx context.Context, userID, id string) (domain.Entity, error) {
	s := uc.stores.Store(domain.Notification, userID)
	s.Ensure(ctx)
	n, ok := s.Get(id)
	if !ok {
		return domain.Entity{}, domain.ErrNotFound
	}
	if n.Fields.Bool(FieldRead) {
		return n, nil
	}
	updated, ok := s.Update(ctx, id, uc.readPatch())
	if !ok {
		return domain.Entity{}, domain.ErrNotFound
	}
	return updated, nil
}

// MarkAllRead flags every unread notification and returns how many changed.
func (uc *UseCase) MarkAllRead(ctx context.Context, userID string) int {
	s := uc.stores.Store(domain.Notification, userID)
	s.Ensure(ctx)
	patch := uc.readPatch()
	count := 0
	for _, n := range s.List() {
		if n.Fields.Bool(FieldRead) {
			continue
		}
		if _, ok := s.Update(ctx, n.ID, patch); ok {
			count++
		}
	}
	return count
}

func (uc *UseCase) UnreadCount(ctx context.Context, userID string) int {
	s := uc.stores.Store(domain.Notification, userID)
	s.Ensure(ctx)
	return Unread(s.List())
}

// Delete removes one notification.
func (uc *UseCase) Delete(ctx context.Context, userID, id string) {
	s := uc.stores.Store(domain.Notification, userID)
	s.Ensure(ctx)
	s.Delete(ctx, id)
}

// Unread counts notifications not yet read.
func Unread(items []domain.Entity) int {
	count := 0
	for _, n := range items {
		if !n.Fields.Bool(FieldRead) {
			count++
		}
	}
	return count
}

func (uc *UseCase) readPatch() domain.Fields {
	return domain.Fields{
		FieldRead:   true,
		FieldReadAt: uc.now().Format(time.RFC3339Nano),
	}
}
