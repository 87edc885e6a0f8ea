package comment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/internal/store"
	"github.com/lucidportal/backend/usecase"
	"github.com/lucidportal/backend/usecase/notification"
)

const (
	FieldProjectID = "project_id"
	FieldUserID    = "user_id"
	FieldUserName  = "user_name"
	FieldContent   = "content"
	FieldMentions  = "mentions"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Author identifies who writes a comment.
type Author struct {
	ID   string
	Name string
}

// Notifier raises notifications for mentioned users.
type Notifier interface {
	Notify(ctx context.Context, userID string, in notification.Input) (domain.Entity, error)
}

type UseCase struct {
	stores   usecase.Collections
	notifier Notifier
	logger   *zap.Logger
}

func New(stores usecase.Collections, notifier Notifier, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		stores:   stores,
		notifier: notifier,
		logger:   logger,
	}
}

// Add stores a comment on projectID and notifies every mentioned user once.
func (uc *UseCase) Add(ctx context.Context, projectID string, author Author, text string) (domain.Entity, error) {
	text = strings.TrimSpace(text)
	if projectID == "" {
		return domain.Entity{}, domain.NewError(domain.ErrCodeInvalid, "project_id is required")
	}
	if text == "" {
		return domain.Entity{}, domain.NewError(domain.ErrCodeInvalid, "comment text is required")
	}
	if author.Name == "" {
		author.Name = author.ID
	}

	mentions := Mentions(text)
	fields := domain.Fields{
		FieldUserID:   author.ID,
		FieldUserName: author.Name,
		FieldContent:  text,
		FieldMentions: mentions,
	}

	s := uc.stores.Store(domain.Comment, projectID)
	s.Ensure(ctx)
	c := s.Create(ctx, fields)

	if uc.notifier != nil {
		for _, user := range mentions {
			if user == author.ID {
				continue
			}
			_, err := uc.notifier.Notify(ctx, user, notification.Input{
				Type:    notification.TypeMention,
				Title:   "You were mentioned in a comment",
				Message: fmt.Sprintf("%s mentioned you on a project", author.Name),
				Link:    "/projects/" + projectID,
				Data:    map[string]any{FieldProjectID: projectID, "comment_id": c.ID},
			})
			if err != nil {
				uc.logger.Warn("mention notification failed", zap.String("user", user), zap.Error(err))
			}
		}
	}
	return c, nil
}

// List reloads the comments of projectID, oldest first.
func (uc *UseCase) List(ctx context.Context, projectID string) ([]domain.Entity, store.Source, error) {
	if projectID == "" {
		return nil, "", domain.NewError(domain.ErrCodeInvalid, "project_id is required")
	}
	items, source := uc.stores.Store(domain.Comment, projectID).LoadWithSource(ctx)
	return items, source, nil
}

func (uc *UseCase) Delete(ctx context.Context, projectID, id string) error {
	if projectID == "" {
		return domain.NewError(domain.ErrCodeInvalid, "project_id is required")
	}
	s := uc.stores.Store(domain.Comment, projectID)
	s.Ensure(ctx)
	s.Delete(ctx, id)
	return nil
}

// Mentions returns the distinct @handles in text, in order of appearance.
func Mentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
