package comment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/internal/store"
	"github.com/lucidportal/backend/internal/store/storetest"
	"github.com/lucidportal/backend/usecase/notification"
)

func TestMentions(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"no mentions here", []string{}},
		{"hey @ana and @bruno_2", []string{"ana", "bruno_2"}},
		{"@ana @ana again", []string{"ana"}},
		{"mail me at a@b.com", []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Mentions(tt.text))
		})
	}
}

func TestUseCase_AddNotifiesMentionedUsers(t *testing.T) {
	ctx := context.Background()
	registry := store.NewRegistry(storetest.NewRemote(), storetest.NewMirror(), nil)
	notifications := notification.New(registry, nil)
	uc := New(registry, notifications, nil)

	c, err := uc.Add(ctx, "p1", Author{ID: "carla", Name: "Carla"}, "  @ana please review, cc @bruno and @carla  ")
	require.NoError(t, err)
	assert.Equal(t, "p1", c.Fields[FieldProjectID])
	assert.Equal(t, "@ana please review, cc @bruno and @carla", c.Fields[FieldContent])
	assert.Equal(t, []string{"ana", "bruno", "carla"}, c.Fields[FieldMentions])

	ana, _ := notifications.List(ctx, "ana")
	require.Len(t, ana, 1)
	assert.Equal(t, notification.TypeMention, ana[0].Fields[notification.FieldType])
	assert.Equal(t, "/projects/p1", ana[0].Fields[notification.FieldLink])
	bruno, _ := notifications.List(ctx, "bruno")
	assert.Len(t, bruno, 1)
	carla, _ := notifications.List(ctx, "carla")
	assert.Empty(t, carla)
}

func TestUseCase_ListAndDeletePerProject(t *testing.T) {
	ctx := context.Background()
	uc := New(store.NewRegistry(nil, storetest.NewMirror(), nil), nil, nil)

	first, err := uc.Add(ctx, "p1", Author{ID: "u1"}, "first")
	require.NoError(t, err)
	_, err = uc.Add(ctx, "p1", Author{ID: "u1"}, "second")
	require.NoError(t, err)
	_, err = uc.Add(ctx, "p2", Author{ID: "u1"}, "elsewhere")
	require.NoError(t, err)

	list, source, err := uc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, store.SourceMirror, source)
	assert.Equal(t, "first", list[0].Fields[FieldContent])
	assert.Equal(t, "u1", list[0].Fields[FieldUserName])

	require.NoError(t, uc.Delete(ctx, "p1", first.ID))
	list, _, err = uc.List(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUseCase_AddValidation(t *testing.T) {
	uc := New(store.NewRegistry(nil, storetest.NewMirror(), nil), nil, nil)

	_, err := uc.Add(context.Background(), "", Author{ID: "u"}, "x")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Add(context.Background(), "p1", Author{ID: "u"}, "   ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
