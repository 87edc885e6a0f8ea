package domain

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKind_MirrorKey(t *testing.T) {
	assert.Equal(t, "lucid_leads", Lead.MirrorKey("lucid", ""))
	assert.Equal(t, "leads", Lead.MirrorKey("", ""))
	assert.Equal(t, "lucid_leads", Lead.MirrorKey("lucid", "ignored"))
	assert.Equal(t, "lucid_comments_p1", Comment.MirrorKey("lucid", "p1"))
	assert.Equal(t, "lucid_notifications_u1", Notification.MirrorKey("lucid", "u1"))
}

func TestKind_RemoteFilter(t *testing.T) {
	assert.Equal(t, map[string]any{"active": true}, Team.RemoteFilter(""))
	assert.Equal(t, map[string]any{"project_id": "p1"}, Comment.RemoteFilter("p1"))
	assert.Empty(t, Project.RemoteFilter("p1"))

	f := Team.RemoteFilter("")
	f["active"] = false
	assert.Equal(t, true, Team.Filter["active"])
}

func TestLookupKind(t *testing.T) {
	k, ok := LookupKind("financial_records")
	assert.True(t, ok)
	assert.Equal(t, "financial_records", k.Table)

	_, ok = LookupKind("invoices")
	assert.False(t, ok)

	kinds := Kinds()
	assert.Len(t, kinds, 10)
	assert.Equal(t, "calendar_events", kinds[0].Name)
}

func TestValidateFields(t *testing.T) {
	assert.NoError(t, ValidateFields(Fields{"name": "x", "start_date": "2024-01-01"}))
	assert.True(t, IsDomainError(ValidateFields(Fields{"id": "x"}), ErrCodeInvalid))
	assert.True(t, IsDomainError(ValidateFields(Fields{"updated_at": "x"}), ErrCodeInvalid))
	assert.True(t, IsDomainError(ValidateFields(Fields{"name; drop table": 1}), ErrCodeInvalid))
	assert.True(t, IsDomainError(ValidateFields(Fields{"Name": 1}), ErrCodeInvalid))
}

func TestNewLocalID(t *testing.T) {
	now := time.UnixMilli(1714557600000)
	id := NewLocalID(now)
	prefix := strconv.FormatInt(now.UnixMilli(), 36)

	assert.Greater(t, len(id), len(prefix))
	assert.Equal(t, prefix, id[:len(prefix)])
	assert.NotEqual(t, id, NewLocalID(now))
}
