package domain

import (
	"regexp"
	"sort"
)

// Order describes the remote sort applied when a collection is loaded.
type Order struct {
	Column string
	Desc   bool
}

// Kind describes one concrete entity type and how its collection is stored.
type Kind struct {
	Name  string
	Table string
	Order Order
	// Prepend places new entities at the front of the collection (newest first).
	Prepend bool
	// OwnerField partitions the collection by an owning id (e.g. comments per project).
	OwnerField string
	// Filter is an equality filter applied to remote loads.
	Filter map[string]any
	// SoftDeleteField is a boolean flag cleared instead of deleting the row.
	SoftDeleteField string
	// Limit caps remote loads; zero means unlimited.
	Limit int
}

// Partitioned reports whether collections of this kind are scoped by owner.
func (k Kind) Partitioned() bool {
	return k.OwnerField != ""
}

// MirrorKey returns the local mirror key for the collection owned by owner.
func (k Kind) MirrorKey(prefix, owner string) string {
	key := k.Name
	if prefix != "" {
		key = prefix + "_" + key
	}
	if k.Partitioned() && owner != "" {
		key += "_" + owner
	}
	return key
}

// RemoteFilter combines the static filter with the owner partition.
func (k Kind) RemoteFilter(owner string) map[string]any {
	filter := make(map[string]any, len(k.Filter)+1)
	for col, v := range k.Filter {
		filter[col] = v
	}
	if k.Partitioned() && owner != "" {
		filter[k.OwnerField] = owner
	}
	return filter
}

var (
	Project = Kind{
		Name: "projects", Table: "projects",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
	}
	Task = Kind{
		Name: "tasks", Table: "tasks",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
	}
	Lead = Kind{
		Name: "leads", Table: "leads",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
	}
	Team = Kind{
		Name: "teams", Table: "teams",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
		Filter:          map[string]any{"active": true},
		SoftDeleteField: "active",
	}
	TeamMember = Kind{
		Name: "team_members", Table: "team_members",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
	}
	CalendarEvent = Kind{
		Name: "calendar_events", Table: "calendar_events",
		Order: Order{Column: "start", Desc: false},
	}
	TimeRecord = Kind{
		Name: "time_records", Table: "time_records",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
	}
	FinancialRecord = Kind{
		Name: "financial_records", Table: "financial_records",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
	}
	Notification = Kind{
		Name: "notifications", Table: "notifications",
		Order: Order{Column: FieldCreatedAt, Desc: true}, Prepend: true,
		OwnerField: "user_id",
		Limit:      50,
	}
	Comment = Kind{
		Name: "comments", Table: "project_comments",
		Order:      Order{Column: FieldCreatedAt, Desc: false},
		OwnerField: "project_id",
	}
)

var catalog = map[string]Kind{}

func init() {
	for _, k := range []Kind{
		Project, Task, Lead, Team, TeamMember, CalendarEvent,
		TimeRecord, FinancialRecord, Notification, Comment,
	} {
		catalog[k.Name] = k
	}
}

// LookupKind returns the kind registered under name.
func LookupKind(name string) (Kind, bool) {
	k, ok := catalog[name]
	return k, ok
}

// Kinds returns every registered kind sorted by name.
func Kinds() []Kind {
	out := make([]Kind, 0, len(catalog))
	for _, k := range catalog {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ValidIdentifier reports whether name is safe to use as a table column.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ValidateFields rejects field names that cannot be used as columns and store-managed keys.
func ValidateFields(fields Fields) error {
	for name := range fields {
		switch name {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			return WrapError(ErrCodeInvalid, "field is managed by the store", NewError(ErrCodeInvalid, name))
		}
		if !ValidIdentifier(name) {
			return WrapError(ErrCodeInvalid, "invalid field name", NewError(ErrCodeInvalid, name))
		}
	}
	return nil
}
