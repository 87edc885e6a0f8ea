// Package storetest provides in-memory remote and mirror backends for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/repository"
)

// Remote is an in-memory RemoteBackend. Fail forces an error for one operation
// ("select", "insert", "update", "delete", "delete_where", "ping") or for all ("*").
type Remote struct {
	mu     sync.Mutex
	tables map[string][]repository.Row
	fail   map[string]error
	calls  []string
	seq    int

	Unconfigured bool
}

var _ repository.RemoteBackend = (*Remote)(nil)

func NewRemote() *Remote {
	return &Remote{
		tables: make(map[string][]repository.Row),
		fail:   make(map[string]error),
	}
}

// Fail makes op return err. A nil err clears the failure.
func (r *Remote) Fail(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

// Seed appends rows to table as-is.
func (r *Remote) Seed(table string, rows ...repository.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.tables[table] = append(r.tables[table], copyRow(row))
	}
}

// Rows returns a copy of table.
func (r *Remote) Rows(table string) []repository.Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Row, 0, len(r.tables[table]))
	for _, row := range r.tables[table] {
		out = append(out, copyRow(row))
	}
	return out
}

// Calls lists the operations received, e.g. "insert leads".
func (r *Remote) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *Remote) Configured() bool { return !r.Unconfigured }

func (r *Remote) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure("ping", "")
}

func (r *Remote) Select(_ context.Context, table string, q repository.Query) ([]repository.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("select", table); err != nil {
		return nil, err
	}
	var out []repository.Row
	for _, row := range r.tables[table] {
		if matches(row, q.Filter) {
			out = append(out, copyRow(row))
		}
	}
	if q.Order.Column != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := sortable(out[i][q.Order.Column]), sortable(out[j][q.Order.Column])
			if q.Order.Desc {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *Remote) Insert(_ context.Context, table string, rows []repository.Row) ([]repository.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("insert", table); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out := make([]repository.Row, 0, len(rows))
	for _, row := range rows {
		stored := copyRow(row)
		if id, _ := stored[domain.FieldID].(string); id == "" {
			r.seq++
			stored[domain.FieldID] = "srv-" + strconv.Itoa(r.seq)
		}
		for _, col := range []string{domain.FieldCreatedAt, domain.FieldUpdatedAt} {
			if _, ok := stored[col]; !ok {
				stored[col] = now
			}
		}
		r.tables[table] = append(r.tables[table], stored)
		out = append(out, copyRow(stored))
	}
	return out, nil
}

func (r *Remote) Update(_ context.Context, table, id string, patch repository.Row) (repository.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("update", table); err != nil {
		return nil, err
	}
	for _, row := range r.tables[table] {
		if row[domain.FieldID] != id {
			continue
		}
		for k, v := range patch {
			if k != domain.FieldID {
				row[k] = v
			}
		}
		return copyRow(row), nil
	}
	return nil, domain.NewError(domain.ErrCodeNotFound, "no row with id "+id)
}

func (r *Remote) Delete(_ context.Context, table, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("delete", table); err != nil {
		return err
	}
	before := len(r.tables[table])
	r.tables[table] = r.keep(table, func(row repository.Row) bool { return row[domain.FieldID] != id })
	if len(r.tables[table]) == before {
		return domain.NewError(domain.ErrCodeNotFound, "no row with id "+id)
	}
	return nil
}

func (r *Remote) DeleteWhere(_ context.Context, table string, filter map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("delete_where", table); err != nil {
		return err
	}
	r.tables[table] = r.keep(table, func(row repository.Row) bool { return !matches(row, filter) })
	return nil
}

func (r *Remote) failure(op, table string) error {
	r.calls = append(r.calls, op+" "+table)
	if err, ok := r.fail[op]; ok {
		return err
	}
	return r.fail["*"]
}

func (r *Remote) keep(table string, fn func(repository.Row) bool) []repository.Row {
	var out []repository.Row
	for _, row := range r.tables[table] {
		if fn(row) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row repository.Row, filter map[string]any) bool {
	for col, want := range filter {
		if fmt.Sprint(row[col]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func sortable(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func copyRow(row repository.Row) repository.Row {
	out := make(repository.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Mirror is an in-memory LocalMirror.
type Mirror struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

var _ repository.LocalMirror = (*Mirror)(nil)

func NewMirror() *Mirror {
	return &Mirror{values: make(map[string]string)}
}

// Fail makes every call return err until cleared with nil.
func (m *Mirror) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mirror) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Mirror) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *Mirror) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.values, key)
	return nil
}

// Size returns the number of stored keys.
func (m *Mirror) Size() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values), m.err
}
