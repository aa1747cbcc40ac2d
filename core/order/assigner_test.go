package order

import (
	"context"
	"errors"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
)

type record struct {
	scope Scope
	order int
}

// storeMock is a Store over a slice of records.
type storeMock struct {
	records []record
	err     error
	calls   int
}

func (s *storeMock) MaxOrder(_ context.Context, scope Scope, _ ...core.DBExecutor) (null.Int, error) {
	s.calls++
	if s.err != nil {
		return null.Int{}, s.err
	}
	var max null.Int
	for _, rec := range s.records {
		if rec.scope == scope && (!max.Valid || rec.order > max.Int) {
			max = null.IntFrom(rec.order)
		}
	}
	return max, nil
}

// create assigns an order to a new record in scope and stores it.
func (s *storeMock) create(t *testing.T, a *Assigner, scope Scope, current null.Int) int {
	ord, err := a.Assign(context.Background(), scope, current)
	if err != nil {
		t.Fatalf("Assign() unexpected error = %v", err)
	}
	s.records = append(s.records, record{scope: scope, order: ord})
	return ord
}

func TestAssigner_Assign(t *testing.T) {
	course1 := NewScope(Field{Name: "course_id", Value: "1"})
	course2 := NewScope(Field{Name: "course_id", Value: "2"})

	tests := []struct {
		name      string
		records   []record
		scope     Scope
		current   null.Int
		want      int
		wantQuery bool
	}{
		{name: "empty scope", scope: course1, want: 0, wantQuery: true},
		{
			name:    "non-empty scope",
			records: []record{{course1, 0}, {course1, 1}, {course1, 2}},
			scope:   course1, want: 3, wantQuery: true,
		},
		{
			name:    "max is not count",
			records: []record{{course1, 7}, {course1, 2}},
			scope:   course1, want: 8, wantQuery: true,
		},
		{
			name:    "other scope is empty",
			records: []record{{course1, 0}, {course1, 1}},
			scope:   course2, want: 0, wantQuery: true,
		},
		{
			name:    "global scope",
			records: []record{{GlobalScope, 4}, {course1, 9}},
			scope:   GlobalScope, want: 5, wantQuery: true,
		},
		{
			name:    "explicit order",
			records: []record{{course1, 0}, {course1, 1}},
			scope:   course1, current: null.IntFrom(10), want: 10,
		},
		{name: "explicit zero order", records: []record{{course1, 5}}, scope: course1, current: null.IntFrom(0), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &storeMock{records: tt.records}
			got, err := NewAssigner(store).Assign(context.Background(), tt.scope, tt.current)
			if err != nil {
				t.Fatalf("Assign() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Assign() = %v, want %v", got, tt.want)
			}
			if queried := store.calls > 0; queried != tt.wantQuery {
				t.Errorf("Assign() queried store = %v, want %v", queried, tt.wantQuery)
			}
		})
	}
}

func TestAssigner_Assign_sequence(t *testing.T) {
	s1 := NewScope(Field{Name: "module_id", Value: "a"})
	s2 := NewScope(Field{Name: "module_id", Value: "b"})
	store := new(storeMock)
	a := NewAssigner(store)

	for want := 0; want < 3; want++ {
		if got := store.create(t, a, s1, null.Int{}); got != want {
			t.Errorf("create(s1) = %v, want %v", got, want)
		}
	}
	if got := store.create(t, a, s2, null.Int{}); got != 0 {
		t.Errorf("create(s2) = %v, want 0", got)
	}
	if got := store.create(t, a, s1, null.Int{}); got != 3 {
		t.Errorf("create(s1) = %v, want 3", got)
	}

	// gaps left by deletes are not filled
	store.records = append(store.records[:1], store.records[2:]...) // drop order 1 of s1
	if got := store.create(t, a, s1, null.Int{}); got != 4 {
		t.Errorf("create(s1) after delete = %v, want 4", got)
	}
}

func TestAssigner_Assign_storeError(t *testing.T) {
	errDB := errors.New("database is down")
	a := NewAssigner(&storeMock{err: errDB})

	if _, err := a.Assign(context.Background(), GlobalScope, null.Int{}); !errors.Is(err, errDB) {
		t.Errorf("Assign() error = %v, want %v", err, errDB)
	}
	// explicit orders never hit the store
	if got, err := a.Assign(context.Background(), GlobalScope, null.IntFrom(2)); err != nil || got != 2 {
		t.Errorf("Assign() = %v, %v; want 2, <nil>", got, err)
	}
}
