package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/order"
)

type courseRepository struct {
	db            *DB
	moduleOrders  *orderStore
	contentOrders *orderStore
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	repo := &courseRepository{db: db}
	repo.moduleOrders = &orderStore{
		db:     db,
		fields: []string{course.ModuleScopeField},
		records: func() []orderedRecord {
			recs := make([]orderedRecord, 0, len(db.modules))
			for _, m := range db.modules {
				recs = append(recs, orderedRecord{
					values: map[string]string{course.ModuleScopeField: m.CourseID},
					order:  m.Order,
				})
			}
			return recs
		},
	}
	repo.contentOrders = &orderStore{
		db:     db,
		fields: []string{course.ContentScopeField},
		records: func() []orderedRecord {
			recs := make([]orderedRecord, 0, len(db.contents))
			for _, cnt := range db.contents {
				recs = append(recs, orderedRecord{
					values: map[string]string{course.ContentScopeField: cnt.ModuleID},
					order:  cnt.Order,
				})
			}
			return recs
		},
	}
	return repo
}

// Subjects

func (repo *courseRepository) CreateSubject(_ context.Context, sub course.Subject, _ ...core.DBExecutor) (course.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sub.ID == "" {
		sub.ID = newID()
	}
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *courseRepository) CheckSubjectSlugUniqueness(_ context.Context, slug string, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.db.subjects {
		if sub.Slug == slug {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) QuerySubjects(_ context.Context, _ ...core.DBExecutor) ([]course.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]course.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Title < subjects[j].Title })
	return subjects, nil
}

func (repo *courseRepository) GetSubject(_ context.Context, id string, _ ...core.DBExecutor) (course.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return course.Subject{}, course.ErrSubjectNotFound
}

// Courses

func (repo *courseRepository) CheckCourseSlugUniqueness(_ context.Context, slug string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.courses {
		if c.Slug == slug && !contains(excludedIDs, c.ID) {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == "" {
		c.ID = newID()
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) QueryCourses(
	_ context.Context,
	filter course.QueryFilter,
	ordering []core.DBOrdering,
	_ ...core.DBExecutor,
) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	courses := make([]course.Course, 0)
	for _, c := range repo.db.courses {
		if filter.OwnerID != "" && c.OwnerID != filter.OwnerID {
			continue
		}
		if filter.SubjectID != "" && c.SubjectID != filter.SubjectID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Overview), search) {
			continue
		}
		courses = append(courses, *c)
	}
	sort.SliceStable(courses, func(i, j int) bool { return lessCourse(courses[i], courses[j], ordering) })
	return courses, nil
}

func lessCourse(a, b course.Course, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "title":
			cmp = strings.Compare(a.Title, b.Title)
		case "created_at":
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				cmp = -1
			case a.CreatedAt.After(b.CreatedAt):
				cmp = 1
			}
		}
		if cmp != 0 {
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
	}
	return false
}

func (repo *courseRepository) GetCourse(_ context.Context, id string, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrCourseNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

// DeleteCourse deletes the course along with its modules and their contents.
func (repo *courseRepository) DeleteCourse(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrCourseNotFound
	}
	var moduleIDs []string
	for _, m := range repo.db.modules {
		if m.CourseID == id {
			moduleIDs = append(moduleIDs, m.ID)
		}
	}
	repo.deleteModules(moduleIDs)
	delete(repo.db.courses, id)
	return nil
}

// Modules

func (repo *courseRepository) ModuleOrders() order.Store {
	return repo.moduleOrders
}

func (repo *courseRepository) CreateModule(_ context.Context, m course.Module, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if m.ID == "" {
		m.ID = newID()
	}
	repo.db.modules[m.ID] = &m
	return m, nil
}

func (repo *courseRepository) QueryModules(_ context.Context, courseID string, _ ...core.DBExecutor) ([]course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	modules := make([]course.Module, 0)
	for _, m := range repo.db.modules {
		if m.CourseID == courseID {
			modules = append(modules, *m)
		}
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Order == modules[j].Order {
			return modules[i].ID < modules[j].ID
		}
		return modules[i].Order < modules[j].Order
	})
	return modules, nil
}

func (repo *courseRepository) GetModule(_ context.Context, id string, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.modules[id]; ok {
		return *m, nil
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) UpdateModule(_ context.Context, m course.Module, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.modules[m.ID]; !ok {
		return course.Module{}, course.ErrModuleNotFound
	}
	repo.db.modules[m.ID] = &m
	return m, nil
}

func (repo *courseRepository) DeleteModules(_ context.Context, ids []string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.deleteModules(ids)
	return nil
}

// deleteModules deletes the modules and their contents. The DB write lock must be held.
func (repo *courseRepository) deleteModules(ids []string) {
	for id, cnt := range repo.db.contents {
		if contains(ids, cnt.ModuleID) {
			delete(repo.db.contents, id)
		}
	}
	for _, id := range ids {
		delete(repo.db.modules, id)
	}
}

// Contents

func (repo *courseRepository) ContentOrders() order.Store {
	return repo.contentOrders
}

func (repo *courseRepository) CreateItem(_ context.Context, it course.Item, _ ...core.DBExecutor) (course.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if it.ID == "" {
		it.ID = newID()
	}
	repo.db.items[it.ID] = &it
	return it, nil
}

func (repo *courseRepository) GetItem(_ context.Context, id string, _ ...core.DBExecutor) (course.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if it, ok := repo.db.items[id]; ok {
		return *it, nil
	}
	return course.Item{}, course.ErrItemNotFound
}

func (repo *courseRepository) UpdateItem(_ context.Context, it course.Item, _ ...core.DBExecutor) (course.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.items[it.ID]; !ok {
		return course.Item{}, course.ErrItemNotFound
	}
	repo.db.items[it.ID] = &it
	return it, nil
}

// DeleteItems deletes the items along with the contents they belong to.
func (repo *courseRepository) DeleteItems(_ context.Context, ids []string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, cnt := range repo.db.contents {
		if contains(ids, cnt.ItemID) {
			delete(repo.db.contents, id)
		}
	}
	for _, id := range ids {
		delete(repo.db.items, id)
	}
	return nil
}

func (repo *courseRepository) CreateContent(_ context.Context, c course.Content, _ ...core.DBExecutor) (course.Content, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.items[c.Item.ID]; !ok {
		return course.Content{}, course.ErrItemNotFound
	}
	if c.ID == "" {
		c.ID = newID()
	}
	repo.db.contents[c.ID] = &contentRow{ID: c.ID, ModuleID: c.ModuleID, ItemID: c.Item.ID, Order: c.Order}
	return c, nil
}

func (repo *courseRepository) toContent(row *contentRow) course.Content {
	cnt := course.Content{ID: row.ID, ModuleID: row.ModuleID, Order: row.Order}
	if it, ok := repo.db.items[row.ItemID]; ok {
		cnt.Item = *it
	}
	return cnt
}

func (repo *courseRepository) QueryContents(_ context.Context, moduleIDs []string, _ ...core.DBExecutor) ([]course.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	contents := make([]course.Content, 0)
	for _, row := range repo.db.contents {
		if contains(moduleIDs, row.ModuleID) {
			contents = append(contents, repo.toContent(row))
		}
	}
	sort.Slice(contents, func(i, j int) bool {
		a, b := contents[i], contents[j]
		if a.ModuleID != b.ModuleID {
			return a.ModuleID < b.ModuleID
		}
		if a.Order == b.Order {
			return a.ID < b.ID
		}
		return a.Order < b.Order
	})
	return contents, nil
}

func (repo *courseRepository) GetContent(_ context.Context, id string, _ ...core.DBExecutor) (course.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.contents[id]; ok {
		return repo.toContent(row), nil
	}
	return course.Content{}, course.ErrContentNotFound
}

func (repo *courseRepository) UpdateContentOrder(_ context.Context, id string, ord int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.contents[id]
	if !ok {
		return course.ErrContentNotFound
	}
	row.Order = ord
	return nil
}

func contains(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
