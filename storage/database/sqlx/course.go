package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/order"
)

const (
	subjectTable = "subjects"
	courseTable  = "courses"
	moduleTable  = "modules"
	itemTable    = "items"
	contentTable = "contents"
)

var (
	subjectColumns = []string{"id", "title", "slug"}
	courseColumns  = []string{"id", "owner_id", "subject_id", "title", "slug", "overview", "created_at"}
	moduleColumns  = []string{"id", "course_id", "title", "description", `"order"`}
	itemColumns    = []string{"id", "owner_id", "kind", "title", "content", "url", "file", "created_at", "updated_at"}

	// contents joined with their item
	contentColumns = []string{
		"c.id", "c.module_id", `c."order"`,
		"i.id AS item_id", "i.owner_id AS item_owner_id", "i.kind AS item_kind", "i.title AS item_title",
		"i.content AS item_content", "i.url AS item_url", "i.file AS item_file",
		"i.created_at AS item_created_at", "i.updated_at AS item_updated_at",
	}
	contentFrom = contentTable + " c"
	contentJoin = itemTable + " i ON i.id = c.item_id"
)

type (
	courseRow struct {
		ID        string    `db:"id"`
		OwnerID   string    `db:"owner_id"`
		SubjectID string    `db:"subject_id"`
		Title     string    `db:"title"`
		Slug      string    `db:"slug"`
		Overview  string    `db:"overview"`
		CreatedAt time.Time `db:"created_at"`
	}

	moduleRow struct {
		ID          string `db:"id"`
		CourseID    string `db:"course_id"`
		Title       string `db:"title"`
		Description string `db:"description"`
		Order       int    `db:"order"`
	}

	itemRow struct {
		ID        string      `db:"id"`
		OwnerID   string      `db:"owner_id"`
		Kind      string      `db:"kind"`
		Title     string      `db:"title"`
		Content   null.String `db:"content"`
		URL       null.String `db:"url"`
		File      null.String `db:"file"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	contentRow struct {
		ID            string      `db:"id"`
		ModuleID      string      `db:"module_id"`
		Order         int         `db:"order"`
		ItemID        string      `db:"item_id"`
		ItemOwnerID   string      `db:"item_owner_id"`
		ItemKind      string      `db:"item_kind"`
		ItemTitle     string      `db:"item_title"`
		ItemContent   null.String `db:"item_content"`
		ItemURL       null.String `db:"item_url"`
		ItemFile      null.String `db:"item_file"`
		ItemCreatedAt time.Time   `db:"item_created_at"`
		ItemUpdatedAt time.Time   `db:"item_updated_at"`
	}
)

func (row courseRow) course() course.Course {
	c := course.Course(row)
	c.CreatedAt = c.CreatedAt.UTC()
	return c
}

func toItemRow(it course.Item) itemRow {
	return itemRow{
		ID:        it.ID,
		OwnerID:   it.OwnerID,
		Kind:      string(it.Kind),
		Title:     it.Title,
		Content:   null.NewString(it.Content, it.Content != ""),
		URL:       null.NewString(it.URL, it.URL != ""),
		File:      null.NewString(it.File, it.File != ""),
		CreatedAt: it.CreatedAt.UTC(),
		UpdatedAt: it.UpdatedAt.UTC(),
	}
}

func (row itemRow) item() course.Item {
	return course.Item{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Kind:      course.ItemKind(row.Kind),
		Title:     row.Title,
		Content:   row.Content.String,
		URL:       row.URL.String,
		File:      row.File.String,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (row contentRow) content() course.Content {
	return course.Content{
		ID:       row.ID,
		ModuleID: row.ModuleID,
		Order:    row.Order,
		Item: itemRow{
			ID:        row.ItemID,
			OwnerID:   row.ItemOwnerID,
			Kind:      row.ItemKind,
			Title:     row.ItemTitle,
			Content:   row.ItemContent,
			URL:       row.ItemURL,
			File:      row.ItemFile,
			CreatedAt: row.ItemCreatedAt,
			UpdatedAt: row.ItemUpdatedAt,
		}.item(),
	}
}

type courseRepository struct {
	repository
	moduleOrders  order.Store
	contentOrders order.Store
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{
		repository:    newRepository(db),
		moduleOrders:  NewOrderStore(db, moduleTable, course.ModuleScopeField),
		contentOrders: NewOrderStore(db, contentTable, course.ContentScopeField),
	}
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// Subjects

func (repo courseRepository) CreateSubject(ctx context.Context, sub course.Subject, exec ...core.DBExecutor) (course.Subject, error) {
	sub.ID = newID(sub.ID)
	q := repo.sb.Insert(subjectTable).Columns(subjectColumns...).Values(sub.ID, sub.Title, sub.Slug)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return course.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo courseRepository) CheckSubjectSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error {
	q := repo.sb.Select("id").From(subjectTable).Where(sq.Eq{"slug": slug}).Limit(1)
	exists, err := repo.exists(ctx, repo.getExec(exec), q)
	if err != nil {
		return errors.Wrap(err, "checking subject slug")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo courseRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]course.Subject, error) {
	subjects := make([]course.Subject, 0)
	q := repo.sb.Select(subjectColumns...).From(subjectTable).OrderBy("title")
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &subjects); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo courseRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (course.Subject, error) {
	var subjects []course.Subject
	q := repo.sb.Select(subjectColumns...).From(subjectTable).Where(sq.Eq{"id": id})
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &subjects); err != nil {
		return course.Subject{}, errors.Wrap(err, "finding subject")
	}
	if len(subjects) == 0 {
		return course.Subject{}, course.ErrSubjectNotFound
	}
	return subjects[0], nil
}

// Courses

func (repo courseRepository) CheckCourseSlugUniqueness(ctx context.Context, slug string, excludedIDs []string, exec ...core.DBExecutor) error {
	cond := sq.And{sq.Eq{"slug": slug}}
	if len(excludedIDs) > 0 {
		cond = append(cond, sq.NotEq{"id": excludedIDs})
	}

	q := repo.sb.Select("id").From(courseTable).Where(cond).Limit(1)
	exists, err := repo.exists(ctx, repo.getExec(exec), q)
	if err != nil {
		return errors.Wrap(err, "checking course slug")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	c.ID = newID(c.ID)
	c.CreatedAt = c.CreatedAt.UTC()
	q := repo.sb.Insert(courseTable).
		Columns(courseColumns...).
		Values(c.ID, c.OwnerID, c.SubjectID, c.Title, c.Slug, c.Overview, c.CreatedAt)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) QueryCourses(
	ctx context.Context,
	filter course.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]course.Course, error) {
	q := repo.sb.Select(courseColumns...).From(courseTable)
	if filter.OwnerID != "" {
		q = q.Where(sq.Eq{"owner_id": filter.OwnerID})
	}
	if filter.SubjectID != "" {
		q = q.Where(sq.Eq{"subject_id": filter.SubjectID})
	}
	// courses with Title or Overview matching the search keyword
	if filter.Search != "" {
		val := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where(sq.Or{sq.Like{"LOWER(title)": val}, sq.Like{"LOWER(overview)": val}})
	}
	for _, ord := range ordering {
		q = q.OrderBy(ord.String())
	}

	var rows []courseRow
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	var rows []courseRow
	q := repo.sb.Select(courseColumns...).From(courseTable).Where(sq.Eq{"id": id})
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &rows); err != nil {
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	if len(rows) == 0 {
		return course.Course{}, course.ErrCourseNotFound
	}
	return rows[0].course(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := repo.sb.Update(courseTable).
		SetMap(map[string]interface{}{
			"subject_id": c.SubjectID,
			"title":      c.Title,
			"slug":       c.Slug,
			"overview":   c.Overview,
		}).
		Where(sq.Eq{"id": c.ID})
	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n == 0 {
		return course.Course{}, course.ErrCourseNotFound
	}
	return c, nil
}

// DeleteCourse deletes the course, its modules and their contents by cascade.
func (repo courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, repo.getExec(exec), repo.sb.Delete(courseTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n == 0 {
		return course.ErrCourseNotFound
	}
	return nil
}

// Modules

func (repo courseRepository) ModuleOrders() order.Store {
	return repo.moduleOrders
}

func (repo courseRepository) CreateModule(ctx context.Context, m course.Module, exec ...core.DBExecutor) (course.Module, error) {
	m.ID = newID(m.ID)
	q := repo.sb.Insert(moduleTable).Columns(moduleColumns...).Values(m.ID, m.CourseID, m.Title, m.Description, m.Order)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return m, nil
}

func (repo courseRepository) queryModules(ctx context.Context, cond sq.Sqlizer, exec []core.DBExecutor) ([]course.Module, error) {
	var rows []moduleRow
	q := repo.sb.Select(moduleColumns...).From(moduleTable).Where(cond).OrderBy(`"order"`, "id")
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &rows); err != nil {
		return nil, err
	}
	modules := make([]course.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, course.Module(row))
	}
	return modules, nil
}

func (repo courseRepository) QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Module, error) {
	modules, err := repo.queryModules(ctx, sq.Eq{"course_id": courseID}, exec)
	return modules, errors.Wrap(err, "querying modules")
}

func (repo courseRepository) GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (course.Module, error) {
	modules, err := repo.queryModules(ctx, sq.Eq{"id": id}, exec)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "finding module")
	}
	if len(modules) == 0 {
		return course.Module{}, course.ErrModuleNotFound
	}
	return modules[0], nil
}

func (repo courseRepository) UpdateModule(ctx context.Context, m course.Module, exec ...core.DBExecutor) (course.Module, error) {
	q := repo.sb.Update(moduleTable).
		Set("title", m.Title).
		Set("description", m.Description).
		Set(`"order"`, m.Order).
		Where(sq.Eq{"id": m.ID})
	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "updating module")
	}
	if n == 0 {
		return course.Module{}, course.ErrModuleNotFound
	}
	return m, nil
}

// DeleteModules deletes the modules and their contents by cascade.
func (repo courseRepository) DeleteModules(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	_, err := repo.execute(ctx, repo.getExec(exec), repo.sb.Delete(moduleTable).Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting modules")
}

// Contents

func (repo courseRepository) ContentOrders() order.Store {
	return repo.contentOrders
}

func (repo courseRepository) CreateItem(ctx context.Context, it course.Item, exec ...core.DBExecutor) (course.Item, error) {
	it.ID = newID(it.ID)
	row := toItemRow(it)
	q := repo.sb.Insert(itemTable).
		Columns(itemColumns...).
		Values(row.ID, row.OwnerID, row.Kind, row.Title, row.Content, row.URL, row.File, row.CreatedAt, row.UpdatedAt)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return course.Item{}, errors.Wrap(err, "inserting item")
	}
	return row.item(), nil
}

func (repo courseRepository) GetItem(ctx context.Context, id string, exec ...core.DBExecutor) (course.Item, error) {
	var rows []itemRow
	q := repo.sb.Select(itemColumns...).From(itemTable).Where(sq.Eq{"id": id})
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &rows); err != nil {
		return course.Item{}, errors.Wrap(err, "finding item")
	}
	if len(rows) == 0 {
		return course.Item{}, course.ErrItemNotFound
	}
	return rows[0].item(), nil
}

func (repo courseRepository) UpdateItem(ctx context.Context, it course.Item, exec ...core.DBExecutor) (course.Item, error) {
	row := toItemRow(it)
	q := repo.sb.Update(itemTable).
		SetMap(map[string]interface{}{
			"title":      row.Title,
			"content":    row.Content,
			"url":        row.URL,
			"file":       row.File,
			"updated_at": row.UpdatedAt,
		}).
		Where(sq.Eq{"id": row.ID})
	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return course.Item{}, errors.Wrap(err, "updating item")
	}
	if n == 0 {
		return course.Item{}, course.ErrItemNotFound
	}
	return row.item(), nil
}

// DeleteItems deletes the items and their contents by cascade.
func (repo courseRepository) DeleteItems(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	_, err := repo.execute(ctx, repo.getExec(exec), repo.sb.Delete(itemTable).Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting items")
}

func (repo courseRepository) CreateContent(ctx context.Context, c course.Content, exec ...core.DBExecutor) (course.Content, error) {
	c.ID = newID(c.ID)
	q := repo.sb.Insert(contentTable).
		Columns("id", "module_id", "item_id", `"order"`).
		Values(c.ID, c.ModuleID, c.Item.ID, c.Order)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return course.Content{}, errors.Wrap(err, "inserting content")
	}
	return c, nil
}

func (repo courseRepository) queryContents(ctx context.Context, cond sq.Sqlizer, exec []core.DBExecutor) ([]course.Content, error) {
	var rows []contentRow
	q := repo.sb.Select(contentColumns...).
		From(contentFrom).
		Join(contentJoin).
		Where(cond).
		OrderBy("c.module_id", `c."order"`, "c.id")
	if err := repo.selectAll(ctx, repo.getExec(exec), q, &rows); err != nil {
		return nil, err
	}
	contents := make([]course.Content, 0, len(rows))
	for _, row := range rows {
		contents = append(contents, row.content())
	}
	return contents, nil
}

func (repo courseRepository) QueryContents(ctx context.Context, moduleIDs []string, exec ...core.DBExecutor) ([]course.Content, error) {
	contents, err := repo.queryContents(ctx, sq.Eq{"c.module_id": moduleIDs}, exec)
	return contents, errors.Wrap(err, "querying contents")
}

func (repo courseRepository) GetContent(ctx context.Context, id string, exec ...core.DBExecutor) (course.Content, error) {
	contents, err := repo.queryContents(ctx, sq.Eq{"c.id": id}, exec)
	if err != nil {
		return course.Content{}, errors.Wrap(err, "finding content")
	}
	if len(contents) == 0 {
		return course.Content{}, course.ErrContentNotFound
	}
	return contents[0], nil
}

func (repo courseRepository) UpdateContentOrder(ctx context.Context, id string, ord int, exec ...core.DBExecutor) error {
	q := repo.sb.Update(contentTable).Set(`"order"`, ord).Where(sq.Eq{"id": id})
	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return errors.Wrap(err, "updating content order")
	}
	if n == 0 {
		return course.ErrContentNotFound
	}
	return nil
}
