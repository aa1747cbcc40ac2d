package course

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/order"
)

var (
	// errors
	ErrSubjectNotFound = errors.New("subject not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrModuleNotFound  = errors.New("module not found")
	ErrContentNotFound = errors.New("content not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrSlugExists      = errors.New("an object with this slug already exists")
	ErrUnknownKind     = errors.New("unknown item kind")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		CheckSubjectSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error
		QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]Subject, error)
		GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)

		CheckCourseSlugUniqueness(ctx context.Context, slug string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		ModuleOrders() order.Store
		CreateModule(ctx context.Context, m Module, exec ...core.DBExecutor) (Module, error)
		QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Module, error)
		GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (Module, error)
		UpdateModule(ctx context.Context, m Module, exec ...core.DBExecutor) (Module, error)
		DeleteModules(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		ContentOrders() order.Store
		CreateItem(ctx context.Context, it Item, exec ...core.DBExecutor) (Item, error)
		GetItem(ctx context.Context, id string, exec ...core.DBExecutor) (Item, error)
		UpdateItem(ctx context.Context, it Item, exec ...core.DBExecutor) (Item, error)
		DeleteItems(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		CreateContent(ctx context.Context, c Content, exec ...core.DBExecutor) (Content, error)
		QueryContents(ctx context.Context, moduleIDs []string, exec ...core.DBExecutor) ([]Content, error)
		GetContent(ctx context.Context, id string, exec ...core.DBExecutor) (Content, error)
		UpdateContentOrder(ctx context.Context, id string, ord int, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB // nil when the repository is not transactional
		repo     Repository
		media    core.FileStorage
		modules  *order.Assigner
		contents *order.Assigner
	}
)

func NewService(db core.DB, repo Repository, media core.FileStorage) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		media:    media,
		modules:  order.NewAssigner(repo.ModuleOrders()),
		contents: order.NewAssigner(repo.ContentOrders()),
	}
}

// inTx runs fn inside a DB transaction, committed when fn succeeds.
func (svc *Service) inTx(ctx context.Context, fn func(exec ...core.DBExecutor) error) error {
	if svc.db == nil {
		return fn()
	}
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func fieldError(err error, field string) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// Subjects

func (svc *Service) checkSubjectSlug(ctx context.Context, slug string) error {
	if err := svc.repo.CheckSubjectSlugUniqueness(ctx, slug); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return fieldError(err, "slug")
		}
		return errors.Wrap(err, "checking subject slug uniqueness")
	}
	return nil
}

func (svc *Service) checkSubject(ctx context.Context, id string) error {
	if _, err := svc.repo.GetSubject(ctx, id); err != nil {
		if errors.Cause(err) == ErrSubjectNotFound {
			return fieldError(err, "subject_id")
		}
		return errors.Wrap(err, "getting subject")
	}
	return nil
}

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	return svc.repo.CreateSubject(ctx, Subject{Title: ns.Title, Slug: ns.Slug})
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

// Courses

func (svc *Service) checkCourseSlug(ctx context.Context, slug string, excludedIDs ...string) error {
	if err := svc.repo.CheckCourseSlugUniqueness(ctx, slug, excludedIDs); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return fieldError(err, "slug")
		}
		return errors.Wrap(err, "checking course slug uniqueness")
	}
	return nil
}

func (svc *Service) CreateCourse(ctx context.Context, ownerID string, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{
		OwnerID:   ownerID,
		SubjectID: nc.SubjectID,
		Title:     nc.Title,
		Slug:      nc.Slug,
		Overview:  nc.Overview,
		CreatedAt: time.Now().UTC(),
	})
}

// QueryCourses returns the courses matching filter, newest first unless ordering says otherwise.
func (svc *Service) QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	filter.Clean()
	ordering = core.CleanOrderings(ordering, CourseOrderingFields...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) UpdateCourse(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	c.SubjectID = uc.SubjectID
	c.Title = uc.Title
	c.Slug = uc.Slug
	if uc.Overview != nil {
		c.Overview = *uc.Overview
	}
	return svc.repo.UpdateCourse(ctx, c)
}

// DeleteCourse deletes the course with its modules, contents & items, then the items' files.
func (svc *Service) DeleteCourse(ctx context.Context, c Course) error {
	var files []string
	err := svc.inTx(ctx, func(exec ...core.DBExecutor) error {
		modules, err := svc.repo.QueryModules(ctx, c.ID, exec...)
		if err != nil {
			return errors.Wrap(err, "querying modules")
		}
		moduleIDs := make([]string, 0, len(modules))
		for _, m := range modules {
			moduleIDs = append(moduleIDs, m.ID)
		}
		if files, err = svc.deleteModuleItems(ctx, moduleIDs, exec...); err != nil {
			return err
		}
		return svc.repo.DeleteCourse(ctx, c.ID, exec...)
	})
	if err != nil {
		return err
	}
	return svc.deleteFiles(ctx, files...)
}

// deleteModuleItems deletes the items of the modules' contents and returns their files.
func (svc *Service) deleteModuleItems(ctx context.Context, moduleIDs []string, exec ...core.DBExecutor) ([]string, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	contents, err := svc.repo.QueryContents(ctx, moduleIDs, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "querying contents")
	}
	var (
		itemIDs = make([]string, 0, len(contents))
		files   []string
	)
	for _, cnt := range contents {
		itemIDs = append(itemIDs, cnt.Item.ID)
		if cnt.Item.File != "" {
			files = append(files, cnt.Item.File)
		}
	}
	if len(itemIDs) > 0 {
		if err = svc.repo.DeleteItems(ctx, itemIDs, exec...); err != nil {
			return nil, errors.Wrap(err, "deleting items")
		}
	}
	return files, nil
}

// Modules

func (svc *Service) QueryModules(ctx context.Context, c Course) ([]Module, error) {
	return svc.repo.QueryModules(ctx, c.ID)
}

// CreateModule adds a module to the course, after its last module unless nm.Order is set.
func (svc *Service) CreateModule(ctx context.Context, c Course, nm NewModule) (Module, error) {
	return svc.createModule(ctx, c, nm)
}

func (svc *Service) createModule(ctx context.Context, c Course, nm NewModule, exec ...core.DBExecutor) (Module, error) {
	ord, err := svc.modules.Assign(ctx, ModuleScope(c.ID), nm.Order, exec...)
	if err != nil {
		return Module{}, errors.Wrap(err, "assigning module order")
	}
	return svc.repo.CreateModule(ctx, Module{
		CourseID:    c.ID,
		Title:       nm.Title,
		Description: nm.Description,
		Order:       ord,
	}, exec...)
}

func (svc *Service) GetModule(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModule(ctx, id)
}

// UpdateModules saves a course modules formset in a single transaction:
// updates & deletions are applied before the new modules are created.
// It returns the course's modules afterwards.
func (svc *Service) UpdateModules(ctx context.Context, c Course, forms []ModuleForm) ([]Module, error) {
	var files []string
	err := svc.inTx(ctx, func(exec ...core.DBExecutor) error {
		var (
			deleted []string
			created []NewModule
		)
		for i, form := range forms {
			if form.ID == "" {
				if !form.Delete {
					created = append(created, form.newModule())
				}
				continue
			}
			m, err := svc.repo.GetModule(ctx, form.ID, exec...)
			if err != nil || m.CourseID != c.ID {
				if err == nil || errors.Cause(err) == ErrModuleNotFound {
					return fieldError(ErrModuleNotFound, fmt.Sprintf("forms[%d].id", i))
				}
				return errors.Wrap(err, "getting module")
			}
			if form.Delete {
				deleted = append(deleted, m.ID)
				continue
			}
			m.Title = form.Title
			m.Description = form.Description
			if form.Order.Valid {
				m.Order = form.Order.Int
			}
			if _, err = svc.repo.UpdateModule(ctx, m, exec...); err != nil {
				return errors.Wrap(err, "updating module")
			}
		}

		if len(deleted) > 0 {
			var err error
			if files, err = svc.deleteModuleItems(ctx, deleted, exec...); err != nil {
				return err
			}
			if err = svc.repo.DeleteModules(ctx, deleted, exec...); err != nil {
				return errors.Wrap(err, "deleting modules")
			}
		}
		for _, nm := range created {
			if _, err := svc.createModule(ctx, c, nm, exec...); err != nil {
				return errors.Wrap(err, "creating module")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err = svc.deleteFiles(ctx, files...); err != nil {
		return nil, err
	}
	return svc.repo.QueryModules(ctx, c.ID)
}

// ReorderModules sets the order of the course's modules. IDs of other courses' modules are ignored.
func (svc *Service) ReorderModules(ctx context.Context, c Course, reorder Reorder) error {
	if err := reorder.check(); err != nil {
		return err
	}
	return svc.inTx(ctx, func(exec ...core.DBExecutor) error {
		for id, ord := range reorder {
			m, err := svc.repo.GetModule(ctx, id, exec...)
			if err != nil {
				if errors.Cause(err) == ErrModuleNotFound {
					continue
				}
				return errors.Wrap(err, "getting module")
			}
			if m.CourseID != c.ID {
				continue
			}
			m.Order = ord
			if _, err = svc.repo.UpdateModule(ctx, m, exec...); err != nil {
				return errors.Wrap(err, "updating module")
			}
		}
		return nil
	})
}

func (r Reorder) check() error {
	for id, ord := range r {
		if ord < 0 {
			return core.NewValidationError(nil, core.FieldError{Field: id, Error: "order must be 0 or greater"})
		}
	}
	return nil
}

// Contents

func (svc *Service) QueryContents(ctx context.Context, m Module) ([]Content, error) {
	return svc.repo.QueryContents(ctx, []string{m.ID})
}

// CreateContent creates an item of ni.Kind owned by ownerID and appends it to the module's contents.
func (svc *Service) CreateContent(ctx context.Context, ownerID string, m Module, ni NewItem) (Content, error) {
	if _, err := ParseKind(string(ni.Kind)); err != nil {
		return Content{}, err
	}
	now := time.Now().UTC()
	it := Item{
		OwnerID:   ownerID,
		Kind:      ni.Kind,
		Title:     ni.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	setItemPayload(&it, ni)

	var cnt Content
	err := svc.inTx(ctx, func(exec ...core.DBExecutor) error {
		created, err := svc.repo.CreateItem(ctx, it, exec...)
		if err != nil {
			return errors.Wrap(err, "creating item")
		}
		ord, err := svc.contents.Assign(ctx, ContentScope(m.ID), null.Int{}, exec...)
		if err != nil {
			return errors.Wrap(err, "assigning content order")
		}
		cnt, err = svc.repo.CreateContent(ctx, Content{ModuleID: m.ID, Item: created, Order: ord}, exec...)
		return errors.Wrap(err, "creating content")
	})
	return cnt, err
}

func (svc *Service) GetContent(ctx context.Context, id string) (Content, error) {
	return svc.repo.GetContent(ctx, id)
}

func (svc *Service) GetItem(ctx context.Context, id string) (Item, error) {
	return svc.repo.GetItem(ctx, id)
}

// UpdateItem updates the item with ni, whose Kind must match the item's.
// A replaced file is deleted from the media storage, so ni.File must hold
// the current path when no new file was uploaded.
func (svc *Service) UpdateItem(ctx context.Context, it Item, ni NewItem) (Item, error) {
	if ni.Kind != it.Kind {
		return Item{}, ErrItemNotFound
	}
	oldFile := it.File
	it.Title = ni.Title
	it.UpdatedAt = time.Now().UTC()
	setItemPayload(&it, ni)

	it, err := svc.repo.UpdateItem(ctx, it)
	if err != nil {
		return Item{}, err
	}
	if oldFile != "" && oldFile != it.File {
		if err = svc.deleteFiles(ctx, oldFile); err != nil {
			return Item{}, err
		}
	}
	return it, nil
}

// DeleteContent deletes the content, its item and the item's file.
func (svc *Service) DeleteContent(ctx context.Context, cnt Content) error {
	if err := svc.repo.DeleteItems(ctx, []string{cnt.Item.ID}); err != nil {
		return errors.Wrap(err, "deleting item")
	}
	if cnt.Item.File != "" {
		return svc.deleteFiles(ctx, cnt.Item.File)
	}
	return nil
}

// ReorderContents sets the order of the module's contents. IDs of other modules' contents are ignored.
func (svc *Service) ReorderContents(ctx context.Context, m Module, reorder Reorder) error {
	if err := reorder.check(); err != nil {
		return err
	}
	return svc.inTx(ctx, func(exec ...core.DBExecutor) error {
		for id, ord := range reorder {
			cnt, err := svc.repo.GetContent(ctx, id, exec...)
			if err != nil {
				if errors.Cause(err) == ErrContentNotFound {
					continue
				}
				return errors.Wrap(err, "getting content")
			}
			if cnt.ModuleID != m.ID {
				continue
			}
			if err = svc.repo.UpdateContentOrder(ctx, cnt.ID, ord, exec...); err != nil {
				return errors.Wrap(err, "updating content order")
			}
		}
		return nil
	})
}

// Media

// SaveFile stores an uploaded item file and returns its path.
func (svc *Service) SaveFile(ctx context.Context, filename string, fileReader io.Reader) (string, error) {
	path, err := svc.media.Save(ctx, filename, fileReader)
	return path, errors.Wrap(err, "saving file")
}

func (svc *Service) FileURL(path string) string {
	if path == "" {
		return ""
	}
	return svc.media.URL(path)
}

func (svc *Service) deleteFiles(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		if err := svc.media.Delete(ctx, path); err != nil {
			return errors.Wrapf(err, "deleting file %q", path)
		}
	}
	return nil
}

func setItemPayload(it *Item, ni NewItem) {
	it.Content, it.URL, it.File = "", "", ""
	switch it.Kind {
	case KindText:
		it.Content = ni.Content
	case KindVideo:
		it.URL = ni.URL
	case KindImage, KindFile:
		it.File = ni.File
	}
}
