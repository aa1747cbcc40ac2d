package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/order"
)

// ItemKind is the type of an Item's payload.
type ItemKind string

const (
	KindText  ItemKind = "text"
	KindVideo ItemKind = "video"
	KindImage ItemKind = "image"
	KindFile  ItemKind = "file"
)

var ItemKinds = []ItemKind{KindText, KindVideo, KindImage, KindFile}

// ParseKind returns the ItemKind named s.
func ParseKind(s string) (ItemKind, error) {
	for _, kind := range ItemKinds {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", ErrUnknownKind
}

// HasFile reports whether items of this kind carry an uploaded file.
func (k ItemKind) HasFile() bool {
	return k == KindImage || k == KindFile
}

// Fields the modules and contents are ordered within.
const (
	ModuleScopeField  = "course_id"
	ContentScopeField = "module_id"
)

// CourseOrderingFields are the fields courses can be sorted by.
var CourseOrderingFields = []string{"title", "created_at"}

func ModuleScope(courseID string) order.Scope {
	return order.NewScope(order.Field{Name: ModuleScopeField, Value: courseID})
}

func ContentScope(moduleID string) order.Scope {
	return order.NewScope(order.Field{Name: ContentScopeField, Value: moduleID})
}

type Subject struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type Course struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	SubjectID string    `json:"subject_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Overview  string    `json:"overview"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Module struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

func (m Module) OrderScope() order.Scope {
	return ModuleScope(m.CourseID)
}

// Item is the payload of a Content. Only the field matching its Kind is set:
// Content for text, URL for video and File for image & file items.
type Item struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Kind      ItemKind  `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	URL       string    `json:"url,omitempty"`
	File      string    `json:"file,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Content struct {
	ID       string `json:"id"`
	ModuleID string `json:"module_id"`
	Order    int    `json:"order"`
	Item     Item   `json:"item"`
}

func (c Content) OrderScope() order.Scope {
	return ContentScope(c.ModuleID)
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Title string `json:"title" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Slug = core.CleanString(ns.Slug)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkSubjectSlug(ctx, ns.Slug)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	Slug      string `json:"slug" validate:"required,max=200,slug"`
	Overview  string `json:"overview"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.SubjectID = core.CleanString(nc.SubjectID)
	nc.Title = core.CleanString(nc.Title)
	nc.Slug = core.CleanString(nc.Slug)
	nc.Overview = core.CleanString(nc.Overview)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if err := svc.checkSubject(ctx, nc.SubjectID); err != nil {
		return err
	}
	return svc.checkCourseSlug(ctx, nc.Slug)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Blank fields keep their current value.
type UpdateCourse struct {
	SubjectID string  `json:"subject_id"`
	Title     string  `json:"title" validate:"max=200"`
	Slug      string  `json:"slug" validate:"max=200,slug"`
	Overview  *string `json:"overview"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, orig Course, validate *validator.Validate, svc *Service) error {
	if id := core.CleanString(uc.SubjectID); id != "" {
		uc.SubjectID = id
	} else {
		uc.SubjectID = orig.SubjectID
	}
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if slug := core.CleanString(uc.Slug); slug != "" {
		uc.Slug = slug
	} else {
		uc.Slug = orig.Slug
	}
	if uc.Overview != nil {
		overview := core.CleanString(*uc.Overview)
		uc.Overview = &overview
	} else {
		uc.Overview = &orig.Overview
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.SubjectID != orig.SubjectID {
		if err := svc.checkSubject(ctx, uc.SubjectID); err != nil {
			return err
		}
	}
	return svc.checkCourseSlug(ctx, uc.Slug, orig.ID)
}

// NewModule contains information needed to create a new Module.
// Order is assigned after the last module of the course when null.
type NewModule struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description"`
	Order       null.Int `json:"order" validate:"omitempty,min=0"`
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

// ModuleForm is one entry of a course modules formset:
// no ID creates a Module, an ID updates it, or deletes it along with Delete.
type ModuleForm struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Order       null.Int `json:"order"`
	Delete      bool     `json:"delete"`
}

func (mf ModuleForm) newModule() NewModule {
	return NewModule{Title: mf.Title, Description: mf.Description, Order: mf.Order}
}

// ModuleFormset is the payload of a course modules formset.
type ModuleFormset struct {
	Forms []ModuleForm `json:"forms" validate:"dive"`
}

func (fs *ModuleFormset) Validate(validate *validator.Validate) error {
	for i := range fs.Forms {
		fs.Forms[i].ID = core.CleanString(fs.Forms[i].ID)
		fs.Forms[i].Title = core.CleanString(fs.Forms[i].Title)
		fs.Forms[i].Description = core.CleanString(fs.Forms[i].Description)
	}
	return validate.Struct(fs)
}

// NewItem contains information needed to create or update an Item of a given Kind.
type NewItem struct {
	Kind    ItemKind `json:"-"`
	Title   string   `json:"title" form:"title" validate:"required,max=250"`
	Content string   `json:"content" form:"content"`
	URL     string   `json:"url" form:"url" validate:"omitempty,url"`
	File    string   `json:"-" form:"-"` // path of the uploaded file
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Title = core.CleanString(ni.Title)
	ni.URL = core.CleanString(ni.URL)
	return validate.Struct(ni)
}

// Reorder maps Module or Content IDs to their new order.
type Reorder map[string]int

type QueryFilter struct {
	OwnerID   string `query:"-"`
	SubjectID string `query:"subject"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.SubjectID = core.CleanString(qf.SubjectID)
	qf.Search = core.CleanString(qf.Search)
}
