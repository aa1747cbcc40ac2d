package echoapi

import (
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/course"
)

const (
	fileField       = "file"
	errFileTooLarge = "file too large"
)

type contentApi struct {
	svc           *course.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerContentAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *course.Service,
	validate *validator.Validate,
	maxUploadSize int64,
) {
	api := contentApi{
		svc:           svc,
		validate:      validate,
		maxUploadSize: maxUploadSize,
	}

	mws := append(authed[:len(authed):len(authed)], moduleMiddleware(svc, "module_id"))
	mg := g.Group("/modules/:module_id/contents", mws...)
	mg.GET("", api.query)
	mg.POST("/order", api.reorder)
	mg.POST("/:kind", api.create)
	mg.PUT("/:kind/:id", api.update)

	mws = append(authed[:len(authed):len(authed)], contentMiddleware(svc, "id"))
	cg := g.Group("/contents/:id", mws...)
	cg.DELETE("", api.destroy)
}

// Handlers

func (api *contentApi) query(ctx echo.Context) error {
	m, err := contextModule(ctx)
	if err != nil {
		return err
	}
	contents, err := api.svc.QueryContents(ctx.Request().Context(), m)
	if err != nil {
		return errors.Wrap(err, "querying contents")
	}
	resp := make([]contentResponse, 0, len(contents))
	for _, cnt := range contents {
		resp = append(resp, api.contentResponse(cnt))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *contentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	m, err := contextModule(ctx)
	if err != nil {
		return err
	}
	kind, err := course.ParseKind(ctx.Param("kind"))
	if err != nil {
		return err
	}

	data, fh, err := api.bindItem(ctx, kind)
	if err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if fh != nil {
		if data.File, err = api.saveFile(ctx, fh); err != nil {
			return err
		}
	}

	cnt, err := api.svc.CreateContent(reqCtx, usr.ID, m, data)
	if err != nil {
		return errors.Wrap(err, "creating content")
	}
	return ctx.JSON(http.StatusCreated, api.contentResponse(cnt))
}

// update updates the item `id`, which must be owned by the context user.
// Image & file items keep their current file when none is uploaded.
func (api *contentApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	kind, err := course.ParseKind(ctx.Param("kind"))
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	it, err := api.svc.GetItem(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding item by ID")
	}
	if it.OwnerID != usr.ID || it.Kind != kind {
		return errHttpNotFound
	}

	data, fh, err := api.bindItem(ctx, kind)
	if err != nil {
		return err
	}
	if fh == nil {
		data.File = it.File
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if fh != nil {
		if data.File, err = api.saveFile(ctx, fh); err != nil {
			return err
		}
	}

	it, err = api.svc.UpdateItem(reqCtx, it, data)
	if err != nil {
		return errors.Wrap(err, "updating item")
	}
	return ctx.JSON(http.StatusOK, api.itemResponse(it))
}

func (api *contentApi) destroy(ctx echo.Context) error {
	cnt, err := contextContent(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteContent(ctx.Request().Context(), cnt); err != nil {
		return errors.Wrap(err, "deleting content")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) reorder(ctx echo.Context) error {
	m, err := contextModule(ctx)
	if err != nil {
		return err
	}
	var data course.Reorder
	if err = bindJSON(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to Reorder")
	}

	if err = api.svc.ReorderContents(ctx.Request().Context(), m, data); err != nil {
		return errors.Wrap(err, "reordering contents")
	}
	return ctx.JSON(http.StatusOK, SavedResponse{Saved: "OK"})
}

// bindItem binds a JSON or multipart NewItem of kind. The uploaded file header
// is returned for the kinds carrying a file, and its name set as data.File
// until the file is saved.
func (api *contentApi) bindItem(ctx echo.Context, kind course.ItemKind) (course.NewItem, *multipart.FileHeader, error) {
	var data course.NewItem
	if err := ctx.Bind(&data); err != nil {
		return course.NewItem{}, nil, errors.Wrap(err, "binding to NewItem")
	}
	data.Kind = kind
	if !kind.HasFile() {
		return data, nil, nil
	}

	fh, err := ctx.FormFile(fileField)
	if err != nil { // no file uploaded
		return data, nil, nil
	}
	if api.maxUploadSize > 0 && fh.Size > api.maxUploadSize {
		return course.NewItem{}, nil, core.NewValidationError(nil, core.FieldError{Field: fileField, Error: errFileTooLarge})
	}
	data.File = fh.Filename
	return data, fh, nil
}

func (api *contentApi) saveFile(ctx echo.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()
	return api.svc.SaveFile(ctx.Request().Context(), fh.Filename, f)
}

type (
	itemResponse struct {
		course.Item
		FileURL string `json:"file_url,omitempty"`
	}

	contentResponse struct {
		course.Content
		Item itemResponse `json:"item"`
	}
)

func (api *contentApi) itemResponse(it course.Item) itemResponse {
	return itemResponse{Item: it, FileURL: api.svc.FileURL(it.File)}
}

func (api *contentApi) contentResponse(cnt course.Content) contentResponse {
	return contentResponse{Content: cnt, Item: api.itemResponse(cnt.Item)}
}
