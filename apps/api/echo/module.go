package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educa/core/course"
)

type moduleApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerModuleAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *course.Service, validate *validator.Validate) {
	api := moduleApi{
		svc:      svc,
		validate: validate,
	}

	mws := append(authed[:len(authed):len(authed)], courseMiddleware(svc, "id"))
	mg := g.Group("/courses/:id/modules", mws...)
	mg.GET("", api.query)
	mg.PUT("", api.updateFormset)
	mg.POST("", api.create)
	mg.POST("/order", api.reorder)
}

// Handlers

func (api *moduleApi) query(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	modules, err := api.svc.QueryModules(ctx.Request().Context(), c)
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	if modules == nil {
		modules = []course.Module{}
	}
	return ctx.JSON(http.StatusOK, modules)
}

func (api *moduleApi) create(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.NewModule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.CreateModule(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, m)
}

// updateFormset creates, updates and deletes the course modules in one go,
// then returns all of them.
func (api *moduleApi) updateFormset(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.ModuleFormset
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleFormset")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	modules, err := api.svc.UpdateModules(ctx.Request().Context(), c, data.Forms)
	if err != nil {
		return errors.Wrap(err, "updating modules")
	}
	if modules == nil {
		modules = []course.Module{}
	}
	return ctx.JSON(http.StatusOK, modules)
}

func (api *moduleApi) reorder(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.Reorder
	if err = bindJSON(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to Reorder")
	}

	if err = api.svc.ReorderModules(ctx.Request().Context(), c, data); err != nil {
		return errors.Wrap(err, "reordering modules")
	}
	return ctx.JSON(http.StatusOK, SavedResponse{Saved: "OK"})
}

type SavedResponse struct {
	Saved string `json:"saved"`
}
