package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/user"
)

// Context keys of the objects loaded by the detail middlewares.
const (
	courseContextKey  = "course"
	moduleContextKey  = "module"
	contentContextKey = "content"
)

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

// userMiddleware loads the authenticated user into the context. Deactivated users are rejected.
func userMiddleware(auth authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := auth.contextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(userContextKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if usr.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func permissionMiddleware(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if usr.HasPermission(perm) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ownedCourse returns the course `id` when it is owned by the context user.
func ownedCourse(ctx echo.Context, svc *course.Service, id string) (course.Course, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return course.Course{}, err
	}
	c, err := svc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == course.ErrCourseNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	if c.OwnerID != usr.ID {
		return course.Course{}, errHttpNotFound
	}
	return c, nil
}

// courseMiddleware sets the course of the `param` path param, owned by the context user.
func courseMiddleware(svc *course.Service, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			c, err := ownedCourse(ctx, svc, ctx.Param(param))
			if err != nil {
				return err
			}
			ctx.Set(courseContextKey, c)
			return next(ctx)
		}
	}
}

// moduleMiddleware sets the module of the `param` path param, whose course is owned by the context user.
func moduleMiddleware(svc *course.Service, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			m, err := svc.GetModule(ctx.Request().Context(), ctx.Param(param))
			if err != nil {
				if errors.Cause(err) == course.ErrModuleNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding module by ID")
			}
			c, err := ownedCourse(ctx, svc, m.CourseID)
			if err != nil {
				return err
			}
			ctx.Set(courseContextKey, c)
			ctx.Set(moduleContextKey, m)
			return next(ctx)
		}
	}
}

// contentMiddleware sets the content of the `param` path param, whose module's course is owned by the context user.
func contentMiddleware(svc *course.Service, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			reqCtx := ctx.Request().Context()
			cnt, err := svc.GetContent(reqCtx, ctx.Param(param))
			if err != nil {
				if errors.Cause(err) == course.ErrContentNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding content by ID")
			}
			m, err := svc.GetModule(reqCtx, cnt.ModuleID)
			if err != nil {
				return errors.Wrap(err, "finding content module")
			}
			if _, err = ownedCourse(ctx, svc, m.CourseID); err != nil {
				return err
			}
			ctx.Set(moduleContextKey, m)
			ctx.Set(contentContextKey, cnt)
			return next(ctx)
		}
	}
}

func contextCourse(ctx echo.Context) (course.Course, error) {
	if c, ok := ctx.Get(courseContextKey).(course.Course); ok {
		return c, nil
	}
	return course.Course{}, errors.Wrap(errObjNotFoundInCtx, "retrieving course from context")
}

func contextModule(ctx echo.Context) (course.Module, error) {
	if m, ok := ctx.Get(moduleContextKey).(course.Module); ok {
		return m, nil
	}
	return course.Module{}, errors.Wrap(errObjNotFoundInCtx, "retrieving module from context")
}

func contextContent(ctx echo.Context) (course.Content, error) {
	if cnt, ok := ctx.Get(contentContextKey).(course.Content); ok {
		return cnt, nil
	}
	return course.Content{}, errors.Wrap(errObjNotFoundInCtx, "retrieving content from context")
}
