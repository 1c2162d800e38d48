package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, validate: validate}

	ag := g.Group("", jwt, roleMiddleware(core.RoleAdmin))

	ag.GET("/school", api.retrieveInfo)
	ag.PUT("/school", api.updateInfo)
	ag.GET("/dashboard", api.dashboard)
	ag.GET("/monitoring", api.monitoring)

	// catalogs
	ag.GET("/classes", api.listCatalog(svc.Classes))
	ag.POST("/classes", api.addToCatalog(svc.AddClasses))
	ag.GET("/subjects", api.listCatalog(svc.Subjects))
	ag.POST("/subjects", api.addToCatalog(svc.AddSubjects))
	ag.GET("/teachers", api.listCatalog(svc.Teachers))
	ag.POST("/teachers", api.addToCatalog(svc.AddTeachers))

	ag.GET("/classes/:class/subjects", api.classSubjects)
	ag.PUT("/classes/:class/subjects", api.setClassSubjects)
	ag.PUT("/classes/:class/homeroom", api.setHomeroom)
	ag.GET("/homerooms", api.homerooms)

	// students
	sg := ag.Group("/students")
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent)
	sg.POST("/import", api.importStudents)
	sg.PUT("/:id/class", api.moveStudent)
}

// Handlers

func (api *schoolApi) retrieveInfo(ctx echo.Context) error {
	info, err := api.svc.Info(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting school info")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *schoolApi) updateInfo(ctx echo.Context) error {
	var data school.Info
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Info")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	info, err := api.svc.UpdateInfo(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating school info")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *schoolApi) dashboard(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *schoolApi) monitoring(ctx echo.Context) error {
	mon, err := api.svc.Monitoring(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting monitoring")
	}
	return ctx.JSON(http.StatusOK, mon)
}

func (api *schoolApi) listCatalog(list func(ctx context.Context) ([]string, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		names, err := list(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "listing catalog")
		}
		return ctx.JSON(http.StatusOK, nonNil(names))
	}
}

func (api *schoolApi) addToCatalog(add func(ctx context.Context, text string) ([]string, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data CatalogRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to CatalogRequest")
		}
		if err := api.validate.Struct(data); err != nil {
			return err
		}

		names, err := add(ctx.Request().Context(), data.Names)
		if err != nil {
			return errors.Wrap(err, "adding to catalog")
		}
		return ctx.JSON(http.StatusCreated, nonNil(names))
	}
}

func (api *schoolApi) classSubjects(ctx echo.Context) error {
	class := ctx.Param("class")
	if err := api.requireClass(ctx, class); err != nil {
		return err
	}
	subjects, err := api.svc.SubjectsForClass(ctx.Request().Context(), class)
	if err != nil {
		return errors.Wrap(err, "getting class subjects")
	}
	return ctx.JSON(http.StatusOK, nonNil(subjects))
}

func (api *schoolApi) setClassSubjects(ctx echo.Context) error {
	var data ClassSubjectsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassSubjectsRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	subjects, err := api.svc.SetClassSubjects(ctx.Request().Context(), ctx.Param("class"), data.Subjects)
	if err != nil {
		return errors.Wrap(err, "setting class subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) setHomeroom(ctx echo.Context) error {
	var data HomeroomRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to HomeroomRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	hr := school.Homeroom{Class: ctx.Param("class"), Teacher: core.CleanString(data.Teacher)}
	if err := api.svc.SetHomeroom(ctx.Request().Context(), hr); err != nil {
		return errors.Wrap(err, "setting homeroom")
	}
	return ctx.JSON(http.StatusOK, hr)
}

func (api *schoolApi) homerooms(ctx echo.Context) error {
	hrs, err := api.svc.Homerooms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing homerooms")
	}
	if hrs == nil {
		hrs = []school.Homeroom{}
	}
	return ctx.JSON(http.StatusOK, hrs)
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	var filter school.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolApi) importStudents(ctx echo.Context) error {
	var data ImportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImportRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	n, err := api.svc.ImportStudents(ctx.Request().Context(), data.Text)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusCreated, ImportResponse{Created: n})
}

func (api *schoolApi) moveStudent(ctx echo.Context) error {
	var data MoveStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveStudentRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	s, err := api.svc.MoveStudent(ctx.Request().Context(), ctx.Param("id"), core.CleanString(data.Class))
	if err != nil {
		return errors.Wrap(err, "moving student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolApi) requireClass(ctx echo.Context, class string) error {
	ok, err := api.svc.HasClass(ctx.Request().Context(), class)
	if err != nil {
		return errors.Wrap(err, "checking class")
	}
	if !ok {
		return errHttpNotFound
	}
	return nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

type (
	// CatalogRequest holds one catalog entry per line.
	CatalogRequest struct {
		Names string `json:"names" validate:"notblank"`
	}

	ClassSubjectsRequest struct {
		Subjects []string `json:"subjects" validate:"required"`
	}

	HomeroomRequest struct {
		Teacher string `json:"teacher" validate:"notblank"`
	}

	// ImportRequest holds pasted "Kelas, Nama, NIPD, JK, NISN" roster lines.
	ImportRequest struct {
		Text string `json:"text" validate:"notblank"`
	}

	ImportResponse struct {
		Created int `json:"created"`
	}

	MoveStudentRequest struct {
		Class string `json:"class" validate:"notblank"`
	}
)
