package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
	exportsvc "github.com/trezcool/raport/services/export"
)

const uploadField = "file"

type gradebookApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerGradebookAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service, validate *validator.Validate) {
	api := gradebookApi{svc: svc, validate: validate}

	gg := g.Group("/gradebook", jwt, roleMiddleware(core.RoleTeacher))
	gg.GET("", api.sheet)
	gg.PUT("", api.save)
	gg.POST("/paste", api.paste)
	gg.POST("/upload", api.upload)
}

// Handlers

func (api *gradebookApi) sheet(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	sheet, err := api.svc.GradeSheet(ctx.Request().Context(), actor.Class, actor.Subject)
	if err != nil {
		return errors.Wrap(err, "getting grade sheet")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *gradebookApi) save(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data school.GradeEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.SaveGrades(ctx.Request().Context(), target(actor, data.KKM), data.Scores); err != nil {
		return errors.Wrap(err, "saving grades")
	}
	return api.sheet(ctx)
}

func (api *gradebookApi) paste(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data PasteGradesRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasteGradesRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.PasteGrades(ctx.Request().Context(), target(actor, data.KKM), data.Text)
	if err != nil {
		return errors.Wrap(err, "pasting grades")
	}
	return ctx.JSON(http.StatusOK, res)
}

// upload reads the "nama" and "nilai" columns of a .csv or .xlsx file.
// The KKM form value defaults to the current KKM of the class subject.
func (api *gradebookApi) upload(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	kkm, err := api.formKKM(ctx, actor)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: uploadField, Error: "a .csv or .xlsx file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	rows, err := exportsvc.ReadGradeRows(f, fh.Filename)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: uploadField, Error: err.Error()})
	}

	res, err := api.svc.ApplyGradeRows(ctx.Request().Context(), target(actor, kkm), rows)
	if err != nil {
		return errors.Wrap(err, "applying uploaded grades")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *gradebookApi) formKKM(ctx echo.Context, actor core.Actor) (int, error) {
	val := ctx.FormValue("kkm")
	if val == "" {
		kkm, err := api.svc.KKMFor(ctx.Request().Context(), actor.Class, actor.Subject)
		return kkm, errors.Wrap(err, "getting KKM")
	}
	kkm, err := strconv.Atoi(val)
	if err != nil || !core.IsScore(kkm) {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "kkm", Error: school.ErrInvalidScore.Error()})
	}
	return kkm, nil
}

func target(actor core.Actor, kkm int) school.GradeTarget {
	return school.GradeTarget{Class: actor.Class, Subject: actor.Subject, Teacher: actor.Teacher, KKM: kkm}
}

// PasteGradesRequest holds pasted "Name<TAB>Score" lines.
type PasteGradesRequest struct {
	KKM  int    `json:"kkm" validate:"score"`
	Text string `json:"text" validate:"notblank"`
}
