package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/raport"
	"github.com/trezcool/raport/core/school"
)

type homeroomApi struct {
	schoolSvc *school.Service
	raportSvc *raport.Service
	validate  *validator.Validate
}

func registerHomeroomAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	schoolSvc *school.Service,
	raportSvc *raport.Service,
	validate *validator.Validate,
) {
	api := homeroomApi{
		schoolSvc: schoolSvc,
		raportSvc: raportSvc,
		validate:  validate,
	}

	hg := g.Group("/homeroom", jwt, roleMiddleware(core.RoleHomeroom))
	hg.GET("/non-academic", api.nonAcademic)
	hg.PUT("/non-academic", api.saveNonAcademic)
	hg.GET("/ranking", api.ranking)
	hg.GET("/leger", api.leger)
	hg.GET("/leger.xlsx", api.legerWorkbook)

	rg := hg.Group("/raports")
	rg.GET("", api.reports)
	rg.GET("/:id", api.report)
	rg.GET("/:id/docx", api.reportDocument)
	rg.POST("/:id/send", api.sendReport)
}

// Handlers

func (api *homeroomApi) nonAcademic(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	rows, err := api.schoolSvc.NonAcademicSheet(ctx.Request().Context(), actor.Class)
	if err != nil {
		return errors.Wrap(err, "getting non-academic sheet")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *homeroomApi) saveNonAcademic(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data school.NonAcademicEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NonAcademicEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.schoolSvc.SaveNonAcademic(ctx.Request().Context(), actor.Class, data.Records); err != nil {
		return errors.Wrap(err, "saving non-academic records")
	}
	return api.nonAcademic(ctx)
}

func (api *homeroomApi) ranking(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	r, err := api.raportSvc.Ranking(ctx.Request().Context(), actor.Class)
	if err != nil {
		return errors.Wrap(err, "computing ranking")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *homeroomApi) leger(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	l, err := api.raportSvc.Leger(ctx.Request().Context(), actor.Class)
	if err != nil {
		return errors.Wrap(err, "building leger")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *homeroomApi) legerWorkbook(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	doc, err := api.raportSvc.LegerDocument(ctx.Request().Context(), actor.Class)
	if err != nil {
		return errors.Wrap(err, "writing leger workbook")
	}
	return sendDocument(ctx, doc)
}

func (api *homeroomApi) reports(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	list, err := api.raportSvc.Reports(ctx.Request().Context(), actor.Class)
	if err != nil {
		return errors.Wrap(err, "listing reports")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *homeroomApi) report(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	r, err := api.raportSvc.Report(ctx.Request().Context(), actor.Class, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "assembling report")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *homeroomApi) reportDocument(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	doc, err := api.raportSvc.ReportDocument(ctx.Request().Context(), actor.Class, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "writing report document")
	}
	return sendDocument(ctx, doc)
}

func (api *homeroomApi) sendReport(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data SendReportRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendReportRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	addr, err := api.raportSvc.SendReport(ctx.Request().Context(), actor.Class, ctx.Param("id"), data.Email)
	if err != nil {
		return errors.Wrap(err, "sending report")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Report sent to " + addr.Address + "."})
}

func sendDocument(ctx echo.Context, doc raport.Document) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

// SendReportRequest defaults to the student's guardian email when Email is empty.
type SendReportRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}
