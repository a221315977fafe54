package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/backend/core/visibility"
)

type visibilityApi struct {
	svc visibility.Service
}

func registerVisibilityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc visibility.Service) {
	api := visibilityApi{svc: svc}

	vg := g.Group("/test-visibility", jwt, ownerMiddleware())
	vg.GET("/:courseId/:testId", api.load)
	vg.POST("/create", api.create)
	vg.PUT("/update/:id", api.update)

	g.GET("/enrollments/course/:courseId", api.resolveBatch, jwt, ownerMiddleware())
	g.GET("/batches/:batchId/details", api.batchDetails, jwt, ownerMiddleware())
}

// Handlers

// load resolves the course's batch, its roster and the rule for the pair.
// A course with no enrollment is a distinct empty state, not a failure.
func (api *visibilityApi) load(ctx echo.Context) error {
	state, err := api.svc.Load(ctx.Request().Context(), ctx.Param("courseId"), ctx.Param("testId"))
	if errors.Cause(err) == visibility.ErrNoEnrollment {
		return ctx.JSON(http.StatusOK, VisibilityResponse{NoEnrollment: true})
	}
	if err != nil {
		return errors.Wrap(err, "loading visibility editor state")
	}
	return ctx.JSON(http.StatusOK, VisibilityResponse{Batch: &state.Batch, Rule: &state.Rule})
}

func (api *visibilityApi) create(ctx echo.Context) error {
	var data visibility.Rule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Rule")
	}
	data.ID = "" // create, never upsert

	rule, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rule)
}

func (api *visibilityApi) update(ctx echo.Context) error {
	var data visibility.Rule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Rule")
	}
	data.ID = ctx.Param("id")

	rule, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rule)
}

func (api *visibilityApi) resolveBatch(ctx echo.Context) error {
	batchID, err := api.svc.ResolveBatch(ctx.Request().Context(), ctx.Param("courseId"))
	if errors.Cause(err) == visibility.ErrNoEnrollment {
		return ctx.JSON(http.StatusOK, VisibilityResponse{NoEnrollment: true})
	}
	if err != nil {
		return errors.Wrap(err, "resolving batch")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"batch_id": batchID})
}

func (api *visibilityApi) batchDetails(ctx echo.Context) error {
	details, err := api.svc.BatchDetails(ctx.Request().Context(), ctx.Param("batchId"))
	if err != nil {
		return errors.Wrap(err, "fetching batch details")
	}
	return ctx.JSON(http.StatusOK, details)
}

type VisibilityResponse struct {
	NoEnrollment bool                     `json:"no_enrollment,omitempty"`
	Batch        *visibility.BatchDetails `json:"batch,omitempty"`
	Rule         *visibility.Rule         `json:"rule,omitempty"`
}
