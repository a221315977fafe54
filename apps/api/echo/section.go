package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/backend/core"
	"github.com/prepdesk/backend/core/section"
)

type sectionApi struct {
	svc section.Service
}

func registerSectionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc section.Service) {
	api := sectionApi{svc: svc}

	sg := g.Group("/sections", jwt, ownerMiddleware())
	sg.GET("/course/:courseId", api.queryByCourse)
	sg.GET("/:id", api.retrieve)
	// staged edits are carried in the request and handed back transformed;
	// nothing is persisted until commit
	sg.POST("/add-test", api.addTest)
	sg.POST("/remove-test", api.removeTest)
	sg.POST("/reorder", api.reorder)
	sg.POST("/remove", api.remove)
	sg.POST("/commit", api.commit)

	g.GET("/section/:id/can-delete", api.canDeleteSection, jwt, ownerMiddleware())
	g.GET("/test/:id/can-delete", api.canDeleteTest, jwt, ownerMiddleware())
}

// Handlers

func (api *sectionApi) queryByCourse(ctx echo.Context) error {
	sections, err := api.svc.QueryByCourse(ctx.Request().Context(), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	if sections == nil {
		sections = []section.Section{}
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *sectionApi) retrieve(ctx echo.Context) error {
	sec, err := api.svc.GetSection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding section")
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *sectionApi) addTest(ctx echo.Context) error {
	var data AddTestRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddTestRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.AddTest(ctx.Request().Context(), &data.Section, data.TestID, data.Kind); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data.Section)
}

func (api *sectionApi) removeTest(ctx echo.Context) error {
	var data RemoveTestRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RemoveTestRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RemoveTest(&data.Section, data.EntryID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data.Section)
}

func (api *sectionApi) reorder(ctx echo.Context) error {
	var data ReorderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Reorder(&data.Section, data.OrderedIDs); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data.Section)
}

func (api *sectionApi) remove(ctx echo.Context) error {
	var data SectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SectionRequest")
	}

	dropped := api.svc.RemoveSection(&data.Section)
	return ctx.JSON(http.StatusOK, RemoveSectionResponse{Section: data.Section, Dropped: dropped})
}

func (api *sectionApi) commit(ctx echo.Context) error {
	var data SectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SectionRequest")
	}

	sec, err := api.svc.Commit(ctx.Request().Context(), &data.Section)
	if err != nil {
		return errors.Wrap(err, "committing section")
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *sectionApi) canDeleteSection(ctx echo.Context) error {
	can, reason, err := api.svc.CanDeleteSection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "checking section deletability")
	}
	return ctx.JSON(http.StatusOK, CanDeleteResponse{CanDelete: can, Reason: reason})
}

func (api *sectionApi) canDeleteTest(ctx echo.Context) error {
	courseID := ctx.QueryParam("courseId")
	if courseID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "courseId", Error: "courseId is required"})
	}

	can, reason, err := api.svc.CanDeleteTest(ctx.Request().Context(), courseID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "checking test deletability")
	}
	return ctx.JSON(http.StatusOK, CanDeleteResponse{CanDelete: can, Reason: reason})
}

type (
	SectionRequest struct {
		Section section.Section `json:"section"`
	}

	AddTestRequest struct {
		Section section.Section  `json:"section"`
		TestID  string           `json:"test_id" validate:"required"`
		Kind    section.TestKind `json:"test_type" validate:"omitempty,oneof=normal random"`
	}

	RemoveTestRequest struct {
		Section section.Section `json:"section"`
		EntryID string          `json:"entry_id" validate:"required"`
	}

	ReorderRequest struct {
		Section    section.Section `json:"section"`
		OrderedIDs []string        `json:"ordered_ids" validate:"required"`
	}

	RemoveSectionResponse struct {
		Section section.Section `json:"section"`
		Dropped bool            `json:"dropped"`
	}

	CanDeleteResponse struct {
		CanDelete bool   `json:"canDelete"`
		Reason    string `json:"reason,omitempty"`
	}
)

func (r *AddTestRequest) Validate() error {
	r.TestID = core.CleanString(r.TestID)
	if r.Kind == "" {
		r.Kind = section.KindNormal
	}
	return core.Validate.Struct(r)
}

func (r *RemoveTestRequest) Validate() error {
	r.EntryID = core.CleanString(r.EntryID)
	return core.Validate.Struct(r)
}

func (r *ReorderRequest) Validate() error {
	return core.Validate.Struct(r)
}
