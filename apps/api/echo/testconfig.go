package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/backend/core/testconfig"
)

type testConfigApi struct {
	svc testconfig.Service
}

func registerTestConfigAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc testconfig.Service) {
	api := testConfigApi{svc: svc}

	cg := g.Group("/test-configuration", jwt, ownerMiddleware())
	cg.GET("/:courseId/:testId", api.load)
	cg.POST("/create", api.create)
	cg.PUT("/update/:id", api.update)
}

// Handlers

// load answers with the stored configuration, or the defaults when the pair
// was never configured. A defaulted config carries no id.
func (api *testConfigApi) load(ctx echo.Context) error {
	cfg, err := api.svc.Load(ctx.Request().Context(), ctx.Param("courseId"), ctx.Param("testId"))
	if err != nil {
		return errors.Wrap(err, "loading test configuration")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

func (api *testConfigApi) create(ctx echo.Context) error {
	var data testconfig.Config
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Config")
	}
	data.ID = "" // create, never upsert

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	cfg, err := api.svc.Save(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cfg)
}

func (api *testConfigApi) update(ctx echo.Context) error {
	var data testconfig.Config
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Config")
	}
	data.ID = ctx.Param("id")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	cfg, err := api.svc.Save(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cfg)
}
