package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/backend/core"
	"github.com/prepdesk/backend/core/collab"
)

type collabApi struct {
	svc collab.Service
}

func registerCollabAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc collab.Service) {
	api := collabApi{svc: svc}

	cg := g.Group("/collaborations", jwt, ownerMiddleware())
	cg.GET("/active", api.active)
	cg.GET("/requests/received", api.receivedRequests)
	cg.GET("/requests/sent", api.sentRequests)
	cg.GET("/owners/search", api.searchOwners)
	cg.POST("/send-request", api.sendRequest)
	cg.PATCH("/:id/accept", api.accept)
	cg.PATCH("/:id/reject", api.reject)
	cg.DELETE("/:id/cancel", api.cancel)

	tg := g.Group("/collab-transactions", jwt, ownerMiddleware())
	tg.GET("/collaboration/:id", api.ledger)
	tg.GET("/summary/:id", api.summary)
	tg.POST("/create", api.createTransaction)
	tg.PATCH("/approve/:id", api.approveTransaction)
	tg.PATCH("/paid/:id", api.markTransactionPaid)
	tg.DELETE("/delete/:id", api.deleteTransaction)

	trg := g.Group("/trips", jwt, ownerMiddleware())
	trg.GET("", api.queryTrips)
	trg.GET("/totals", api.tripTotals)

	pg := g.Group("/payments", jwt, ownerMiddleware())
	pg.GET("", api.queryPayments)
	pg.POST("/create", api.createPayment)
	pg.PUT("/update/:id", api.updatePayment)
}

// Registry handlers

func (api *collabApi) active(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	collabs, err := api.svc.Active(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying active collaborations")
	}
	if collabs == nil {
		collabs = []collab.Collaboration{}
	}
	return ctx.JSON(http.StatusOK, collabs)
}

func (api *collabApi) receivedRequests(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	collabs, err := api.svc.ReceivedRequests(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying received requests")
	}
	if collabs == nil {
		collabs = []collab.Collaboration{}
	}
	return ctx.JSON(http.StatusOK, collabs)
}

func (api *collabApi) sentRequests(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	collabs, err := api.svc.SentRequests(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying sent requests")
	}
	if collabs == nil {
		collabs = []collab.Collaboration{}
	}
	return ctx.JSON(http.StatusOK, collabs)
}

func (api *collabApi) searchOwners(ctx echo.Context) error {
	term := core.CleanString(ctx.QueryParam("search"), true /* lower */)
	if term == "" {
		return ctx.JSON(http.StatusOK, []collab.Owner{})
	}
	owners, err := api.svc.SearchOwners(ctx.Request().Context(), term)
	if err != nil {
		return errors.Wrap(err, "searching owners")
	}
	if owners == nil {
		owners = []collab.Owner{}
	}
	return ctx.JSON(http.StatusOK, owners)
}

func (api *collabApi) sendRequest(ctx echo.Context) error {
	var data SendRequestRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequestRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.SendRequest(ctx.Request().Context(), claims.Subject, data.ToOwnerID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *collabApi) accept(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Accept(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *collabApi) reject(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *collabApi) cancel(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

// Ledger handlers. Every mutation answers with the freshly fetched ledger.

func (api *collabApi) ledger(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.GetLedger(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *collabApi) summary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.GetLedger(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ledger.Summary)
}

func (api *collabApi) createTransaction(ctx echo.Context) error {
	var data collab.NewTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransaction")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.CreateTransaction(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ledger)
}

func (api *collabApi) approveTransaction(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *collabApi) markTransactionPaid(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.MarkPaid(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *collabApi) deleteTransaction(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.DeleteTransaction(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ledger)
}

// Trip handlers

func (api *collabApi) queryTrips(ctx echo.Context) error {
	var query TripsRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to TripsRequest")
	}
	if err := query.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	trips, err := api.svc.QueryTrips(ctx.Request().Context(), claims.Subject, query.CollabOwnerID, query.FetchMode)
	if err != nil {
		return errors.Wrap(err, "querying trips")
	}
	if trips == nil {
		trips = []collab.Trip{}
	}
	return ctx.JSON(http.StatusOK, trips)
}

func (api *collabApi) tripTotals(ctx echo.Context) error {
	partnerID := core.CleanString(ctx.QueryParam("collab_owner_id"))
	if partnerID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "collab_owner_id", Error: "collab_owner_id is required"})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	totals, err := api.svc.GetTripTotals(ctx.Request().Context(), claims.Subject, partnerID)
	if err != nil {
		return errors.Wrap(err, "aggregating trip totals")
	}
	return ctx.JSON(http.StatusOK, totals)
}

// Payment handlers

func (api *collabApi) queryPayments(ctx echo.Context) error {
	partnerID := core.CleanString(ctx.QueryParam("collab_owner_id"))
	if partnerID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "collab_owner_id", Error: "collab_owner_id is required"})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	payments, err := api.svc.QueryPayments(ctx.Request().Context(), claims.Subject, partnerID)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []collab.PartnerPayment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *collabApi) createPayment(ctx echo.Context) error {
	var data collab.NewPartnerPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPartnerPayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	payment, err := api.svc.CreatePayment(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, payment)
}

func (api *collabApi) updatePayment(ctx echo.Context) error {
	var data collab.NewPartnerPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPartnerPayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	payment, err := api.svc.UpdatePayment(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, payment)
}

type (
	SendRequestRequest struct {
		ToOwnerID string `json:"to_owner_id" validate:"required"`
	}

	TripsRequest struct {
		TripType      string           `query:"trip_type"`
		CollabOwnerID string           `query:"collab_owner_id" validate:"required"`
		FetchMode     collab.FetchMode `query:"fetch_mode" validate:"omitempty,oneof=as_owner as_collaborator"`
	}
)

func (r *SendRequestRequest) Validate() error {
	r.ToOwnerID = core.CleanString(r.ToOwnerID)
	return core.Validate.Struct(r)
}

func (r *TripsRequest) Validate() error {
	r.CollabOwnerID = core.CleanString(r.CollabOwnerID)
	if r.FetchMode == "" {
		r.FetchMode = collab.FetchAsOwner
	}
	return core.Validate.Struct(r)
}
