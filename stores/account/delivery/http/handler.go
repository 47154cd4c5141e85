package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/delivery"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
	"github.com/mintybay/goapi/middleware"
	authMiddleware "github.com/mintybay/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	au account.Usecase
}

// New registers the account routes
func New(e *echo.Echo, au account.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{au: au}

	g := e.Group("/account")
	g.GET("/:account", h.getAccount, middleware.IsValidAddress("account"))
	g.GET("/:account/name", h.getName, middleware.IsValidAddress("account"))
	g.GET("/:account/activities", h.getActivities, middleware.IsValidAddress("account"))

	// self
	g.PATCH("/name", h.setName, authMiddleware.Auth())
	g.POST("/nonce", h.generateNonce, authMiddleware.Auth())
}

func (h *handler) getAccount(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := domain.Address(c.Param("account"))
	info, err := h.au.Get(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, info)
}

func (h *handler) getName(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := domain.Address(c.Param("account"))
	name, err := h.au.GetName(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, name)
}

func (h *handler) setName(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type payload struct {
		Name      string `json:"name" validate:"required,max=64"`
		Signature string `json:"signature" validate:"required"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.au.ValidateSignature(ctx, address, p.Signature); err != nil {
		return delivery.MakeJsonResp(c, http.StatusMethodNotAllowed, err)
	}

	info, err := h.au.SetName(ctx, address, p.Name)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, info)
}

func (h *handler) generateNonce(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)
	nonce, err := h.au.GenerateNonce(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nonce)
}

func (h *handler) getActivities(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := domain.Address(c.Param("account"))

	opts := []account.FindActivityHistoryOptions{}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil {
		offset = 0
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	opts = append(opts, account.ActivityHistoryWithPagination(offset, limit))

	res, err := h.au.GetActivities(ctx, address, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
