package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/delivery"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
	"github.com/mintybay/goapi/middleware"
	authMiddleware "github.com/mintybay/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	treasury marketplace.Treasury
}

// New registers the treasury routes. Deposits are credited by an admin
// after the on-chain payment is confirmed; withdrawals pay out on chain.
func New(e *echo.Echo, treasury marketplace.Treasury, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{treasury: treasury}

	g := e.Group("/treasury")
	g.GET("/balances/:account", h.getBalance, middleware.IsValidAddress("account"))
	g.POST("/deposits", h.deposit, authMiddleware.Auth(), authMiddleware.IsAdmin())
	g.POST("/withdrawals", h.withdraw, authMiddleware.Auth())
}

func statusOf(err error) int {
	switch err {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrInsufficientFunds, domain.ErrBadParamInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) getBalance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	balance, err := h.treasury.BalanceOf(ctx, domain.Address(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balance.String())
}

func (h *handler) deposit(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type payload struct {
		Account domain.Address `json:"account" validate:"required"`
		Value   string         `json:"value" validate:"required"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	value, err := domain.ToBigInt(p.Value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.treasury.Deposit(ctx, p.Account, value); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, "ok")
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	type payload struct {
		Value string `json:"value" validate:"required"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	value, err := domain.ToBigInt(p.Value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	txHash, err := h.treasury.Withdraw(ctx, address, value)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, txHash)
}
