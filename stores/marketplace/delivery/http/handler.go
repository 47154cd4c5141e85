package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/delivery"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
	"github.com/mintybay/goapi/middleware"
	authMiddleware "github.com/mintybay/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	marketplace marketplace.Usecase
}

// New registers the marketplace routes. Mutating routes require an
// authenticated caller; reads are public.
func New(e *echo.Echo, mu marketplace.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{marketplace: mu}

	g := e.Group("/marketplace")
	g.GET("/items/count", h.getItemCount)
	g.GET("/items/:itemId", h.getItem)
	g.GET("/items/:itemId/total-price", h.getTotalPrice)
	// fee quotes are pure functions of the immutable listing price
	g.GET("/items/:itemId/fee", h.getFeeOnFixedPrice, middleware.CacheHttp(time.Minute))
	g.GET("/items/:itemId/offer-fee", h.getFeeOnOfferPrice, middleware.CacheHttp(time.Minute))
	g.GET("/items/:itemId/offers", h.getOffers)
	g.GET("/items/:itemId/offers/highest", h.getHighestOffer)
	g.GET("/items/:itemId/offers/:offerer", h.getOffer, middleware.IsValidAddress("offerer"))
	g.GET("/items/:itemId/offerers/:index", h.getOfferer)

	g.POST("/items", h.createItem, authMiddleware.Auth())
	g.POST("/items/:itemId/buy", h.buyItem, authMiddleware.Auth())
	g.POST("/items/:itemId/offers", h.makeOffer, authMiddleware.Auth())
	g.POST("/items/:itemId/offers/:offerer/accept", h.acceptOffer, authMiddleware.Auth(), middleware.IsValidAddress("offerer"))
	g.DELETE("/items/:itemId/offers", h.withdrawOffer, authMiddleware.Auth())
}

func statusOf(err error) int {
	switch err {
	case domain.ErrItemNotFound, domain.ErrOfferNotFound, domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrInvalidPrice, domain.ErrZeroOffer, domain.ErrInsufficientFunds, domain.ErrBadParamInput:
		return http.StatusBadRequest
	case domain.ErrAlreadySold, domain.ErrSelfTrade:
		return http.StatusConflict
	case domain.ErrNotSeller, domain.ErrNotAssetOwner, domain.ErrNotApproved:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func itemIdParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("itemId"), 10, 64)
}

func (h *handler) createItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	p := &marketplace.CreateMarketItemPayload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	item, err := h.marketplace.CreateMarketItem(ctx, address, p)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, item)
}

func (h *handler) buyItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

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

	item, err := h.marketplace.BuyMarketItem(ctx, itemId, address, value)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, item)
}

func (h *handler) makeOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

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

	offer, err := h.marketplace.MakeOffer(ctx, itemId, address, value)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, offer)
}

func (h *handler) acceptOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	offerer := domain.Address(c.Param("offerer"))

	item, err := h.marketplace.AcceptOffer(ctx, itemId, offerer, address)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, item)
}

func (h *handler) withdrawOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)

	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.marketplace.WithdrawOffer(ctx, itemId, address); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) getItem(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	item, err := h.marketplace.GetMarketItem(ctx, itemId)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, item)
}

func (h *handler) getItemCount(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	count, err := h.marketplace.MarketItemCount(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, count)
}

func (h *handler) getTotalPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	total, err := h.marketplace.GetCalculatedTotalPrice(ctx, itemId)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, total.String())
}

func (h *handler) getFeeOnFixedPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	permillage, err := strconv.ParseInt(c.QueryParam("permillage"), 10, 64)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	fee, err := h.marketplace.GetCalculatedFeeOnFixedPrice(ctx, itemId, permillage)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, fee.String())
}

func (h *handler) getFeeOnOfferPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	permillage, err := strconv.ParseInt(c.QueryParam("permillage"), 10, 64)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	price, err := domain.ToBigInt(c.QueryParam("price"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	fee, err := h.marketplace.GetCalculatedFeeOnOfferPrice(ctx, itemId, price, permillage)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, fee.String())
}

func (h *handler) getOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	offer, err := h.marketplace.GetOffer(ctx, itemId, domain.Address(c.Param("offerer")))
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, offer)
}

func (h *handler) getOfferer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	offerer, err := h.marketplace.GetOfferer(ctx, itemId, index)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, offerer)
}

func (h *handler) getOffers(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	offers, err := h.marketplace.GetOffers(ctx, itemId)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, offers)
}

func (h *handler) getHighestOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	itemId, err := itemIdParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	offer, err := h.marketplace.GetHighestOffer(ctx, itemId)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, offer)
}
