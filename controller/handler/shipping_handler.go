package handler

import (
	"github.com/gin-gonic/gin"

	"vendor-inventory-import/controller/respond"
	"vendor-inventory-import/service/shipping_service"
)

// ShippingHandler cooldown gated carrier quotes
type ShippingHandler struct {
	quotes *shipping_service.QuoteService
}

// NewShippingHandler create shipping handler instance
func NewShippingHandler(quotes *shipping_service.QuoteService) *ShippingHandler {
	return &ShippingHandler{quotes: quotes}
}

// Quote request a shipping quote
// @Summary      Shipping quote
// @Description  Forwards at most one request per cooldown window to the carrier. Earlier requests are rejected locally with the remaining wait.
// @Tags         Shipping
// @Accept       json
// @Produce      json
// @Param        request  body      shipping_service.QuoteRequest  true  "Parcel"
// @Success      200      {object}  respond.Response{data=shipping_service.Quote}
// @Failure      400      {object}  respond.Response
// @Failure      429      {object}  respond.Response{data=respond.CooldownResponse}
// @Failure      502      {object}  respond.Response
// @Router       /shipping/quotes [post]
func (h *ShippingHandler) Quote(c *gin.Context) {
	var req shipping_service.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}
	quote, err := h.quotes.Quote(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Quote", err)
		return
	}
	respond.Success(c, quote)
}
