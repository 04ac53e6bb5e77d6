package router

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/cart"
	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/ai"
	"julianmorley.ca/con-plar/eatathome/pkg/apperr"
	"julianmorley.ca/con-plar/eatathome/pkg/global"
	"julianmorley.ca/con-plar/eatathome/pkg/logger"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

type CartManager interface {
	Add(ctx context.Context, userID, itemID string, qty int) (*cart.AddResult, error)
	List(ctx context.Context, userID string) ([]models.CartLineView, error)
	Remove(ctx context.Context, cartID string, removeAll bool) (*cart.RemoveResult, error)
	Update(ctx context.Context, cartID string, increment int) (*models.CartLine, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID string) (*models.Order, error)
}

type HistoryReader interface {
	ListOrders(ctx context.Context, userID string) ([]models.OrderHistoryEntry, error)
}

type Handler struct {
	deps    Deps
	timeout time.Duration
	log     *zap.Logger
}

func NewHandler(deps Deps, timeout time.Duration, log *zap.Logger) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if deps.Summaries == nil {
		deps.Summaries = ai.New("", "", "", log)
	}
	return &Handler{deps: deps, timeout: timeout, log: log}
}

// storeContext bounds the store calls of one request.
func (h *Handler) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail renders err in the error envelope with the status of its kind.
func (h *Handler) fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindStore {
		logger.FromContext(c, h.log).Error("Request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(appErr.StatusCode(), global.ErrorResponse(appErr.Message, []global.ValidationError{
		{Field: appErr.Field, Message: appErr.Message, Code: string(appErr.Kind)},
	}))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	if err := h.deps.Health.Ping(ctx); err != nil {
		logger.FromContext(c, h.log).Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Database connection failed", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{"status": "OK", "database": "Connected"}))
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", []global.ValidationError{
			{Message: err.Error(), Code: string(apperr.KindValidation)},
		}))
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	res, err := h.deps.Cart.Add(ctx, req.UserID, req.ItemID, req.Qty)
	if err != nil {
		h.fail(c, err)
		return
	}

	if res.Created {
		c.JSON(http.StatusCreated, global.MessageResponse("Item added to cart", gin.H{"cartId": res.Line.ID}))
		return
	}
	c.JSON(http.StatusOK, global.MessageResponse("Cart item quantity updated", gin.H{"cartItem": res.Line}))
}

func (h *Handler) ShowCart(c *gin.Context) {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	views, err := h.deps.Cart.List(ctx, c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(views) == 0 {
		c.JSON(http.StatusNotFound, global.ErrorResponse("No items in your cart", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(views))
}

// RemoveCart takes one unit off a line; ?all=true drops the whole line.
func (h *Handler) RemoveCart(c *gin.Context) {
	removeAll := c.Query("all") == "true"

	ctx, cancel := h.storeContext(c)
	defer cancel()

	res, err := h.deps.Cart.Remove(ctx, c.Param("cartId"), removeAll)
	if err != nil {
		h.fail(c, err)
		return
	}

	if res.Removed {
		c.JSON(http.StatusOK, global.MessageResponse("Cart item removed", nil))
		return
	}
	c.JSON(http.StatusOK, global.MessageResponse("Cart item quantity decreased", gin.H{"cartItem": res.Line}))
}

func (h *Handler) UpdateCart(c *gin.Context) {
	var req models.UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Increment == nil ||
		*req.Increment != math.Trunc(*req.Increment) || *req.Increment > float64(store.MaxQuantity) {
		h.fail(c, apperr.Validation("increment", "Invalid increment value"))
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	line, err := h.deps.Cart.Update(ctx, c.Param("cartId"), int(*req.Increment))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.MessageResponse("Cart item updated", gin.H{"cartItem": line}))
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", []global.ValidationError{
			{Field: "userId", Message: "userId is required", Code: string(apperr.KindValidation)},
		}))
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	order, err := h.deps.Orders.PlaceOrder(ctx, req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.MessageResponse("Order placed", gin.H{"orderId": order.ID}))
}

func (h *Handler) ListOrders(c *gin.Context) {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	entries, err := h.deps.History.ListOrders(ctx, c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(entries))
}

// OrderSummary returns the history with stats and, when AI is configured, a
// written summary. The model call is not bound by the store timeout.
func (h *Handler) OrderSummary(c *gin.Context) {
	ctx, cancel := h.storeContext(c)
	entries, err := h.deps.History.ListOrders(ctx, c.Param("userId"))
	cancel()
	if err != nil {
		h.fail(c, err)
		return
	}

	report := h.deps.Summaries.SummarizeOrders(c.Request.Context(), entries)
	c.JSON(http.StatusOK, global.SuccessResponse(report))
}
