package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emporia/internal/domain"
)

type placeOrderRequest struct {
	CartID        int64  `json:"cart_id"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// placeOrder turns the customer's cart into an order and empties the cart
// once the order is paid.
func (h *handlers) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment_method is required")
		return
	}
	ctx := c.Request.Context()
	customer := currentUser(c)

	cart, err := h.deps.Carts.Get(ctx, req.CartID, customer.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	res := h.deps.Orders.PlaceOrder(ctx, cart, customer.ID, req.PaymentMethod)
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"message": res.Message})
		return
	}
	if err := h.deps.Carts.Clear(ctx, cart.ID, customer.ID); err != nil {
		loggerFrom(c).Warn("clear cart after order", zap.Int64("cart_id", cart.ID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, gin.H{"message": res.Message, "order_id": res.OrderID})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.GetCustomerOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.deps.Orders.GetOrder(c.Request.Context(), id, ownerFilter(currentUser(c)))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if o == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Order with ID %d not found", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *handlers) cancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res := h.deps.Orders.CancelOrder(c.Request.Context(), id, ownerFilter(currentUser(c)))
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"message": res.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message})
}

// ownerFilter is the customer id orders are restricted to. Admins see every order.
func ownerFilter(u *domain.User) int64 {
	if u.Role == domain.RoleAdmin {
		return 0
	}
	return u.ID
}
