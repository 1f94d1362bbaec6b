package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "emporia/internal/service/cart"
)

type addItemRequest struct {
	CartID    int64 `json:"cart_id"`
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	CartID   int64 `json:"cart_id"`
	Quantity int   `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.Carts.Get(c.Request.Context(), 0, currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cartsvc.NewView(cart)})
}

func (h *handlers) addCartItem(c *gin.Context) {
	req := addItemRequest{Quantity: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}
	cart, err := h.deps.Carts.AddItem(c.Request.Context(), req.CartID, req.ProductID, req.Quantity, currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "cart": cartsvc.NewView(cart)})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid cart item payload")
		return
	}
	cart, err := h.deps.Carts.UpdateItem(c.Request.Context(), req.CartID, productID, req.Quantity, currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": cartsvc.NewView(cart)})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	cart, err := h.deps.Carts.RemoveItem(c.Request.Context(), 0, productID, currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "cart": cartsvc.NewView(cart)})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.Carts.Clear(c.Request.Context(), 0, currentUser(c).ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
