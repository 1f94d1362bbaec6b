package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	categorysvc "emporia/internal/service/category"
)

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *handlers) getCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cat, err := h.deps.Categories.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (h *handlers) createCategory(c *gin.Context) {
	var in categorysvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid category payload")
		return
	}
	cat, err := h.deps.Categories.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": cat})
}

func (h *handlers) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in categorysvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid category payload")
		return
	}
	cat, err := h.deps.Categories.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": cat})
}

func (h *handlers) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Categories.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
