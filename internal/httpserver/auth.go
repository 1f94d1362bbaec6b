package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"emporia/internal/domain"
	usersvc "emporia/internal/service/user"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	UserName  string `json:"user_name" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *domain.User `json:"user"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, password and user_name are required")
		return
	}
	u, err := h.deps.Users.Register(c.Request.Context(), usersvc.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	u, token, err := h.deps.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if isAuthError(err) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.Users.AccessTTLSeconds(),
		User:        u,
	})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.Users.Logout(c.Request.Context(), bearerToken(c.GetHeader("Authorization"))); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}
