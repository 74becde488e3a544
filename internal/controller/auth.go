package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmail/internal/apperr"
	"taskmail/internal/middleware"
	"taskmail/internal/service"
)

// Auth exposes the register/login/me/users endpoints.
type Auth struct {
	svc *service.Auth
}

func NewAuth(svc *service.Auth) *Auth {
	return &Auth{svc: svc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (h *Auth) Register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, apperr.BadRequest("invalid request body"))
		return
	}
	session, err := h.svc.Register(c.Request.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, apperr.BadRequest("invalid request body"))
		return
	}
	session, err := h.svc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, session)
}

// Me handles GET /api/auth/me.
func (h *Auth) Me(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, user)
}

// Users handles GET /api/auth/users: the name+email directory for the
// compose dialog.
func (h *Auth) Users(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "data": users})
}
