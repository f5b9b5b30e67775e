package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yungbote/edubot-backend/internal/http/response"
	"github.com/yungbote/edubot-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": "user created", "user": user})
}

// POST /api/login
// Accepts JSON {email, password} or an OAuth2 password form where username carries the email.
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" form:"email"`
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	var err error
	if strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindWith(&req, binding.Form)
	}
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	email := req.Email
	if email == "" {
		email = req.Username
	}
	res, err := ah.authService.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
