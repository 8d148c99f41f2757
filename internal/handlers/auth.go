package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/service"
)

type registerRequest struct {
	Username    string  `json:"username" binding:"required,max=50"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required"`
	Role        string  `json:"role"`
	FirstName   string  `json:"first_name" binding:"required,max=100"`
	LastName    string  `json:"last_name" binding:"required,max=100"`
	Age         *int    `json:"age" binding:"omitempty,gt=0,lt=100"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=32"`
	Biography   *string `json:"biography" binding:"omitempty,min=5,max=2000"`
	SkillIDs    []int64 `json:"skills" binding:"omitempty,dive,gt=0"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, err := h.svc.Auth.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        models.UserRole(strings.ToLower(req.Role)),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Age:         req.Age,
		PhoneNumber: req.PhoneNumber,
		Biography:   req.Biography,
		SkillIDs:    req.SkillIDs,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"user_id": userID,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresAt:    pair.ExpiresAt.Unix(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// refreshTokenFrom takes the token from the query string first and falls
// back to a JSON body.
func (h HandlerSet) refreshTokenFrom(c *gin.Context) (string, bool) {
	if token := strings.TrimSpace(c.Query("refresh_token")); token != "" {
		return token, true
	}

	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, bindError(err))
			return "", false
		}
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		h.writeError(c, apperr.Validation("refresh_token is required"))
		return "", false
	}
	return token, true
}

func (h HandlerSet) Refresh(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}

	access, err := h.svc.Auth.Refresh(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, accessTokenResponse{
		AccessToken: access.AccessToken,
		TokenType:   access.TokenType,
		ExpiresAt:   access.ExpiresAt.Unix(),
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}

	if err := h.svc.Auth.Logout(c.Request.Context(), token); err != nil {
		h.writeError(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "successfully logged out")
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	revoked, err := h.svc.Auth.LogoutAll(c.Request.Context(), actor.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "all sessions revoked",
		"revoked": revoked,
	})
}
