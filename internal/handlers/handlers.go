package handlers

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"freelance/internal/apperr"
	"freelance/internal/middleware"
	"freelance/internal/models"
	"freelance/internal/service"
)

// Services are the collaborators behind the routes. Auth is required;
// resource routes are mounted only for the services that are set.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Catalog  *service.CatalogService
	Projects *service.ProjectService
	Offers   *service.OfferService
	Reviews  *service.ReviewService
}

type HandlerSet struct {
	log         zerolog.Logger
	environment string
	svc         Services
	checks      []HealthCheck
}

func NewHandlerSet(log zerolog.Logger, environment string, svc Services, checks ...HealthCheck) HandlerSet {
	return HandlerSet{
		log:         log,
		environment: environment,
		svc:         svc,
		checks:      checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	requireAuth := middleware.Auth(h.svc.Auth)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/logout-all", requireAuth, h.LogoutAll)
	}

	if h.svc.Users != nil {
		users := v1.Group("/users", requireAuth)
		users.GET("", h.ListUsers)
		users.GET("/me", h.Me)
		users.PATCH("/me", h.UpdateMe)
		users.DELETE("/me", h.DeleteMe)
		users.PUT("/me/avatar", h.UploadAvatar)
		users.GET("/:id", h.GetUser)
		users.DELETE("/:id", adminOnly, h.AdminDeleteUser)
		users.PUT("/:id/role", adminOnly, h.AdminSetRole)
	}

	if h.svc.Catalog != nil {
		skills := v1.Group("/skills")
		skills.GET("", h.ListSkills)
		skills.GET("/:id", h.GetSkill)
		skills.POST("", requireAuth, adminOnly, h.CreateSkill)
		skills.PUT("/:id", requireAuth, adminOnly, h.RenameSkill)
		skills.DELETE("/:id", requireAuth, adminOnly, h.DeleteSkill)

		categories := v1.Group("/categories")
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.POST("", requireAuth, adminOnly, h.CreateCategory)
		categories.PUT("/:id", requireAuth, adminOnly, h.RenameCategory)
		categories.DELETE("/:id", requireAuth, adminOnly, h.DeleteCategory)
	}

	if h.svc.Projects != nil {
		projects := v1.Group("/projects")
		projects.GET("", h.ListProjects)
		projects.GET("/:id", h.GetProject)
		projects.POST("", requireAuth, middleware.RequireRoles(models.UserRoleClient, models.UserRoleAdmin), h.CreateProject)
		projects.PATCH("/:id", requireAuth, h.UpdateProject)
		projects.DELETE("/:id", requireAuth, h.DeleteProject)
	}

	if h.svc.Offers != nil {
		offers := v1.Group("/offers", requireAuth)
		offers.GET("", h.ListOffers)
		offers.GET("/:id", h.GetOffer)
		offers.POST("", middleware.RequireRoles(models.UserRoleFreelancer), h.CreateOffer)
		offers.PATCH("/:id", h.UpdateOffer)
		offers.DELETE("/:id", h.DeleteOffer)
	}

	if h.svc.Reviews != nil {
		reviews := v1.Group("/reviews", requireAuth)
		reviews.GET("", h.ListReviews)
		reviews.GET("/:id", h.GetReview)
		reviews.POST("", h.CreateReview)
		reviews.PATCH("/:id", h.UpdateReview)
		reviews.DELETE("/:id", h.DeleteReview)
	}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps an error to its status and a client-safe body. Internal
// causes are logged, never sent.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("route", c.FullPath()).
			Str("request_id", middleware.RequestIDFrom(c)).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":   kind.String(),
		"message": apperr.Message(err),
	})
}

// bindJSON decodes the body into dst and writes a 400 on failure.
func (h HandlerSet) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.writeError(c, bindError(err))
		return false
	}
	return true
}

func init() {
	// Report binding failures by their JSON names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation(fieldErrs[0].Field() + " is " + fieldErrs[0].Tag())
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation("request body is required")
	}
	return apperr.Validation("malformed request body")
}

func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, Role: models.UserRole(claims.Role)}, true
}

// requireActor writes a 401 when the route was mounted without Auth.
func (h HandlerSet) requireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		h.writeError(c, apperr.Unauthorized("missing bearer token"))
	}
	return actor, ok
}

func (h HandlerSet) paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, apperr.Validation("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// pagination reads limit and offset, ignoring malformed values. The
// service clamps the range.
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return limit, offset
}

func queryID(c *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func messageResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
