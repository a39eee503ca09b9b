package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/staynest/service-booking/internal/application"
	"github.com/staynest/service-booking/internal/auth"
	"github.com/staynest/service-booking/internal/middleware"
	"github.com/staynest/service-booking/internal/response"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers all review routes on the given router group.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	reviews := r.Group("/reviews")
	reviews.Use(middleware.AuthMiddleware(jwtManager))
	{
		reviews.POST("", h.SubmitReview)
		reviews.GET("/my-reviews", h.MyReviews)
		reviews.GET("/eligibility/:bookingId", h.Eligibility)
	}
}

// SubmitReview handles POST /api/v1/reviews.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SubmitReview(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// MyReviews handles GET /api/v1/reviews/my-reviews. Lists reviews written
// about the caller.
func (h *ReviewHandler) MyReviews(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := paginationParams(c)
	result, err := h.service.GetMyReviews(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Eligibility handles GET /api/v1/reviews/eligibility/:bookingId. Tells the
// frontend whether to show the review form.
func (h *ReviewHandler) Eligibility(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	eligible, err := h.service.CanReview(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"eligible": eligible})
}
