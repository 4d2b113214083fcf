// internal/handlers/rating.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type RatingHandler struct {
	ratingService *services.RatingService
}

func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
	}
}

// POST /ratings
func (h *RatingHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	rating, err := h.ratingService.Create(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrNotOrderParty):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyRatingNotParticipant))
		case errors.Is(err, services.ErrRatingExists):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyRatingExists))
		case errors.Is(err, services.ErrOrderNotCompleted):
			utils.ErrorResponse(c, http.StatusConflict, "ORDER_NOT_COMPLETED", i18n.T(lang, i18n.KeyRatingOrderNotDone), nil)
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRatingCreated),
		"rating":  rating,
	})
}

// GET /users/:id/ratings
func (h *RatingHandler) ListForUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	ratings, total, err := h.ratingService.ListForUser(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(ratings, total, params))
}

// GET /orders/:id/ratings
func (h *RatingHandler) ListForOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ratings, err := h.ratingService.ListForOrder(userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrNotOrderParty):
			utils.ForbiddenResponse(c, "")
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, ratings)
}
