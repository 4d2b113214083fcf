// internal/handlers/publication.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/units"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type PublicationHandler struct {
	publicationService *services.PublicationService
}

func NewPublicationHandler(publicationService *services.PublicationService) *PublicationHandler {
	return &PublicationHandler{
		publicationService: publicationService,
	}
}

// GET /publications
func (h *PublicationHandler) Search(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filters := services.SearchPublicationsParams{
		Query:      c.Query("q"),
		Categoria:  models.CropCategory(c.Query("categoria")),
		Department: c.Query("department"),
		Unit:       units.Unit(c.Query("unidad")),
	}

	if minStr := c.Query("precio_min"); minStr != "" {
		if min, err := decimal.NewFromString(minStr); err == nil {
			filters.MinPrice = &min
		}
	}
	if maxStr := c.Query("precio_max"); maxStr != "" {
		if max, err := decimal.NewFromString(maxStr); err == nil {
			filters.MaxPrice = &max
		}
	}
	if sellerStr := c.Query("vendedor_id"); sellerStr != "" {
		if sellerID, err := uuid.Parse(sellerStr); err == nil {
			filters.VendedorID = &sellerID
		}
	}

	publications, total, err := h.publicationService.Search(filters, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(publications, total, params))
}

// GET /publications/:id
func (h *PublicationHandler) GetByID(c *gin.Context) {
	publicationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	publication, err := h.publicationService.GetByID(publicationID)
	if err != nil {
		utils.NotFoundResponse(c, "publication")
		return
	}

	utils.SuccessResponse(c, publication)
}

// GET /publications/:id/quote
func (h *PublicationHandler) Quote(c *gin.Context) {
	publicationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	unidad := units.Unit(c.Query("unidad"))

	cantidad := decimal.Zero
	if qtyStr := c.Query("cantidad"); qtyStr != "" {
		qty, err := decimal.NewFromString(qtyStr)
		if err != nil {
			utils.BadRequestResponse(c, "invalid cantidad", nil)
			return
		}
		cantidad = qty
	}

	quote, err := h.publicationService.Quote(publicationID, unidad, cantidad)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, quote)
}

// POST /publications
func (h *PublicationHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	publication, err := h.publicationService.Create(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPublicationCreated),
		"publication": publication,
	})
}

// GET /publications/mine
func (h *PublicationHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	publications, total, err := h.publicationService.ListBySeller(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(publications, total, params))
}

// PUT /publications/:id
func (h *PublicationHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	publicationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	publication, err := h.publicationService.Update(userID, publicationID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPublicationUpdated),
		"publication": publication,
	})
}

// POST /publications/:id/pause
func (h *PublicationHandler) Pause(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	publicationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	publication, err := h.publicationService.Pause(userID, publicationID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPublicationPaused),
		"publication": publication,
	})
}

// POST /publications/:id/resume
func (h *PublicationHandler) Resume(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	publicationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	publication, err := h.publicationService.Resume(userID, publicationID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPublicationResumed),
		"publication": publication,
	})
}

// DELETE /publications/:id
func (h *PublicationHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	publicationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.publicationService.Delete(userID, publicationID); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPublicationDeleted),
	})
}
