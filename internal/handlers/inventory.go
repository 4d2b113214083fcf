// internal/handlers/inventory.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

// InventoryHandler exposes the producer's farms and crops.
type InventoryHandler struct {
	inventoryService *services.InventoryService
	storageService   *services.StorageService
}

func NewInventoryHandler(inventoryService *services.InventoryService, storageService *services.StorageService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		storageService:   storageService,
	}
}

// POST /farms
func (h *InventoryHandler) CreateFarm(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	farm, err := h.inventoryService.CreateFarm(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFarmCreated),
		"farm":    farm,
	})
}

// GET /farms
func (h *InventoryHandler) ListFarms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	farms, total, err := h.inventoryService.ListFarms(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(farms, total, params))
}

// GET /farms/:id
func (h *InventoryHandler) GetFarm(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	farmID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	farm, err := h.inventoryService.GetFarm(userID, farmID)
	if err != nil {
		utils.NotFoundResponse(c, "farm")
		return
	}

	utils.SuccessResponse(c, farm)
}

// PUT /farms/:id
func (h *InventoryHandler) UpdateFarm(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	farmID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	farm, err := h.inventoryService.UpdateFarm(userID, farmID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFarmUpdated),
		"farm":    farm,
	})
}

// DELETE /farms/:id
func (h *InventoryHandler) DeleteFarm(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	farmID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteFarm(userID, farmID); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFarmDeleted),
	})
}

// POST /crops
func (h *InventoryHandler) CreateCrop(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	crop, err := h.inventoryService.CreateCrop(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCropCreated),
		"crop":    crop,
	})
}

// GET /crops
func (h *InventoryHandler) ListCrops(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	estado := models.CropState(c.Query("estado"))

	crops, total, err := h.inventoryService.ListCrops(userID, estado, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(crops, total, params))
}

// GET /crops/:id
func (h *InventoryHandler) GetCrop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cropID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	crop, err := h.inventoryService.GetCrop(userID, cropID)
	if err != nil {
		utils.NotFoundResponse(c, "crop")
		return
	}

	utils.SuccessResponse(c, crop)
}

// PUT /crops/:id
func (h *InventoryHandler) UpdateCrop(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cropID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	crop, err := h.inventoryService.UpdateCrop(userID, cropID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCropUpdated),
		"crop":    crop,
	})
}

// DELETE /crops/:id
func (h *InventoryHandler) DeleteCrop(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cropID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteCrop(userID, cropID); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCropDeleted),
	})
}

// POST /crops/:id/image
func (h *InventoryHandler) UploadCropImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cropID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateImage(file); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)
		return
	}

	result, err := h.storageService.UploadFile(file, header, h.storageService.GetDefaultUploadOptions("crops"))
	if err != nil {
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed))
		return
	}

	crop, err := h.inventoryService.UpdateCrop(userID, cropID, &services.UpdateCropRequest{ImagenURL: &result.URL})
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"url":     result.URL,
		"crop":    crop,
	})
}
