// internal/handlers/chat.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// POST /conversations
func (h *ChatHandler) Start(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	conversation, err := h.chatService.Start(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyConversationCreated),
		"conversation": conversation,
	})
}

// GET /conversations
func (h *ChatHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	conversations, total, err := h.chatService.List(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(conversations, total, params))
}

// GET /conversations/:id
func (h *ChatHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	conversation, err := h.chatService.GetByID(userID, conversationID)
	if err != nil {
		if errors.Is(err, services.ErrNotConversationParty) {
			utils.ForbiddenResponse(c, "")
			return
		}
		utils.NotFoundResponse(c, "conversation")
		return
	}

	utils.SuccessResponse(c, conversation)
}

// POST /conversations/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	message, err := h.chatService.SendMessage(userID, conversationID, &req)
	if err != nil {
		if errors.Is(err, services.ErrNotConversationParty) {
			utils.ForbiddenResponse(c, "")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message_sent": i18n.T(lang, i18n.KeyMessageSent),
		"data":         message,
	})
}

// POST /conversations/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.chatService.MarkRead(userID, conversationID); err != nil {
		if errors.Is(err, services.ErrNotConversationParty) {
			utils.ForbiddenResponse(c, "")
			return
		}
		utils.NotFoundResponse(c, "conversation")
		return
	}

	utils.SuccessResponse(c, gin.H{"read": true})
}
