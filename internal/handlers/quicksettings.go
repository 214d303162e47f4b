package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/socket"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type QuickSettingsHandler struct {
	quickSettingsService services.QuickSettingsService
	workspaceService     services.WorkspaceService
	assistantService     services.AssistantService
	hub                  *socket.Hub
}

func NewQuickSettingsHandler(
	quickSettingsService services.QuickSettingsService,
	workspaceService services.WorkspaceService,
	assistantService services.AssistantService,
	hub *socket.Hub,
) *QuickSettingsHandler {
	return &QuickSettingsHandler{
		quickSettingsService: quickSettingsService,
		workspaceService:     workspaceService,
		assistantService:     assistantService,
		hub:                  hub,
	}
}

// Select applies a quick-settings choice. A null assistantId removes the
// current assistant and restores the workspace defaults.
func (qh *QuickSettingsHandler) Select(c *gin.Context) {
	ctx := c.Request.Context()
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	var req struct {
		AssistantID  *uuid.UUID          `json:"assistantId"`
		ChatSettings *types.ChatSettings `json:"chatSettings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	ws, err := qh.workspaceService.Get(ctx, wsID)
	if err != nil {
		respondError(c, err)
		return
	}
	state := types.ChatState{SelectedWorkspace: ws, ChatSettings: req.ChatSettings}
	if state.ChatSettings == nil {
		defaults := qh.workspaceService.DefaultSettings(ws)
		state.ChatSettings = &defaults
	}

	if req.AssistantID == nil {
		c.JSON(http.StatusOK, gin.H{"state": qh.quickSettingsService.RemoveAssistant(state)})
		return
	}
	next, err := qh.quickSettingsService.SelectAssistant(ctx, state, *req.AssistantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": next})
}

func (qh *QuickSettingsHandler) Modified(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	var req struct {
		ChatSettings *types.ChatSettings `json:"chatSettings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatSettings == nil {
		badRequest(c, "chatSettings is required.")
		return
	}
	assistant, err := qh.assistantService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified": qh.quickSettingsService.IsModified(assistant, *req.ChatSettings)})
}

func (qh *QuickSettingsHandler) StartChat(c *gin.Context) {
	ctx := c.Request.Context()
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	assistantID, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	chat, redirect, err := qh.quickSettingsService.StartChatWithAssistant(ctx, wsID, assistantID)
	if err != nil {
		respondError(c, err)
		return
	}
	qh.hub.Flush(ctx)
	c.JSON(http.StatusCreated, gin.H{"chat": chat, "redirect": redirect})
}
