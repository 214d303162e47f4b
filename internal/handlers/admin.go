package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (ah *AdminHandler) UpdateAssistant(c *gin.Context) {
	var req struct {
		AssistantID string          `json:"assistantId"`
		Updates     json.RawMessage `json:"updates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	if strings.TrimSpace(req.AssistantID) == "" {
		badRequest(c, "assistantId is required.")
		return
	}
	raw := bytes.TrimSpace(req.Updates)
	updates := map[string]interface{}{}
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] != '{' {
			badRequest(c, "updates must be an object.")
			return
		}
		if err := json.Unmarshal(raw, &updates); err != nil {
			badRequest(c, "updates must be an object.")
			return
		}
	}
	id, err := uuid.Parse(req.AssistantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Assistant not found."})
		return
	}

	assistant, err := ah.adminService.UpdateAssistant(c.Request.Context(), id, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistant": assistant})
}

func (ah *AdminHandler) VerifyDeletion(c *gin.Context) {
	var req services.DeletionCheck
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	report, err := ah.adminService.VerifyDeletion(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
