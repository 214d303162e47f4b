package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

type ToolHandler struct {
	toolService services.ToolService
}

func NewToolHandler(toolService services.ToolService) *ToolHandler {
	return &ToolHandler{toolService: toolService}
}

func (th *ToolHandler) CreateTool(c *gin.Context) {
	var req services.ToolInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	tool, err := th.toolService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tool": tool})
}

func (th *ToolHandler) ListTools(c *gin.Context) {
	tools, err := th.toolService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}
