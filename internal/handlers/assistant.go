package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

type AssistantHandler struct {
	assistantService services.AssistantService
}

func NewAssistantHandler(assistantService services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

func (ah *AssistantHandler) ListAssistants(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	assistants, err := ah.assistantService.ListInWorkspace(c.Request.Context(), wsID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistants": assistants})
}

func (ah *AssistantHandler) GetAssistant(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	assistant, err := ah.assistantService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistant": assistant})
}

func (ah *AssistantHandler) CreateAssistant(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	var req services.AssistantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	assistant, err := ah.assistantService.Create(c.Request.Context(), wsID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assistant": assistant})
}

func (ah *AssistantHandler) UpdateAssistant(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	var req services.AssistantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	assistant, err := ah.assistantService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistant": assistant})
}

func (ah *AssistantHandler) DeleteAssistant(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	if err := ah.assistantService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ah *AssistantHandler) GetAssistantFiles(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	files, err := ah.assistantService.Files(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (ah *AssistantHandler) GetAssistantCollections(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	collections, err := ah.assistantService.Collections(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

func (ah *AssistantHandler) GetAssistantTools(c *gin.Context) {
	id, ok := uuidParam(c, "assistantId")
	if !ok {
		return
	}
	tools, err := ah.assistantService.Tools(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}
