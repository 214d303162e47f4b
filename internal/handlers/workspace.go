package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

type WorkspaceHandler struct {
	workspaceService services.WorkspaceService
}

func NewWorkspaceHandler(workspaceService services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

func (wh *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	workspaces, err := wh.workspaceService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

func (wh *WorkspaceHandler) GetHome(c *gin.Context) {
	ws, err := wh.workspaceService.Home(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

func (wh *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	id, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	ws, err := wh.workspaceService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws, "chatSettings": wh.workspaceService.DefaultSettings(ws)})
}

func (wh *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	var req services.WorkspaceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	ws, err := wh.workspaceService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workspace": ws})
}

func (wh *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	id, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	var req services.WorkspaceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	ws, err := wh.workspaceService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

func (wh *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	id, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	if err := wh.workspaceService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
