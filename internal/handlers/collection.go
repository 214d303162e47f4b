package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

type CollectionHandler struct {
	collectionService services.CollectionService
}

func NewCollectionHandler(collectionService services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

func (ch *CollectionHandler) CreateCollection(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	var req services.CollectionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	coll, err := ch.collectionService.Create(c.Request.Context(), wsID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"collection": coll})
}

func (ch *CollectionHandler) ListCollections(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	colls, err := ch.collectionService.ListByWorkspace(c.Request.Context(), wsID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": colls})
}

func (ch *CollectionHandler) GetCollection(c *gin.Context) {
	id, ok := uuidParam(c, "collectionId")
	if !ok {
		return
	}
	coll, err := ch.collectionService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": coll})
}

func (ch *CollectionHandler) UpdateCollection(c *gin.Context) {
	id, ok := uuidParam(c, "collectionId")
	if !ok {
		return
	}
	var req services.CollectionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	coll, err := ch.collectionService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": coll})
}

func (ch *CollectionHandler) DeleteCollection(c *gin.Context) {
	id, ok := uuidParam(c, "collectionId")
	if !ok {
		return
	}
	if err := ch.collectionService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *CollectionHandler) GetCollectionFiles(c *gin.Context) {
	id, ok := uuidParam(c, "collectionId")
	if !ok {
		return
	}
	files, err := ch.collectionService.Files(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (ch *CollectionHandler) AddFile(c *gin.Context) {
	id, ok := uuidParam(c, "collectionId")
	if !ok {
		return
	}
	var req struct {
		FileID uuid.UUID `json:"fileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FileID == uuid.Nil {
		badRequest(c, "fileId is required.")
		return
	}
	if err := ch.collectionService.AddFile(c.Request.Context(), id, req.FileID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *CollectionHandler) RemoveFile(c *gin.Context) {
	id, ok := uuidParam(c, "collectionId")
	if !ok {
		return
	}
	fileID, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	if err := ch.collectionService.RemoveFile(c.Request.Context(), id, fileID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
