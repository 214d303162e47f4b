package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

const maxDocumentBytes = 50 << 20

type FileHandler struct {
	fileService services.FileService
}

func NewFileHandler(fileService services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// UploadFile takes a multipart form: the document under "file" plus its
// metadata fields. collectionId is optional.
func (fh *FileHandler) UploadFile(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes)
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	pageCount, err := strconv.Atoi(strings.TrimSpace(c.PostForm("pageCount")))
	if err != nil || pageCount <= 0 {
		badRequest(c, "Page count must be greater than 0")
		return
	}
	tokens, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("tokens")))

	up := services.FileUpload{
		WorkspaceID:  wsID,
		Name:         c.DefaultPostForm("name", header.Filename),
		Description:  c.PostForm("description"),
		Type:         header.Header.Get("Content-Type"),
		Size:         header.Size,
		Tokens:       tokens,
		DocumentType: c.PostForm("documentType"),
		Logline:      c.PostForm("logline"),
		Genre:        c.PostForm("genre"),
		PageCount:    pageCount,
	}
	if raw := c.PostForm("collectionId"); raw != "" {
		collID, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "collectionId must be a valid id")
			return
		}
		up.CollectionID = &collID
	}

	body, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()
	up.Body = body

	file, err := fh.fileService.Upload(c.Request.Context(), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": file})
}

func (fh *FileHandler) ListFiles(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	files, err := fh.fileService.ListByWorkspace(c.Request.Context(), wsID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (fh *FileHandler) GetFile(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	file, err := fh.fileService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file})
}

func (fh *FileHandler) UpdateFile(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	var req services.FileMetadata
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	file, err := fh.fileService.UpdateMetadata(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file})
}

func (fh *FileHandler) DeleteFile(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	if err := fh.fileService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (fh *FileHandler) DownloadURL(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	url, err := fh.fileService.DownloadURL(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
