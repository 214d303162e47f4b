package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/socket"
)

type ChatHandler struct {
	chatService services.ChatService
	hub         *socket.Hub
}

func NewChatHandler(chatService services.ChatService, hub *socket.Hub) *ChatHandler {
	return &ChatHandler{chatService: chatService, hub: hub}
}

func (ch *ChatHandler) ListChats(c *gin.Context) {
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	chats, err := ch.chatService.ListByWorkspace(c.Request.Context(), wsID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (ch *ChatHandler) GetChat(c *gin.Context) {
	id, ok := uuidParam(c, "chatId")
	if !ok {
		return
	}
	chat, err := ch.chatService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

func (ch *ChatHandler) CreateChat(c *gin.Context) {
	ctx := c.Request.Context()
	wsID, ok := uuidParam(c, "workspaceId")
	if !ok {
		return
	}
	var req services.ChatInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	chat, err := ch.chatService.Create(ctx, wsID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ch.hub.Flush(ctx)
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

func (ch *ChatHandler) RenameChat(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := uuidParam(c, "chatId")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	chat, err := ch.chatService.Rename(ctx, id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	ch.hub.Flush(ctx)
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := uuidParam(c, "chatId")
	if !ok {
		return
	}
	if err := ch.chatService.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	ch.hub.Flush(ctx)
	c.Status(http.StatusNoContent)
}

func (ch *ChatHandler) GetChatFiles(c *gin.Context) {
	id, ok := uuidParam(c, "chatId")
	if !ok {
		return
	}
	files, err := ch.chatService.Files(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (ch *ChatHandler) AttachChatFiles(c *gin.Context) {
	id, ok := uuidParam(c, "chatId")
	if !ok {
		return
	}
	var req struct {
		FileIDs []uuid.UUID `json:"fileIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	files, err := ch.chatService.AttachFiles(c.Request.Context(), id, req.FileIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}
