package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/errordata"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type ProviderHandler struct {
	log            *logger.Logger
	providers      map[string]services.ChatProvider
	profileService services.ProfileService
}

func NewProviderHandler(log *logger.Logger, profileService services.ProfileService, providers ...services.ChatProvider) *ProviderHandler {
	byName := make(map[string]services.ChatProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &ProviderHandler{
		log:            log.With("handler", "ProviderHandler"),
		providers:      byName,
		profileService: profileService,
	}
}

// StreamChat relays the conversation to the named provider as plain text.
// Failures before the first chunk become a JSON {message} with the mapped
// status; after that the stream is simply cut.
func (ph *ProviderHandler) StreamChat(c *gin.Context) {
	ctx := c.Request.Context()
	provider, ok := ph.providers[c.Param("provider")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown provider"})
		return
	}
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}

	var profile *types.Profile
	p, err := ph.profileService.Get(ctx)
	switch {
	case err == nil:
		profile = p
	case errors.Is(err, services.ErrNotFound):
	default:
		respondError(c, err)
		return
	}

	started := false
	onStart := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		c.Writer.Flush()
	}
	onDelta := func(chunk string) error {
		onStart()
		if _, err := io.WriteString(c.Writer, chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	if err := provider.StreamChat(ctx, req, profile, onStart, onDelta); err != nil {
		if !started {
			respondError(c, err)
			return
		}
		errordata.Record(ctx, err)
		ph.log.Warn("Stream ended with error", "provider", provider.Name(), "error", err)
	}
}

type CommandHandler struct {
	commandService services.CommandService
}

func NewCommandHandler(commandService services.CommandService) *CommandHandler {
	return &CommandHandler{commandService: commandService}
}

func (ch *CommandHandler) RunCommand(c *gin.Context) {
	var req struct {
		Input string `json:"input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	content, err := ch.commandService.Run(c.Request.Context(), req.Input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}
