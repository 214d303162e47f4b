package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const maxProfileImageBytes = 6 << 20

type ProfileHandler struct {
	profileService services.ProfileService
	registry       *llm.Registry
	envKeyMap      map[string]bool
}

func NewProfileHandler(profileService services.ProfileService, registry *llm.Registry, envKeyMap map[string]bool) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, registry: registry, envKeyMap: envKeyMap}
}

func (ph *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := ph.profileService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (ph *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload.")
		return
	}
	profile, err := ph.profileService.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (ph *ProfileHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProfileImageBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	profile, err := ph.profileService.UploadImage(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetKeys tells the client which providers already have a server key, so
// the settings page can hide those inputs.
func (ph *ProfileHandler) GetKeys(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isUsingEnvKeyMap": ph.envKeyMap})
}

func (ph *ProfileHandler) GetModels(c *gin.Context) {
	var profile *types.Profile
	p, err := ph.profileService.Get(c.Request.Context())
	switch {
	case err == nil:
		profile = p
	case errors.Is(err, services.ErrNotFound):
	default:
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"envKeyMap":    ph.envKeyMap,
		"hostedModels": ph.registry.HostedModels(profile, ph.envKeyMap),
	})
}
