package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/errordata"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/services"
)

type DebugHandler struct {
	enabled          bool
	profileService   services.ProfileService
	workspaceService services.WorkspaceService
}

func NewDebugHandler(enabled bool, profileService services.ProfileService, workspaceService services.WorkspaceService) *DebugHandler {
	return &DebugHandler{enabled: enabled, profileService: profileService, workspaceService: workspaceService}
}

// GetDebug reports what the backend sees for the caller. Lookup failures
// are returned inline rather than failing the request.
func (dh *DebugHandler) GetDebug(c *gin.Context) {
	if !dh.enabled {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	ctx := c.Request.Context()
	rd := requestdata.GetRequestData(ctx)

	out := gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339Nano)}
	if rd != nil {
		out["session"] = gin.H{"userId": rd.UserID, "sessionId": rd.SessionID, "role": rd.Role}
	}
	if profile, err := dh.profileService.Get(ctx); err != nil {
		errordata.Record(ctx, err)
		out["profile"] = gin.H{"error": err.Error()}
	} else {
		out["profile"] = gin.H{"profile": profile}
	}
	if workspaces, err := dh.workspaceService.List(ctx); err != nil {
		out["workspaces"] = gin.H{"error": err.Error()}
	} else {
		out["workspaces"] = gin.H{"workspaces": workspaces}
	}
	c.JSON(http.StatusOK, out)
}
