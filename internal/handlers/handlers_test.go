package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/db/dbtest"
	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/middleware"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db         *gorm.DB
	log        *logger.Logger
	registry   *llm.Registry
	profiles   repos.ProfileRepo
	assistants repos.AssistantRepo
	auth       services.AuthService
	admin      services.AdminService
	profile    services.ProfileService
	mw         *middleware.AuthMiddleware
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := dbtest.Open(t)
	log := logger.NewNop()
	registry := llm.NewRegistry("")
	users := repos.NewUserRepo(gdb, log)
	accounts := repos.NewAccountRepo(gdb, log)
	sessions := repos.NewSessionRepo(gdb, log)
	profiles := repos.NewProfileRepo(gdb, log)
	workspaces := repos.NewWorkspaceRepo(gdb, log)
	assistants := repos.NewAssistantRepo(gdb, log)

	auth := services.NewAuthService(gdb, log, registry, users, accounts, sessions, profiles, workspaces, "handler-secret", time.Hour, 24*time.Hour)
	admin := services.NewAdminService(gdb, log, repos.NewAdminRepo(gdb, log), assistants, profiles, nil)
	return &env{
		db:         gdb,
		log:        log,
		registry:   registry,
		profiles:   profiles,
		assistants: assistants,
		auth:       auth,
		admin:      admin,
		profile:    services.NewProfileService(gdb, log, profiles, nil, nil),
		mw:         middleware.NewAuthMiddleware(log, auth, admin),
	}
}

// signIn provisions a Google user and returns the access token and user id.
func (e *env) signIn(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	res, err := e.auth.SignInWithGoogle(context.Background(), services.GoogleIdentity{Email: email}, nil)
	require.NoError(t, err)
	return res.AccessToken, res.User.ID
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Message
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{&services.ValidationError{Message: "Name is required"}, http.StatusBadRequest, "Name is required"},
		{&services.ProviderError{Status: http.StatusTooManyRequests, Message: "slow down"}, http.StatusTooManyRequests, "slow down"},
		{&services.ProviderError{}, http.StatusInternalServerError, genericErrorMessage},
		{fmt.Errorf("wrapped: %w", services.ErrNotFound), http.StatusNotFound, "Not found"},
		{services.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{services.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{services.ErrStorageDenied, http.StatusServiceUnavailable, "File storage is not available"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, genericErrorMessage},
	}
	for _, tc := range cases {
		status, msg := errorStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
	}
}

func adminRouter(e *env) *gin.Engine {
	r := gin.New()
	h := NewAdminHandler(e.admin)
	r.POST("/api/admin/verify-deletion", middleware.RequireAdminToken("verify-token"), h.VerifyDeletion)
	api := r.Group("/api", e.mw.RequireAuth())
	api.POST("/admin/assistants/update", e.mw.RequireAdmin(), h.UpdateAssistant)
	return r
}

func TestAdminRouteHiddenFromNonAdmins(t *testing.T) {
	e := newEnv(t)
	r := adminRouter(e)
	token, _ := e.signIn(t, "writer@example.com")

	w := do(r, http.MethodPost, "/api/admin/assistants/update", token, `{"assistantId":"x","updates":{}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/admin/assistants/update", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUpdateAssistantRequests(t *testing.T) {
	e := newEnv(t)
	r := adminRouter(e)
	token, userID := e.signIn(t, "boss@example.com")
	require.NoError(t, e.db.Model(&types.Profile{}).Where("user_id = ?", userID).Update("user_role", "admin").Error)

	a := &types.Assistant{UserID: &userID, Name: "Reader", Model: "claude-3-5-sonnet-20240620", Sharing: types.SharingPrivate}
	_, err := e.assistants.Create(context.Background(), nil, []*types.Assistant{a})
	require.NoError(t, err)

	cases := []struct {
		body   string
		status int
		msg    string
	}{
		{`not json`, http.StatusBadRequest, "Invalid JSON payload."},
		{`{"updates":{"name":"x"}}`, http.StatusBadRequest, "assistantId is required."},
		{`{"assistantId":"` + a.ID.String() + `","updates":["name"]}`, http.StatusBadRequest, "updates must be an object."},
		{`{"assistantId":"not-a-uuid","updates":{"name":"x"}}`, http.StatusNotFound, "Assistant not found."},
		{`{"assistantId":"` + a.ID.String() + `"}`, http.StatusBadRequest, "No valid fields provided."},
		{`{"assistantId":"` + a.ID.String() + `","updates":null}`, http.StatusBadRequest, "No valid fields provided."},
		{`{"assistantId":"` + a.ID.String() + `","updates":{"owner":"me"}}`, http.StatusBadRequest, "No valid fields provided."},
		{`{"assistantId":"` + uuid.NewString() + `","updates":{"name":"x"}}`, http.StatusNotFound, "Not found"},
	}
	for _, tc := range cases {
		w := do(r, http.MethodPost, "/api/admin/assistants/update", token, tc.body)
		assert.Equal(t, tc.status, w.Code, tc.body)
		assert.Equal(t, tc.msg, message(t, w), tc.body)
	}

	w := do(r, http.MethodPost, "/api/admin/assistants/update", token,
		`{"assistantId":"`+a.ID.String()+`","updates":{"sharing":"public","user_id":"`+uuid.NewString()+`"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Assistant types.Assistant `json:"assistant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, types.SharingPublic, body.Assistant.Sharing)
	require.NotNil(t, body.Assistant.UserID)
	assert.Equal(t, userID, *body.Assistant.UserID)
}

func TestVerifyDeletionEndpoint(t *testing.T) {
	e := newEnv(t)
	r := adminRouter(e)

	w := do(r, http.MethodPost, "/api/admin/verify-deletion", "", `{"fileId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(r, http.MethodPost, "/api/admin/verify-deletion", "wrong", `{"fileId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	fileID := uuid.NewString()
	w = do(r, http.MethodPost, "/api/admin/verify-deletion", "verify-token", `{"fileId":"`+fileID+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotContains(t, report, "collection")
	assert.NotContains(t, report, "storage")
	file, ok := report["file"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, fileID, file["id"])
	assert.Len(t, file, 7)
	for table, n := range file {
		if table != "id" {
			assert.EqualValues(t, 0, n, table)
		}
	}

	w = do(r, http.MethodPost, "/api/admin/verify-deletion", "verify-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Provide a collectionId, fileId, or filePath.", message(t, w))
}

func TestStreamChatWithoutKey(t *testing.T) {
	e := newEnv(t)
	token, _ := e.signIn(t, "writer@example.com")
	h := NewProviderHandler(e.log, e.profile, services.NewAnthropicProvider(e.log, e.registry, "", ""))
	r := gin.New()
	r.POST("/api/chat/:provider", e.mw.RequireAuth(), h.StreamChat)

	body := `{"chatSettings":{"model":"claude-sonnet-4-20250514","temperature":0.5},"messages":[{"role":"user","content":"Hi"}]}`
	w := do(r, http.MethodPost, "/api/chat/anthropic", token, body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Anthropic API Key not found. Please set it in your profile settings.", message(t, w))

	w = do(r, http.MethodPost, "/api/chat/nobody", token, body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unknown provider", message(t, w))
}
