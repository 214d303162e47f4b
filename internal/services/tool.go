package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

type ToolInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	URL           string          `json:"url"`
	Schema        json.RawMessage `json:"schema"`
	CustomHeaders json.RawMessage `json:"customHeaders"`
}

type ToolService interface {
	Create(ctx context.Context, in ToolInput) (*types.Tool, error)
	List(ctx context.Context) ([]*types.Tool, error)
}

type toolService struct {
	db       *gorm.DB
	log      *logger.Logger
	toolRepo repos.ToolRepo
}

func NewToolService(db *gorm.DB, log *logger.Logger, toolRepo repos.ToolRepo) ToolService {
	serviceLog := log.With("service", "ToolService")
	return &toolService{db: db, log: serviceLog, toolRepo: toolRepo}
}

func (ts *toolService) Create(ctx context.Context, in ToolInput) (*types.Tool, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	name := utils.ParseInputString(in.Name)
	if name == "" {
		return nil, invalid("Tool name is required")
	}
	if err := utils.CheckMaxLength("Tool name", name, types.MaxToolNameLength); err != nil {
		return nil, invalid("%s", err.Error())
	}
	rawURL := utils.ParseInputString(in.URL)
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("Tool url must be an http or https URL")
		}
	}
	schema, err := jsonObject("schema", in.Schema)
	if err != nil {
		return nil, err
	}
	headers, err := jsonObject("customHeaders", in.CustomHeaders)
	if err != nil {
		return nil, err
	}
	var headerMap map[string]string
	if err := json.Unmarshal(headers, &headerMap); err != nil {
		return nil, invalid("customHeaders must map header names to strings")
	}

	tool := &types.Tool{
		UserID:        userID,
		Name:          name,
		Description:   utils.ParseInputString(in.Description),
		URL:           rawURL,
		Schema:        schema,
		CustomHeaders: headers,
		Sharing:       types.SharingPrivate,
	}
	if _, err := ts.toolRepo.Create(ctx, nil, []*types.Tool{tool}); err != nil {
		return nil, fmt.Errorf("failed to create tool: %w", err)
	}
	return tool, nil
}

// List returns the caller's tools and public ones, newest first.
func (ts *toolService) List(ctx context.Context) ([]*types.Tool, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return ts.toolRepo.GetByUserID(ctx, nil, userID)
}

// jsonObject accepts an absent value as {} and rejects anything that is not
// a JSON object.
func jsonObject(field string, raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, invalid("%s must be a JSON object", field)
	}
	return datatypes.JSON(raw), nil
}
