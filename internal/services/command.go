package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const CommandSystemPrompt = "Respond to the user."

// CommandService answers a single prompt with the default Claude model.
type CommandService interface {
	Run(ctx context.Context, input string) (string, error)
}

type commandService struct {
	log         *logger.Logger
	registry    *llm.Registry
	anthropic   *AnthropicProvider
	profileRepo repos.ProfileRepo
}

func NewCommandService(log *logger.Logger, registry *llm.Registry, anthropic *AnthropicProvider, profileRepo repos.ProfileRepo) CommandService {
	return &commandService{
		log:         log.With("service", "CommandService"),
		registry:    registry,
		anthropic:   anthropic,
		profileRepo: profileRepo,
	}
}

func (cs *commandService) Run(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", invalid("input is required")
	}
	var profile *types.Profile
	if userID := requestdata.UserID(ctx); userID != uuid.Nil {
		profiles, err := cs.profileRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
		if err != nil {
			return "", err
		}
		if len(profiles) > 0 {
			profile = profiles[0]
		}
	}
	modelID := cs.registry.DefaultClaudeModelID()
	return cs.anthropic.Complete(ctx, profile, modelID, CommandSystemPrompt, input, 0)
}
