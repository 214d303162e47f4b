package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

// Seed is one entry of the system assistant seed file.
type Seed struct {
	Name                         string  `json:"name"`
	Description                  string  `json:"description"`
	Prompt                       string  `json:"prompt"`
	Model                        string  `json:"model"`
	Temperature                  float64 `json:"temperature"`
	ContextLength                int     `json:"contextLength"`
	IncludeProfileContext        bool    `json:"includeProfileContext"`
	IncludeWorkspaceInstructions bool    `json:"includeWorkspaceInstructions"`
	EmbeddingsProvider           string  `json:"embeddingsProvider"`
	ImagePath                    string  `json:"imagePath"`
}

func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading system assistant seed file: %w", err)
	}
	var seeds []Seed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed unmarshaling system assistants: %w", err)
	}
	return seeds, nil
}

// SyncSystemAssistants creates the seeded system assistants that are
// missing and rewrites the ones that drifted, matched by name. System
// assistants no longer in the file are kept since chats point at them.
func SyncSystemAssistants(ctx context.Context, db *gorm.DB, log *logger.Logger, assistantRepo repos.AssistantRepo, path string) error {
	seeds, err := LoadSeeds(path)
	if err != nil {
		return err
	}
	return Sync(ctx, db, log, assistantRepo, seeds)
}

func Sync(ctx context.Context, db *gorm.DB, log *logger.Logger, assistantRepo repos.AssistantRepo, seeds []Seed) error {
	names := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if s.Name == "" {
			return fmt.Errorf("system assistant seed without a name")
		}
		names = append(names, s.Name)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := assistantRepo.GetSystemByNames(ctx, tx, names)
		if err != nil {
			return fmt.Errorf("failed fetching existing system assistants: %w", err)
		}
		existingMap := make(map[string]*types.Assistant, len(existing))
		for _, a := range existing {
			existingMap[a.Name] = a
		}

		var toCreate, toUpdate []*types.Assistant
		for _, s := range seeds {
			if a, ok := existingMap[s.Name]; ok {
				if apply(a, s) {
					toUpdate = append(toUpdate, a)
				}
				continue
			}
			a := &types.Assistant{Name: s.Name, IsSystem: true, Sharing: types.SharingPublic}
			apply(a, s)
			toCreate = append(toCreate, a)
		}

		if len(toCreate) > 0 {
			if _, err := assistantRepo.Create(ctx, tx, toCreate); err != nil {
				return fmt.Errorf("failed creating system assistants: %w", err)
			}
		}
		if len(toUpdate) > 0 {
			if _, err := assistantRepo.Update(ctx, tx, toUpdate); err != nil {
				return fmt.Errorf("failed updating system assistants: %w", err)
			}
		}
		log.Info("System assistants synced", "created", len(toCreate), "updated", len(toUpdate))
		return nil
	})
}

// apply copies s onto a and reports whether anything changed.
func apply(a *types.Assistant, s Seed) bool {
	embeddings := s.EmbeddingsProvider
	if embeddings == "" {
		embeddings = "openai"
	}
	changed := a.Description != s.Description ||
		a.Prompt != s.Prompt ||
		a.Model != s.Model ||
		a.Temperature != s.Temperature ||
		a.ContextLength != s.ContextLength ||
		a.IncludeProfileContext != s.IncludeProfileContext ||
		a.IncludeWorkspaceInstructions != s.IncludeWorkspaceInstructions ||
		a.EmbeddingsProvider != embeddings ||
		a.ImagePath != s.ImagePath
	a.Description = s.Description
	a.Prompt = s.Prompt
	a.Model = s.Model
	a.Temperature = s.Temperature
	a.ContextLength = s.ContextLength
	a.IncludeProfileContext = s.IncludeProfileContext
	a.IncludeWorkspaceInstructions = s.IncludeWorkspaceInstructions
	a.EmbeddingsProvider = embeddings
	a.ImagePath = s.ImagePath
	return changed
}
