package seed

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/seed/assistant"
)

func SeedAll(
	ctx context.Context,
	db *gorm.DB,
	log *logger.Logger,
	assistantRepo repos.AssistantRepo,
	systemAssistantsPathJSON string,
) error {
	if systemAssistantsPathJSON == "" {
		log.Info("No system assistant seed file configured, skipping")
		return nil
	}
	log.Info("Running SeedAll... seeding system assistants", "path", systemAssistantsPathJSON)

	if err := assistant.SyncSystemAssistants(ctx, db, log, assistantRepo, systemAssistantsPathJSON); err != nil {
		return fmt.Errorf("failed to sync system assistants: %w", err)
	}

	log.Info("SeedAll Complete!")
	return nil
}
