package types

import (
	"github.com/google/uuid"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// AllModels lists every table in migration order. Parents come before the
// join tables that reference them.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Session{},
		&Profile{},
		&Workspace{},
		&Assistant{},
		&Tool{},
		&File{},
		&FileItem{},
		&Collection{},
		&Chat{},
		&AssistantFile{},
		&AssistantCollection{},
		&AssistantTool{},
		&CollectionFile{},
		&CollectionWorkspace{},
		&ChatFileLink{},
		&FileWorkspace{},
	}
}
