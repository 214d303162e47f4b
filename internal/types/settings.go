package types

import "github.com/google/uuid"

// ChatSettings is the effective configuration a chat runs with.
type ChatSettings struct {
	Model                        string  `json:"model"`
	Prompt                       string  `json:"prompt"`
	Temperature                  float64 `json:"temperature"`
	ContextLength                int     `json:"contextLength"`
	IncludeProfileContext        bool    `json:"includeProfileContext"`
	IncludeWorkspaceInstructions bool    `json:"includeWorkspaceInstructions"`
	EmbeddingsProvider           string  `json:"embeddingsProvider"`
}

type ChatFile struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

func ChatFileFrom(f *File) ChatFile {
	return ChatFile{ID: f.ID, Name: f.Name, Type: f.Type}
}

// ChatState is the quick-settings state a client holds for its open chat.
// It is passed in and handed back by the resolution flow; nothing keeps a
// copy between requests.
type ChatState struct {
	SelectedWorkspace *Workspace    `json:"selectedWorkspace"`
	SelectedAssistant *Assistant    `json:"selectedAssistant"`
	ChatSettings      *ChatSettings `json:"chatSettings"`
	ChatFiles         []ChatFile    `json:"chatFiles"`
	SelectedTools     []*Tool       `json:"selectedTools"`
	ShowFilesDisplay  bool          `json:"showFilesDisplay"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
