package types

import (
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FilePDF   FileType = "pdf"
	FileWord  FileType = "word"
	FileText  FileType = "text"
	FileOther FileType = "other"
)

// FileTypeFor maps a file extension to its document type.
func FileTypeFor(ext string) FileType {
	switch ext {
	case ".pdf":
		return FilePDF
	case ".docx", ".doc":
		return FileWord
	case ".txt", ".md":
		return FileText
	default:
		return FileOther
	}
}

// Document is an uploaded source text, decomposed into chunks by the index.
type Document struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"-"`
	FileName   string    `json:"file_name"`
	FileType   FileType  `json:"file_type"`
	StorageID  string    `json:"storage_id,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Conversation groups an ordered message history.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single turn in a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Automation is an action that can be triggered with the @automation
// command. The parameter schema is genuinely free-form, so it stays an open
// map; values are human-readable descriptions, with "Required" marking
// mandatory parameters.
type Automation struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Endpoint    string            `json:"endpoint"`
	Parameters  map[string]string `json:"parameters"`
}

// DataSource is an external query target for the @datasource command.
type DataSource struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Endpoint     string            `json:"endpoint"`
	Parameters   map[string]string `json:"parameters"`
	AuthRequired bool              `json:"auth_required"`
}
