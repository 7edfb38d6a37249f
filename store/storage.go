package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docchat/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Storer interface {
	SaveDocument(context.Context, types.Document) error
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	ListDocuments(context.Context) ([]types.Document, error)
	DeleteDocument(context.Context, uuid.UUID) error

	CreateConversation(context.Context, *types.Conversation) error
	GetConversationByID(context.Context, uuid.UUID) (*types.Conversation, error)
	ListConversations(context.Context) ([]types.Conversation, error)
	DeleteConversation(context.Context, uuid.UUID) error
	TouchConversation(context.Context, uuid.UUID) error

	AppendMessage(context.Context, *types.Message) error
	ListMessages(context.Context, uuid.UUID) ([]types.Message, error)

	ListAutomations(context.Context) ([]types.Automation, error)
	GetAutomationByID(context.Context, uuid.UUID) (*types.Automation, error)
	SeedAutomations(context.Context, []types.Automation) error

	ListDataSources(context.Context) ([]types.DataSource, error)
	SeedDataSources(context.Context, []types.DataSource) error
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) SaveDocument(ctx context.Context, doc types.Document) error {
	query := `INSERT INTO documents (id, title, content, file_name, file_type, storage_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			file_name = EXCLUDED.file_name,
			file_type = EXCLUDED.file_type,
			storage_id = EXCLUDED.storage_id
			`
	_, err := p.pool.Exec(
		ctx,
		query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.FileName,
		doc.FileType,
		doc.StorageID,
		doc.UploadedAt,
	)

	return err
}

func (p *PostgresStore) GetDocumentByID(ctx context.Context, docID uuid.UUID) (*types.Document, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, title, content, file_name, file_type, storage_id, uploaded_at
		 FROM documents WHERE id = $1`, docID)

	doc := &types.Document{}
	err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.FileName, &doc.FileType, &doc.StorageID, &doc.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) ListDocuments(ctx context.Context) ([]types.Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, content, file_name, file_type, storage_id, uploaded_at
		 FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.FileName, &doc.FileType, &doc.StorageID, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", docID)
	return err
}

func (p *PostgresStore) CreateConversation(ctx context.Context, c *types.Conversation) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Title, c.CreatedAt, c.UpdatedAt)
	return err
}

func (p *PostgresStore) GetConversationByID(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = $1`, id)

	c := &types.Conversation{}
	err := row.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *PostgresStore) ListConversations(ctx context.Context) ([]types.Conversation, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []types.Conversation
	for rows.Next() {
		var c types.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (p *PostgresStore) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	// Messages go with it.
	_, err := p.pool.Exec(ctx, "DELETE FROM conversations WHERE id = $1", id)
	return err
}

// TouchConversation bumps updated_at so recently active conversations sort
// first.
func (p *PostgresStore) TouchConversation(ctx context.Context, id uuid.UUID) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE conversations SET updated_at = $2 WHERE id = $1", id, time.Now())
	return err
}

func (p *PostgresStore) AppendMessage(ctx context.Context, m *types.Message) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt)
	return err
}

func (p *PostgresStore) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]types.Message, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (p *PostgresStore) ListAutomations(ctx context.Context) ([]types.Automation, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, description, endpoint, parameters FROM automations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var autos []types.Automation
	for rows.Next() {
		var a types.Automation
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Endpoint, &a.Parameters); err != nil {
			return nil, err
		}
		autos = append(autos, a)
	}
	return autos, rows.Err()
}

func (p *PostgresStore) GetAutomationByID(ctx context.Context, id uuid.UUID) (*types.Automation, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, name, description, endpoint, parameters FROM automations WHERE id = $1`, id)

	a := &types.Automation{}
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Endpoint, &a.Parameters)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SeedAutomations inserts defaults, leaving existing rows with the same name
// untouched.
func (p *PostgresStore) SeedAutomations(ctx context.Context, autos []types.Automation) error {
	for _, a := range autos {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO automations (id, name, description, endpoint, parameters)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (name) DO NOTHING`,
			a.ID, a.Name, a.Description, a.Endpoint, a.Parameters)
		if err != nil {
			return fmt.Errorf("seed automation %q: %w", a.Name, err)
		}
	}
	return nil
}

func (p *PostgresStore) ListDataSources(ctx context.Context) ([]types.DataSource, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, description, endpoint, parameters, auth_required FROM data_sources ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []types.DataSource
	for rows.Next() {
		var ds types.DataSource
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.Endpoint, &ds.Parameters, &ds.AuthRequired); err != nil {
			return nil, err
		}
		sources = append(sources, ds)
	}
	return sources, rows.Err()
}

func (p *PostgresStore) SeedDataSources(ctx context.Context, sources []types.DataSource) error {
	for _, ds := range sources {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO data_sources (id, name, description, endpoint, parameters, auth_required)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (name) DO NOTHING`,
			ds.ID, ds.Name, ds.Description, ds.Endpoint, ds.Parameters, ds.AuthRequired)
		if err != nil {
			return fmt.Errorf("seed data source %q: %w", ds.Name, err)
		}
	}
	return nil
}

func (p *PostgresStore) createChatTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		storage_id TEXT,
		uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('user','assistant','system')),
		content TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS automations (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		parameters JSONB NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS data_sources (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		parameters JSONB NOT NULL DEFAULT '{}',
		auth_required BOOLEAN NOT NULL DEFAULT FALSE
	);
    `
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createChatTables(ctx)
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
