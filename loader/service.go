package loader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docchat/extract"
	"docchat/index"
	"docchat/types"

	"github.com/google/uuid"
)

// DocumentStore is the slice of the persistence layer the loader needs.
type DocumentStore interface {
	SaveDocument(context.Context, types.Document) error
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
}

// Service ingests files dropped into a watched directory: extract the text,
// save the document and feed the retrieval index. Re-dropping a file with the
// same name updates the existing document.
type Service struct {
	store   DocumentStore
	engine  *index.Engine
	watcher *Watcher
	logger  *slog.Logger
}

func NewService(store DocumentStore, engine *index.Engine, dir string, settle time.Duration) *Service {
	return &Service{
		store:   store,
		engine:  engine,
		watcher: NewWatcher(dir, settle),
		logger:  slog.Default(),
	}
}

// Run drives the watch and ingest pipeline until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	fileChan := make(chan string, 10)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.watcher.Watch(ctx, fileChan)
	}()
	go func() {
		defer wg.Done()
		for path := range fileChan {
			s.ingest(ctx, path)
		}
	}()
	wg.Wait()
}

func (s *Service) ingest(ctx context.Context, path string) {
	if err := s.ingestFile(ctx, path); err != nil {
		s.logger.Error("[LOADER] ingest failed", "path", path, "error", err)
		if err := s.watcher.MoveToArchive(path, true); err != nil {
			s.logger.Error("[LOADER] archive failed", "path", path, "error", err)
		}
		return
	}

	if err := s.watcher.MoveToArchive(path, false); err != nil {
		s.logger.Error("[LOADER] archive failed", "path", path, "error", err)
	}
}

func (s *Service) ingestFile(ctx context.Context, path string) error {
	fileName := filepath.Base(path)
	docID := documentID(fileName)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	// Skip when the stored copy is at least as fresh as the dropped file.
	if existing, err := s.store.GetDocumentByID(ctx, docID); err == nil {
		if !info.ModTime().After(existing.UploadedAt) {
			s.logger.Info("[LOADER] file unchanged, skipping", "path", path)
			return nil
		}
	}

	content, err := extract.Text(path)
	if err != nil {
		return err
	}

	doc := types.Document{
		ID:         docID,
		Title:      extract.Title(fileName),
		Content:    content,
		FileName:   fileName,
		FileType:   types.FileTypeFor(strings.ToLower(filepath.Ext(fileName))),
		UploadedAt: time.Now(),
	}

	storageID, err := s.engine.Add(docID.String(), doc.Title, content)
	if err != nil {
		return err
	}
	doc.StorageID = storageID

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return err
	}

	s.logger.Info("[LOADER] document ingested", "document_id", docID, "title", doc.Title)
	return nil
}

// documentID derives a stable id from the file name so repeated drops of the
// same file update one document instead of accumulating copies.
func documentID(fileName string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fileName))
}
