package api

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docchat/citation"
	"docchat/extract"
	"docchat/index"
	"docchat/store"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DocumentHandler struct {
	store     store.Storer
	engine    *index.Engine
	uploadDir string
}

func NewDocumentHandler(s store.Storer, e *index.Engine, uploadDir string) *DocumentHandler {
	return &DocumentHandler{
		store:     s,
		engine:    e,
		uploadDir: uploadDir,
	}
}

// HandleUpload saves the uploaded file, extracts its text and registers the
// document in both the database and the retrieval index.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewError(fiber.StatusBadRequest, "No file found in the request. Please select a file to upload.")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if types.FileTypeFor(ext) == types.FileOther {
		return ErrUnsupportedFileType(ext)
	}

	docID := uuid.New()
	path := filepath.Join(h.uploadDir, docID.String()+ext)
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}

	content, err := extract.Text(path)
	if err != nil {
		os.Remove(path)
		return NewError(fiber.StatusBadRequest, "Failed to process document: "+err.Error())
	}

	doc := types.Document{
		ID:         docID,
		Title:      extract.Title(fileHeader.Filename),
		Content:    content,
		FileName:   fileHeader.Filename,
		FileType:   types.FileTypeFor(ext),
		UploadedAt: time.Now(),
	}

	storageID, err := h.engine.Add(docID.String(), doc.Title, content)
	if err != nil {
		os.Remove(path)
		return err
	}
	doc.StorageID = storageID

	if err := h.store.SaveDocument(c.Context(), doc); err != nil {
		// Unwind the index registration so both stores stay in step.
		if derr := h.engine.Delete(storageID); derr == nil {
			os.Remove(path)
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	docs, err := h.store.ListDocuments(c.Context())
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []types.Document{}
	}
	return c.JSON(docs)
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, err := h.store.GetDocumentByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(id, "document")
	}
	if err != nil {
		return err
	}

	if doc.StorageID != "" {
		if err := h.engine.Delete(doc.StorageID); err != nil {
			return err
		}
	}

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	os.Remove(filepath.Join(h.uploadDir, doc.ID.String()+ext))

	if err := h.store.DeleteDocument(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"result": "deleted"})
}

// HandleCitation renders one citation. The style comes from the query string
// or the request body; anything unrecognized falls back to APA.
func (h *DocumentHandler) HandleCitation(c *fiber.Ctx) error {
	doc, err := h.document(c)
	if err != nil {
		return err
	}

	styleParam := c.Params("style")
	if styleParam == "" {
		styleParam = c.Query("style")
	}
	if c.Method() == fiber.MethodPost {
		var params types.CitationParams
		if c.BodyParser(&params) == nil && params.Style != "" {
			styleParam = params.Style
		}
	}
	style := citation.ParseStyle(styleParam)

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	return c.JSON(fiber.Map{
		"document_id": doc.ID.String(),
		"title":       doc.Title,
		"style":       string(style),
		"citation":    citation.Generate(style, doc.Title, doc.Content, doc.UploadedAt, ext),
	})
}

// HandleCitations renders the document in every supported style at once.
func (h *DocumentHandler) HandleCitations(c *fiber.Ctx) error {
	doc, err := h.document(c)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	citations := make(map[string]string, len(citation.Styles))
	for _, style := range citation.Styles {
		citations[string(style)] = citation.Generate(style, doc.Title, doc.Content, doc.UploadedAt, ext)
	}

	return c.JSON(fiber.Map{
		"document_id": doc.ID.String(),
		"title":       doc.Title,
		"citations":   citations,
	})
}

func (h *DocumentHandler) document(c *fiber.Ctx) (*types.Document, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, ErrInvalidID()
	}

	doc, err := h.store.GetDocumentByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound(id, "document")
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
