package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"docchat/app/agent"
	"docchat/app/api"
	"docchat/app/command"
	"docchat/index"
	"docchat/loader"
	"docchat/model"
	"docchat/store"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    50 * 1024 * 1024,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
	pool, err := store.NewPostgresStore(ctx, connStr)
	if err != nil {
		log.Fatal("error to connect to Postgres database: ", err)
		return
	}

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables: ", err)
		return
	}

	if err := pool.SeedAutomations(ctx, command.DefaultAutomations()); err != nil {
		log.Fatal("error to seed automations: ", err)
		return
	}
	if err := pool.SeedDataSources(ctx, command.DefaultDataSources()); err != nil {
		log.Fatal("error to seed data sources: ", err)
		return
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatal("error to create upload dir: ", err)
		return
	}

	indexDir := os.Getenv("INDEX_DIR")
	if indexDir == "" {
		indexDir = "data"
	}

	opts := []index.Option{
		index.WithAssist(model.NewAssist(os.Getenv("ASSIST_URL"))),
	}
	size, _ := strconv.Atoi(os.Getenv("CHUNK_SIZE"))
	overlap, _ := strconv.Atoi(os.Getenv("CHUNK_OVERLAP"))
	if size > 0 {
		opts = append(opts, index.WithChunking(size, overlap))
	}
	engine := index.NewEngine(indexDir, opts...)

	if err := engine.Initialize(); err != nil {
		log.Fatal("error to initialize document index: ", err)
		return
	}
	if err := s.reconcileIndex(ctx, pool, engine); err != nil {
		log.Fatal("error to reconcile document index: ", err)
		return
	}

	// Files dropped into INGEST_DIR are picked up without going through the
	// upload endpoint.
	if ingestDir := os.Getenv("INGEST_DIR"); ingestDir != "" {
		if err := os.MkdirAll(ingestDir, 0o755); err != nil {
			log.Fatal("error to create ingest dir: ", err)
			return
		}
		settle, _ := time.ParseDuration(os.Getenv("INGEST_SETTLE"))
		go loader.NewService(pool, engine, ingestDir, settle).Run(ctx)
	}

	var (
		llmAgent            = agent.New(os.Getenv("LLM_URL"), os.Getenv("LLM_MODEL"))
		automationService   = command.NewAutomationService(pool)
		dataSourceService   = command.NewDataSourceService(pool)
		app                 = fiber.New(config)
		checkHandler        = api.NewCheckHandler(engine)
		conversationHandler = api.NewConversationHandler(pool)
		messageHandler      = api.NewMessageHandler(pool, engine, llmAgent, automationService, dataSourceService)
		documentHandler     = api.NewDocumentHandler(pool, engine, uploadDir)
		automationHandler   = api.NewAutomationHandler(pool, automationService)
		dataSourceHandler   = api.NewDataSourceHandler(pool, dataSourceService)
		debugHandler        = api.NewDebugHandler(engine, pool)
		check               = app.Group("/check")
		apiv1               = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/conversations", conversationHandler.HandleCreate)
	apiv1.Get("/conversations", conversationHandler.HandleList)
	apiv1.Get("/conversations/:id", conversationHandler.HandleGet)
	apiv1.Delete("/conversations/:id", conversationHandler.HandleDelete)
	apiv1.Get("/conversations/:id/messages", messageHandler.HandleList)
	apiv1.Post("/conversations/:id/messages", messageHandler.HandlePost)

	apiv1.Post("/documents/upload", documentHandler.HandleUpload)
	apiv1.Get("/documents", documentHandler.HandleList)
	apiv1.Delete("/documents/:id", documentHandler.HandleDelete)
	apiv1.Get("/documents/:id/citations", documentHandler.HandleCitations)
	apiv1.Get("/documents/:id/citations/:style", documentHandler.HandleCitation)
	apiv1.Post("/documents/:id/citations/:style", documentHandler.HandleCitation)

	apiv1.Get("/automations", automationHandler.HandleList)
	apiv1.Post("/automations/:id/trigger", automationHandler.HandleTrigger)
	apiv1.Get("/datasources", dataSourceHandler.HandleList)
	apiv1.Post("/datasources/:id/query", dataSourceHandler.HandleQuery)

	apiv1.Get("/debug/index", debugHandler.HandleIndex)

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

// reconcileIndex replays documents from the database into the retrieval
// index, repairing it after a lost or stale metadata file.
func (s *Server) reconcileIndex(ctx context.Context, pool store.Storer, engine *index.Engine) error {
	docs, err := pool.ListDocuments(ctx)
	if err != nil {
		return err
	}

	contents := make([]index.DocumentContent, len(docs))
	for i, doc := range docs {
		contents[i] = index.DocumentContent{
			ID:      doc.ID.String(),
			Title:   doc.Title,
			Content: doc.Content,
		}
	}
	return engine.Reconcile(contents)
}
