//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/lancet-project/lancet/internal/academic"
	academicArxiv "github.com/lancet-project/lancet/internal/academic/arxiv"
	"github.com/lancet-project/lancet/internal/academic/crossref"
	"github.com/lancet-project/lancet/internal/academic/openalex"
	"github.com/lancet-project/lancet/internal/academic/semanticscholar"
	"github.com/lancet-project/lancet/internal/academic/unpaywall"
	"github.com/lancet-project/lancet/internal/api"
	"github.com/lancet-project/lancet/internal/api/handlers"
	"github.com/lancet-project/lancet/internal/budget"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/citation"
	"github.com/lancet-project/lancet/internal/config"
	"github.com/lancet-project/lancet/internal/evidence"
	"github.com/lancet-project/lancet/internal/ids"
	"github.com/lancet-project/lancet/internal/messaging"
	"github.com/lancet-project/lancet/internal/messaging/embedded"
	"github.com/lancet-project/lancet/internal/providers"
	"github.com/lancet-project/lancet/internal/providers/arxiv"
	"github.com/lancet-project/lancet/internal/providers/exa"
	"github.com/lancet-project/lancet/internal/providers/semantic_scholar"
	"github.com/lancet-project/lancet/internal/providers/tavily"
	"github.com/lancet-project/lancet/internal/repository"
	"github.com/lancet-project/lancet/internal/retry"
	"github.com/lancet-project/lancet/internal/serp"
	"github.com/lancet-project/lancet/internal/services"
	"github.com/lancet-project/lancet/internal/works"
)

// Application represents the complete application with all dependencies
type Application struct {
	Config          *config.Config
	Database        *repository.Database
	Messaging       *messaging.Client
	EmbeddedManager *embedded.Manager
	Services        *services.Container
	Handlers        *handlers.Container
	Router          *gin.Engine
	Traverser       *citation.Traverser
	EvidenceGraphs  func(taskID string) (*evidence.Graph, bool)
	Logger          *slog.Logger
}

// NewApplication creates the main application instance
func NewApplication(
	cfg *config.Config,
	db *repository.Database,
	messaging *messaging.Client,
	embeddedManager *embedded.Manager,
	services *services.Container,
	handlers *handlers.Container,
	router *gin.Engine,
	traverser *citation.Traverser,
	evidenceGraphs *evidenceGraphStore,
	logger *slog.Logger,
) *Application {
	return &Application{
		Config:          cfg,
		Database:        db,
		Messaging:       messaging,
		EmbeddedManager: embeddedManager,
		Services:        services,
		Handlers:        handlers,
		Router:          router,
		Traverser:       traverser,
		EvidenceGraphs:  evidenceGraphs.get,
		Logger:          logger,
	}
}

// Provider sets for Wire dependency injection
var ConfigProviderSet = wire.NewSet(
	config.LoadConfig,
	ProvideLogger,
)

var DatabaseProviderSet = wire.NewSet(
	ProvideDatabase,
	ProvideRepositories,
)

var MessagingProviderSet = wire.NewSet(
	ProvideEmbeddedManager,
	ProvideMessagingFromEmbedded,
)

var ServicesProviderSet = wire.NewSet(
	ProvideServices,
	ProvideProviderManager,
)

var HandlersProviderSet = wire.NewSet(
	ProvideHandlers,
)

var APIProviderSet = wire.NewSet(
	ProvideConcreteSearchService,
	ProvideConcretePaperService,
	ProvideConcreteAuthorService,
	ProvideConcreteHealthHandler,
	ProvideRouter,
)

var LancetProviderSet = wire.NewSet(
	ProvideAcademicClients,
	ProvideCanonicalIndex,
	ProvideIDResolver,
	ProvideCitationTraverser,
	ProvideBudgetManager,
	ProvideWorksPersister,
	ProvideEvidenceGraphStore,
	ProvideSerpRouter,
	ProvideSerpPipeline,
	ProvideLancetHandler,
	ProvideEvidenceIntegrityHandler,
)

// ApplicationProviderSet combines all provider sets
var ApplicationProviderSet = wire.NewSet(
	ConfigProviderSet,
	DatabaseProviderSet,
	MessagingProviderSet,
	ServicesProviderSet,
	HandlersProviderSet,
	LancetProviderSet,
	APIProviderSet,
	NewApplication,
)

// Provider functions

// ProvideLogger creates a structured logger instance
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// ProvideDatabase creates a database instance
func ProvideDatabase(cfg *config.Config, logger *slog.Logger) (*repository.Database, error) {
	return repository.NewDatabase(cfg, logger)
}

// ProvideRepositories creates repository instances
func ProvideRepositories(db *repository.Database, logger *slog.Logger) *repository.Container {
	return repository.NewContainer(db.DB, logger)
}

// ProvideEmbeddedManager creates an embedded NATS manager
func ProvideEmbeddedManager(cfg *config.Config, logger *slog.Logger) (*embedded.Manager, error) {
	return embedded.NewManager(&cfg.NATS, logger)
}

// ProvideMessagingFromEmbedded provides messaging client from embedded manager
func ProvideMessagingFromEmbedded(embeddedManager *embedded.Manager) *messaging.Client {
	return embeddedManager.GetClient()
}

// ProvideProviderManager creates a provider manager instance
func ProvideProviderManager(logger *slog.Logger) providers.ProviderManager {
	managerConfig := providers.ManagerConfig{
		AggregationStrategy: providers.StrategyMerge,
		MaxConcurrency:      5,
		Timeout:             30 * time.Second,
	}
	manager := providers.NewManager(logger, managerConfig)

	// Initialize providers
	initializeProviders(manager, logger)
	return manager
}

// initializeProviders sets up all search providers
func initializeProviders(manager providers.ProviderManager, logger *slog.Logger) {
	// Initialize ArXiv provider
	arxivConfig := providers.ProviderConfig{
		Enabled:    true,
		BaseURL:    "https://export.arxiv.org/api/query",
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
	arxivProvider := arxiv.NewProvider(arxivConfig, logger)
	manager.RegisterProvider("arxiv", arxivProvider)

	// Initialize Semantic Scholar provider
	ssConfig := providers.ProviderConfig{
		Enabled:    true,
		BaseURL:    "https://api.semanticscholar.org/graph/v1",
		Timeout:    15 * time.Second,
		MaxRetries: 3,
		APIKey:     "", // Optional for basic usage
	}
	ssProvider := semantic_scholar.NewProvider(ssConfig, logger)
	manager.RegisterProvider("semantic_scholar", ssProvider)

	// Initialize Exa provider (requires API key)
	exaConfig := providers.ProviderConfig{
		Enabled:    false, // Disabled by default, enable when API key is available
		BaseURL:    "https://api.exa.ai",
		Timeout:    20 * time.Second,
		MaxRetries: 3,
		APIKey:     "", // Must be configured
	}
	exaProvider := exa.NewProvider(exaConfig, logger)
	manager.RegisterProvider("exa", exaProvider)

	// Initialize Tavily provider (requires API key)
	tavilyConfig := providers.ProviderConfig{
		Enabled:    false, // Disabled by default, enable when API key is available
		BaseURL:    "https://api.tavily.com",
		Timeout:    25 * time.Second,
		MaxRetries: 3,
		APIKey:     "", // Must be configured
	}
	tavilyProvider := tavily.NewProvider(tavilyConfig, logger)
	manager.RegisterProvider("tavily", tavilyProvider)

	logger.Info("Search providers initialized",
		slog.Int("total_providers", len(manager.GetAllProviders())),
		slog.Int("enabled_providers", len(manager.GetEnabledProviders())))
}

// ProvideServices creates service instances
func ProvideServices(repos *repository.Container, messaging *messaging.Client, providerManager providers.ProviderManager, logger *slog.Logger) *services.Container {
	return services.NewContainer(repos, messaging, providerManager, logger)
}

// ProvideHandlers creates HTTP handler instances
func ProvideHandlers(services *services.Container, logger *slog.Logger) *handlers.Container {
	return handlers.NewContainer(services, logger)
}

// ProvideConcreteSearchService creates a concrete search service
func ProvideConcreteSearchService(repos *repository.Container, messaging *messaging.Client, providerManager providers.ProviderManager, logger *slog.Logger) *services.SearchService {
	return services.NewSearchService(repos.Search, repos.Paper, messaging, providerManager, logger).(*services.SearchService)
}

// ProvideConcretePaperService creates a concrete paper service
func ProvideConcretePaperService(repos *repository.Container, messaging *messaging.Client, logger *slog.Logger) *services.PaperService {
	return services.NewPaperService(repos.Paper, messaging, logger).(*services.PaperService)
}

// ProvideConcreteAuthorService creates a concrete author service
func ProvideConcreteAuthorService(repos *repository.Container, messaging *messaging.Client, logger *slog.Logger) *services.AuthorService {
	return services.NewAuthorService(repos.Author, repos.Paper, messaging, logger).(*services.AuthorService)
}

// ProvideConcreteHealthHandler creates a concrete health handler
func ProvideConcreteHealthHandler(services *services.Container, logger *slog.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(services.Health, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	searchService *services.SearchService,
	paperService *services.PaperService,
	authorService *services.AuthorService,
	healthHandler *handlers.HealthHandler,
	lancetHandler *handlers.LancetHandler,
	evidenceHandler *handlers.EvidenceIntegrityHandler,
	providerManager providers.ProviderManager,
	logger *slog.Logger,
) *gin.Engine {
	return api.NewRouter(
		searchService,
		paperService,
		authorService,
		healthHandler,
		lancetHandler,
		evidenceHandler,
		logger,
	)
}

// Lancet research-pipeline providers

// ProvideAcademicClients constructs the five academic API adapters, sharing
// one http.Client across all of them. Of the Providers config block only
// Unpaywall's contact email is read; the other provider settings are unused.
func ProvideAcademicClients(cfg *config.Config, logger *slog.Logger) []academic.Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return []academic.Client{
		semanticscholar.New(httpClient, logger),
		openalex.New(httpClient, logger),
		crossref.New(httpClient, logger),
		academicArxiv.New(httpClient, logger),
		unpaywall.New(httpClient, logger, cfg.Providers.Unpaywall.ContactEmail),
	}
}

// ProvideCanonicalIndex builds the process-wide paper-identity dedup index.
func ProvideCanonicalIndex(cfg *config.Config) *canonical.Index {
	return canonical.NewIndexWithThreshold(cfg.Canonical.TitleSimilarityThreshold)
}

// ProvideIDResolver builds the cross-identifier resolver used by SerpComplementRouter.
func ProvideIDResolver(logger *slog.Logger) *ids.Resolver {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	retryEngine := retry.NewEngine(retry.AcademicAPIPolicy(), nil, nil, logger)
	return ids.NewResolver(httpClient, retryEngine, logger)
}

// ProvideCitationTraverser builds the BFS citation-graph expander.
func ProvideCitationTraverser(clients []academic.Client, index *canonical.Index, msgClient *messaging.Client, logger *slog.Logger) *citation.Traverser {
	return citation.NewTraverser(clients, index, logger).WithMessaging(msgClient)
}

// ProvideBudgetManager builds the per-domain daily request/page budget tracker.
func ProvideBudgetManager(cfg *config.Config, msgClient *messaging.Client, logger *slog.Logger) *budget.Manager {
	defaults := budget.DomainPolicy{
		MaxRequestsPerDay: cfg.Budget.DefaultDailyRequests,
		MaxPagesPerDay:    cfg.Budget.DefaultDailyPages,
	}
	return budget.NewManager(func(string) (budget.DomainPolicy, bool) {
		return defaults, true
	}, logger).WithMessaging(msgClient)
}

// ProvideWorksPersister builds the bibliographic-record persistence layer.
func ProvideWorksPersister(db *repository.Database, msgClient *messaging.Client, logger *slog.Logger) *works.Persister {
	return works.NewPersister(db.DB, logger).WithMessaging(msgClient)
}

// findAcademicClient returns the client registered under the given Name(),
// panicking at wire-build time if it is missing since ProvideAcademicClients
// always constructs both semantic_scholar and openalex.
func findAcademicClient(clients []academic.Client, name string) academic.Client {
	for _, c := range clients {
		if c.Name() == name {
			return c
		}
	}
	panic("lancet: academic client " + name + " not registered")
}

// ProvideSerpRouter builds the SerpComplementRouter that completes spec §2's
// control flow: SERP result -> IdentifierExtractor -> CanonicalPaperIndex ->
// SerpComplementRouter -> AcademicClients.
func ProvideSerpRouter(clients []academic.Client, resolver *ids.Resolver, index *canonical.Index, logger *slog.Logger) *serp.Router {
	semanticScholar := findAcademicClient(clients, "semantic_scholar")
	openAlex := findAcademicClient(clients, "openalex")
	return serp.NewRouter(semanticScholar, openAlex, resolver, index, logger)
}

// ProvideSerpPipeline wires the exa/tavily SERP providers already registered
// in the provider manager into the canonical index and SerpComplementRouter,
// completing the ingestion path named in SPEC_FULL.md §6.
func ProvideSerpPipeline(providerManager providers.ProviderManager, index *canonical.Index, router *serp.Router, persister *works.Persister, logger *slog.Logger) *serp.Pipeline {
	return serp.NewPipeline(providerManager, index, router, persister, logger)
}

// evidenceGraphStore is a minimal in-memory registry of per-task evidence
// graphs, keyed by task ID, looked up by the integrity endpoint and MCP tool.
// Nothing in this wiring adds graphs to it, so every lookup reports no graph.
type evidenceGraphStore struct {
	mu     sync.Mutex
	graphs map[string]*evidence.Graph
}

func (s *evidenceGraphStore) get(taskID string) (*evidence.Graph, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[taskID]
	return g, ok
}

// ProvideEvidenceGraphStore builds the per-task evidence graph registry.
func ProvideEvidenceGraphStore() *evidenceGraphStore {
	return &evidenceGraphStore{graphs: make(map[string]*evidence.Graph)}
}

// ProvideLancetHandler builds the citation/budget/persist/serp HTTP handler.
func ProvideLancetHandler(traverser *citation.Traverser, budgetMgr *budget.Manager, persister *works.Persister, pipeline *serp.Pipeline, logger *slog.Logger) *handlers.LancetHandler {
	return handlers.NewLancetHandler(traverser, budgetMgr, persister, pipeline, logger)
}

// ProvideEvidenceIntegrityHandler builds the evidence-integrity HTTP handler.
func ProvideEvidenceIntegrityHandler(store *evidenceGraphStore, logger *slog.Logger) *handlers.EvidenceIntegrityHandler {
	return handlers.NewEvidenceIntegrityHandler(store.get, logger)
}

// ProvideDevelopmentConfig creates a development configuration
func ProvideDevelopmentConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback to development defaults
		cfg = &config.Config{}
		cfg.Server.Mode = "debug"
		cfg.Server.Port = 8080
		cfg.Database.Type = "sqlite"
		cfg.Database.SQLite.Path = "./dev-lancet.db"
		cfg.Database.SQLite.AutoMigrate = true
		cfg.NATS.URL = "nats://localhost:4222"
		cfg.NATS.Embedded.Enabled = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}
	return cfg
}

// ProvideTestConfig creates a test configuration
func ProvideTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.Port = 0 // Random port for testing
	cfg.Database.Type = "sqlite"
	cfg.Database.SQLite.Path = ":memory:"
	cfg.Database.SQLite.AutoMigrate = true
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "text"
	return cfg
}

// InitializeApplication creates a fully configured application using Wire
func InitializeApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(ApplicationProviderSet)
	return &Application{}, func() {}, nil
}

// InitializeDevelopmentApplication creates an application instance for development
func InitializeDevelopmentApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		ProvideDevelopmentConfig,
		ProvideLogger,
		ProvideDatabase,
		ProvideEmbeddedManager,
		ProvideMessagingFromEmbedded,
		ProvideRepositories,
		ProvideProviderManager,
		ProvideServices,
		ProvideHandlers,
		ProvideConcreteSearchService,
		ProvideConcretePaperService,
		ProvideConcreteAuthorService,
		ProvideConcreteHealthHandler,
		LancetProviderSet,
		ProvideRouter,
		NewApplication,
	)
	return &Application{}, func() {}, nil
}

// InitializeTestApplication creates an application instance for testing
func InitializeTestApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		ProvideTestConfig,
		ProvideLogger,
		ProvideDatabase,
		ProvideEmbeddedManager,
		ProvideMessagingFromEmbedded,
		ProvideRepositories,
		ProvideProviderManager,
		ProvideServices,
		ProvideHandlers,
		ProvideConcreteSearchService,
		ProvideConcretePaperService,
		ProvideConcreteAuthorService,
		ProvideConcreteHealthHandler,
		LancetProviderSet,
		ProvideRouter,
		NewApplication,
	)
	return &Application{}, func() {}, nil
}
