package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "dossierapi/docs"
	"dossierapi/internal/http/middleware"
	"dossierapi/internal/service"
	"dossierapi/internal/storage"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	DB        *sql.DB
	Storage   storage.Storage
	Gatherer  prometheus.Gatherer
	Auth      service.AuthService
	Dossiers  service.DossierService
	Documents service.DocumentService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/docs", DocsPage())
	app.Get("/health", HealthCheck(deps.DB, deps.Storage))
	app.Get("/healthz", LivenessProbe())
	// Host and schemes stay empty so the UI targets whatever host served it.
	app.Get("/swagger/*", swagger.HandlerDefault)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", Register(deps.Auth))
	authGroup.Post("/login", Login(deps.Auth))

	authed := middleware.Auth(deps.Auth)
	authGroup.Post("/logout", authed, Logout(deps.Auth))
	authGroup.Get("/user", authed, CurrentUser())

	scoped := middleware.RequireAbility(middleware.AbilityRead, middleware.AbilityWrite)

	tokens := app.Group("/tokens", authed, scoped)
	tokens.Get("/", ListTokens(deps.Auth))
	tokens.Post("/", CreateToken(deps.Auth))
	tokens.Delete("/:tokenId", RevokeToken(deps.Auth))

	dossiers := app.Group("/dossiers", authed, scoped)
	dossiers.Get("/", ListDossiers(deps.Dossiers))
	dossiers.Post("/", CreateDossier(deps.Dossiers))
	dossiers.Get("/stats", DossierStats(deps.Dossiers))
	dossiers.Get("/options", DossierOptions(deps.Dossiers))
	dossiers.Get("/:id", GetDossier(deps.Dossiers))
	dossiers.Put("/:id", UpdateDossier(deps.Dossiers))
	dossiers.Delete("/:id", DeleteDossier(deps.Dossiers))
	dossiers.Post("/:id/status", TransitionDossier(deps.Dossiers))
	dossiers.Put("/:id/officer", AssignOfficer(deps.Dossiers))
	dossiers.Post("/:id/notes", AddNote(deps.Dossiers))

	dossiers.Get("/:id/documents/types", DocumentTypes(deps.Documents))
	dossiers.Get("/:id/documents", ListDocuments(deps.Documents))
	dossiers.Post("/:id/documents", UploadDocument(deps.Documents))
	dossiers.Get("/:id/documents/:docId", GetDocument(deps.Documents))
	dossiers.Delete("/:id/documents/:docId", DeleteDocument(deps.Documents))
	dossiers.Get("/:id/documents/:docId/download", DownloadDocument(deps.Documents))
}
