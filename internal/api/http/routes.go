package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-portal/internal/catalog"
	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
	"github.com/mind-engage/mindengage-portal/internal/storage"
	syncx "github.com/mind-engage/mindengage-portal/internal/sync"
	"github.com/mind-engage/mindengage-portal/internal/users"
)

// Deps are the services behind the API.
type Deps struct {
	Bank      exam.Bank
	Progress  progress.Store
	Ledger    exam.Ledger
	Evaluator *exam.Evaluator
	Catalog   *catalog.Service
	Blobs     storage.BlobStore
	Users     *users.Store
	Events    *syncx.EventRepo // optional
}

// Mount registers the API on a router that already authenticates requests
// (subject and role in context).
func Mount(r chi.Router, d Deps) {
	r.Route("/questions", func(qr chi.Router) {
		qr.With(rbac.Require("question:view")).Get("/", ListQuestionsHandler(d.Bank))
		qr.With(rbac.Require("question:create")).Post("/", CreateQuestionHandler(d.Bank))
		qr.With(rbac.Require("question:import")).Post("/bulk", BulkImportQuestionsHandler(d.Bank))
	})

	r.Route("/progress/{studentID}", func(pr chi.Router) {
		pr.Use(rbac.OwnerOr("progress:view-own", "progress:view-all", studentParam))
		pr.Get("/", ListProgressHandler(d.Progress))
		pr.Get("/{key}", GetProgressHandler(d.Progress))
	})

	r.With(rbac.RequireAny("test:submit-own", "test:submit-all")).
		Post("/tests/submit", SubmitTestHandler(d.Evaluator))
	r.With(rbac.OwnerOr("progress:view-own", "progress:view-all", studentParam)).
		Get("/tests/history/{studentID}", HistoryHandler(d.Ledger))
	r.With(rbac.Require("analytics:view")).
		Get("/analytics/tests", AnalyticsHandler(d.Ledger))

	r.Route("/catalog", func(cr chi.Router) {
		cr.With(rbac.Require("catalog:view")).Get("/", CatalogHandler(d.Catalog))
		cr.With(rbac.Require("catalog:view")).Get("/{key}", CatalogEntryHandler(d.Catalog))
		cr.With(rbac.Require("catalog:edit")).Post("/patches", CatalogPatchHandler(d.Catalog))
	})

	r.Route("/materials", func(mr chi.Router) {
		MountMaterials(mr, d.Blobs, d.Catalog)
	})

	r.Route("/users", func(ur chi.Router) {
		ur.With(rbac.Require("users:bulk_upsert")).Post("/bulk", BulkUpsertUsersHandler(d.Users))
		ur.With(rbac.Require("users:list")).Get("/", ListUsersHandler(d.Users))
		ur.With(rbac.Require("user:change_password")).Post("/change-password", ChangePasswordHandler(d.Users))
		ur.With(rbac.Require("users:update_role")).Patch("/{userID}/role", AdminUpdateUserRoleHandler(d.Users))
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(rbac.Require("admin:compliance"))
		ar.Post("/pii/export", AdminPIIExportHandler(d.Users, d.Progress, d.Ledger))
		ar.Post("/pii/delete", AdminPIIDeleteHandler(d.Users))
		if d.Events != nil {
			ar.Get("/audit", AdminAuditSearchHandler(d.Events))
		}
	})

	if d.Events != nil {
		r.With(rbac.Require("events:view")).Get("/events", EventsHandler(d.Events))
	}
}
