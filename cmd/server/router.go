package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/upkeepai/upkeep-api/internal/api"
	apimiddleware "github.com/upkeepai/upkeep-api/internal/api/middleware"
)

// setupRouter builds the HTTP route tree with all handlers and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordVerifier)
	itemHandler := api.NewItemHandler(app.itemService, app.delivery, app.logger)
	taskHandler := api.NewTaskHandler(app.delivery, app.logger)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)
		r.Post("/auth/signout", authHandler.Signout)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/items", itemHandler.CreateItem)
			r.Get("/items", itemHandler.ListItems)
			r.Get("/items/items-and-tasks", itemHandler.ListItemsWithTasks)
			r.Delete("/items/{id}", itemHandler.DeleteItem)

			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/item/{itemID}", taskHandler.GetItemTasks)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
