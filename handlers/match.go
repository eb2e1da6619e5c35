// handlers/match.go
package handlers

import (
	"gridiron-match-engine/services"

	"github.com/gofiber/fiber/v2"
)

// SetupMatchRoutes registers the simulation surface. Everything here sits
// behind the gateway auth applied globally in main — this is a
// service-to-service API, not a user-facing one.
func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService) {
	app.Get("/matches/live", matchService.ListLiveMatches)
	app.Get("/matches/:id/state", matchService.GetMatchState)
	app.Post("/matches/:id/start", matchService.StartMatch)
	app.Post("/matches/:id/stop", matchService.StopMatch)
	app.Post("/matches/:id/sync", matchService.SyncMatch)
}
