package internal

import (
	"flairhq/internal/controllers"
	"flairhq/internal/providers"
	"flairhq/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, auth providers.AuthProviderInterface) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider(auth)

	routers.Get("/api/flairs", structures.AccessPublic, apiController.ListFlairs)

	routers.Post("/api/flair/apply", structures.AccessUser, apiController.Apply)
	routers.Post("/api/flair/text", structures.AccessUser, apiController.SetText)
	routers.Post("/api/claim/refresh", structures.AccessUser, apiController.RefreshClaim)

	routers.Get("/api/apps", structures.AccessModerator, apiController.GetApps)
	routers.Post("/api/apps/{id}/approve", structures.AccessModerator, apiController.ApproveApp)
	routers.Post("/api/apps/{id}/deny", structures.AccessModerator, apiController.DenyApp)
	return routers
}
