//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"flairhq/internal"
	"flairhq/internal/audit"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/controllers"
	"flairhq/internal/providers"
	"flairhq/internal/reddit"
	"flairhq/internal/services"
	"flairhq/internal/storage"
	"flairhq/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		ProvideLogger,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewAuthProvider,

		ProvideSQLiteStore,
		ProvideEventStore,
		ProvideFlairStore,
		wire.Bind(new(storage.ReferenceStoreInterface), new(*storage.SQLiteStore)),
		wire.Bind(new(storage.UserStoreInterface), new(*storage.SQLiteStore)),
		wire.Bind(new(storage.ApplicationStoreInterface), new(*storage.SQLiteStore)),
		wire.Bind(new(controllers.Pinger), new(*storage.SQLiteStore)),

		reddit.NewClient,
		wire.Bind(new(services.Platform), new(*reddit.Client)),
		ProvideCredential,

		ProvideAuditWriter,
		wire.Bind(new(interfaces.WriterInterface), new(*audit.Writer)),
		wire.Bind(new(controllers.AuditStatsProvider), new(*audit.Writer)),
		ProvideCompressor,
		audit.NewFileManager,
		audit.NewScheduler,

		services.NewFlairService,
		wire.Bind(new(services.FlairServiceInterface), new(*services.FlairService)),
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil, nil
}
