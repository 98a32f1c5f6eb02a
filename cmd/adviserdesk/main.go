package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/config"
	"github.com/oakmere/adviserdesk/internal/domain"
	"github.com/oakmere/adviserdesk/internal/infra/database"
	"github.com/oakmere/adviserdesk/internal/infra/repository"
	"github.com/oakmere/adviserdesk/internal/present/rest"
	custommiddleware "github.com/oakmere/adviserdesk/internal/present/rest/middleware"
	"github.com/oakmere/adviserdesk/internal/service"
	"github.com/oakmere/adviserdesk/internal/usecase"
)

func main() {
	configPath := flag.String("config", "/etc/adviserdesk/config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	personRepo := repository.NewPersonRepository(db)
	healthRepo := repository.NewHealthRepository(db, mc)
	vulnRepo := repository.NewVulnerabilityRepository(db, mc)

	signal := service.NewSignalService(rdb)

	flagged := adviserdesk.FlaggedSet(conf.Portal.FlaggedCategories)
	healthUsecase := usecase.NewHealthUsecase(healthRepo, personRepo, signal, flagged)
	vulnUsecase := usecase.NewVulnerabilityUsecase(vulnRepo, personRepo, signal)
	personUsecase := usecase.NewPersonUsecase(personRepo, healthRepo, vulnRepo, signal)

	handler := rest.NewHandler(
		domain.Config{
			FQDN:              conf.Portal.FQDN,
			FlaggedCategories: conf.Portal.FlaggedCategories,
		},
		healthUsecase,
		vulnUsecase,
		personUsecase,
		signal,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup trace provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
		e.Use(otelecho.Middleware("adviserdesk"))
	}

	requester := custommiddleware.NewRequesterMiddleware()
	e.Use(requester.IdentifyRequester)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTraceProvider(endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace provider", slog.String("error", err.Error()))
		}
	}
	return cleanup, nil
}
