package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gitlab.com/ranfdev/blogmod/internal/adapters"
	"gitlab.com/ranfdev/blogmod/internal/db"
	"gitlab.com/ranfdev/blogmod/internal/domain"
	"gitlab.com/ranfdev/blogmod/internal/metrics"
	"gitlab.com/ranfdev/blogmod/internal/models"
	"gitlab.com/ranfdev/blogmod/internal/render"
	"gitlab.com/ranfdev/blogmod/internal/routes"
)

const usage = `Usage:
	- start
	- migrate [up/down/drop]
`

const (
	sweepEvery   = 10 * time.Minute
	panelMaxIdle = 2 * time.Hour
)

func main() {
	if len(os.Args) == 1 {
		fmt.Println(usage)
		return
	}
	envConfig := models.ReadEnvConfig()
	switch os.Args[1] {
	case "start":
		server := BlogmodServer{EnvConfig: envConfig}
		server.Setup()
		server.Run()
	case "migrate":
		if envConfig.DatabaseURL == "" {
			fmt.Println("BLOGMOD_DATABASE_URL is not set")
			os.Exit(1)
		}
		if len(os.Args) < 3 {
			fmt.Println(usage)
			return
		}
		var err error
		switch os.Args[2] {
		case "up":
			err = db.MigrateUp(envConfig.DatabaseURL)
		case "down":
			err = db.MigrateDown(envConfig.DatabaseURL)
		case "drop":
			err = db.Drop(envConfig.DatabaseURL)
		default:
			fmt.Println(usage)
			return
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Done")
	default:
		fmt.Println(usage)
	}
}

type BlogmodServer struct {
	models.EnvConfig
	addr       string
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	database   *db.SharedDB
	audit      domain.Auditor
	metrics    *metrics.Metrics
	panels     *domain.Panels
	templates  *render.Templates
}

func (server *BlogmodServer) setupLogger() {
	var writer io.Writer
	if server.Debug {
		writer = zerolog.ConsoleWriter{Out: os.Stdout}
	} else {
		writer = os.Stdout
	}
	log := zerolog.New(writer).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if server.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	server.logger = log
}
func (server *BlogmodServer) setupTemplates() {
	tmpls, err := render.GetTemplates(&server.EnvConfig, server.logger)
	if err != nil {
		server.logger.Fatal().Err(err).Send()
	}
	server.templates = tmpls
}
func (server *BlogmodServer) setupMetrics() {
	server.metrics = metrics.New()
}

// setupDB enables the audit log. Without BLOGMOD_DATABASE_URL the dashboard runs
// without one.
func (server *BlogmodServer) setupDB() {
	if server.DatabaseURL == "" {
		server.logger.Info().Msg("BLOGMOD_DATABASE_URL not set, audit log disabled")
		return
	}
	err := db.MigrateUp(server.DatabaseURL)
	if err != nil {
		server.logger.Fatal().Err(err).Send()
	}
	database, err := db.Connect(context.Background(), &server.EnvConfig)
	if err != nil {
		server.logger.Fatal().AnErr("Connecting to db", err).Send()
	}
	server.database = database
	server.audit = database.Audit()
}
func (server *BlogmodServer) setupPanels() {
	api := adapters.NewContentClient(&server.EnvConfig, server.metrics)
	server.panels = domain.NewPanels(api, server.audit, server.logger)
}
func (server *BlogmodServer) setupRouter() {
	var store routes.Pinger
	if server.database != nil {
		store = server.database
	}
	server.router = routes.NewRouter(&server.EnvConfig, server.panels, server.audit, store, server.logger, server.templates, server.metrics)
}
func (server *BlogmodServer) setupHttpServer() {
	server.addr = fmt.Sprintf(":%s", server.EnvConfig.Port)
	server.httpServer = &http.Server{
		Addr:         server.addr,
		Handler:      server.router,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
}
func (server *BlogmodServer) Setup() {
	server.setupLogger()
	server.setupTemplates()
	server.setupMetrics()
	server.setupDB()
	server.setupPanels()
	server.setupRouter()
	server.setupHttpServer()
}
func (server *BlogmodServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.httpServer.Shutdown(ctx); err != nil {
		server.logger.Error().
			Err(err).
			Msg("Error shutting down")
	}
	if server.database != nil {
		server.database.Close()
	}
}

// sweepPanels forgets the panels of sessions that went quiet.
func (server *BlogmodServer) sweepPanels(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := server.panels.Sweep(panelMaxIdle); n > 0 {
				server.logger.Debug().Int("dropped", n).Int("active", server.panels.Len()).Msg("Swept idle panels")
			}
		}
	}
}
func (server *BlogmodServer) Run() {
	server.logger.Info().Str("server_address", server.addr).Str("api_url", server.APIURL).Msg("Server is starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := server.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.logger.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()
	go server.sweepPanels(ctx)
	server.logger.Info().Msg("Ready")

	<-ctx.Done()
	stop() // Stop listening for signals
	server.logger.Info().Msg("Shutting down gracefully")
	server.Shutdown()
}
