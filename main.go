package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dnastudio/config"
	"dnastudio/core"
	"dnastudio/genai"
	"dnastudio/handlers/api/annotate"
	"dnastudio/handlers/api/collections"
	"dnastudio/handlers/api/dna"
	"dnastudio/handlers/api/posts"
	"dnastudio/handlers/api/usage"
	"dnastudio/handlers/auth"
	"dnastudio/handlers/websocket"
	"dnastudio/library"
	authMiddleware "dnastudio/middleware"
	"dnastudio/refine"
	"dnastudio/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type app struct {
	cfg      *config.Config
	store    core.CollectionStore
	library  *library.Library
	ai       *genai.Client
	refiner  *refine.Orchestrator
	notifier posts.Notifier
}

func setupRouter(a *app) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			if len(a.cfg.JWTSecret) > 0 {
				r.Use(authMiddleware.AuthJWT([]byte(a.cfg.JWTSecret)))
			}

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", posts.HandleList(a.library))
				r.Post("/", posts.HandleCreate(a.library, a.ai))
				r.Post("/draft", posts.HandleDraft(a.library, a.ai))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", posts.HandleGet(a.library))
					r.Delete("/", posts.HandleDelete(a.library, a.notifier))
					r.Post("/refine", posts.HandleRefine(a.library, a.refiner, a.notifier))
					r.Post("/rollback", posts.HandleRollback(a.library, a.refiner, a.notifier))
				})
			})

			r.Route("/blueprints", func(r chi.Router) {
				r.Get("/", dna.HandleListBlueprints(a.library))
				r.Post("/", dna.HandleSaveBlueprint(a.library, a.ai))
				r.Post("/analyze", dna.HandleAnalyzeBlueprint(a.ai))
				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", dna.HandleDeleteBlueprint(a.library))
					r.Get("/brief", dna.HandleBlueprintBrief(a.library))
					r.Get("/dna.yaml", dna.HandleExportDNA(a.library))
				})
			})

			r.Route("/brands", func(r chi.Router) {
				r.Get("/", dna.HandleListBrands(a.library))
				r.Post("/", dna.HandleSaveBrand(a.library))
				r.Post("/analyze", dna.HandleAnalyzeBrand(a.ai))
				r.Delete("/{id}", dna.HandleDeleteBrand(a.library))
			})

			r.Get("/usage", usage.HandleReport(a.library))
			r.Delete("/usage", usage.HandleReset(a.library))
			r.Post("/annotate", annotate.HandleAnnotate())
		})

		// Raw collections, read and written wholesale by the studio UI.
		r.Get("/collections", collections.HandleList(a.store))
		r.Get("/{collection}", collections.HandleGet(a.store))
		r.Post("/{collection}", collections.HandleSave(a.store, a.cfg.IsAppendOnly))
	})

	return r
}

func waitForShutdown(srv *http.Server, hub *websocket.Hub) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	listenAddress := flag.String("listen", cfg.ListenAddr, "The address to listen on.")
	logLevel := flag.String("loglevel", cfg.LogLevel, "The log level (debug, info, warn, error).")
	issueToken := flag.String("issue-token", "", "Print a bearer token for the given subject and exit.")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if *issueToken != "" {
		token, err := auth.CreateJWT([]byte(cfg.JWTSecret), *issueToken, auth.DefaultTTL)
		if err != nil {
			logrus.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	store, err := stores.GetStore(ctx, cfg.Storage)
	if err != nil {
		logrus.WithField("event", "open storage").Fatal(err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	lib := library.New(store)
	ai := genai.NewClient(cfg.GenAI, genai.WithUsageRecorder(lib))
	hub := websocket.NewHub(cfg.AllowedOrigins)

	r := setupRouter(&app{
		cfg:      cfg,
		store:    store,
		library:  lib,
		ai:       ai,
		refiner:  refine.NewOrchestrator(ai),
		notifier: hub,
	})
	r.Mount("/socket.io/", hub.Server().ServeHandler(nil))

	srv := &http.Server{
		Addr:              *listenAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, hub)
}
