package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/cache"
	"github.com/unilink/backend/internal/config"
	"github.com/unilink/backend/internal/handlers"
	"github.com/unilink/backend/internal/logger"
	appMiddleware "github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/storage"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Hosted auth (server-side verification of ID tokens). Startup proceeds
	// without it; the JWT fallback middleware covers development.
	authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
	})
	if err != nil {
		log.Warn().Err(err).Msg("firebase auth client unavailable")
	}

	// Services backed by the hosted cluster
	profileService, err := services.NewMongoProfileService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("profile service init failed")
	}
	contactService, err := services.NewMongoContactService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("contact service init failed")
	}
	experienceService, err := services.NewMongoExperienceService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("experience service init failed")
	}
	onboardingService, err := services.NewMongoOnboardingService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("onboarding service init failed")
	}
	accountService, err := services.NewMongoAccountService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("account service init failed")
	}

	entryCache := cache.NewDirectoryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.DirectoryCacheTTL)
	directoryService := services.NewDirectoryService(profileService, experienceService, entryCache)

	avatarStore, localAvatars := newAvatarStore(ctx, cfg)

	mailer := services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromEmail)
	recaptcha := services.NewRecaptchaVerifier(cfg.RecaptchaSecret)

	// Handlers
	authHandler := handlers.NewAuthHandler(authClient, profileService, mailer, recaptcha, cfg.AppBaseURL, cfg.AuthWebhookSecret)
	profileHandler := handlers.NewProfileHandler(profileService, contactService, experienceService, directoryService)
	contactHandler := handlers.NewContactHandler(contactService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	avatarHandler := handlers.NewAvatarHandler(avatarStore, profileService, cfg.MaxUploadSizeMB)
	onboardingHandler := handlers.NewOnboardingHandler(
		onboardingService, profileService, contactService, experienceService,
		avatarStore, directoryService, authClient, cfg.MaxUploadSizeMB,
	)
	accountHandler := handlers.NewAccountHandler(accountService, avatarStore, directoryService)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/magiclink", authHandler.MagicLink)
			r.Post("/reset", authHandler.PasswordReset)
			r.Post("/events", authHandler.Events)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			if authClient != nil {
				r.Use(appMiddleware.FirebaseAuth(authClient))
			} else {
				log.Warn().Msg("using development JWT verification")
				r.Use(appMiddleware.JWTAuth(cfg.JWTSecret))
			}

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Put("/", profileHandler.UpdateProfile)
				r.Put("/academics", profileHandler.SaveAcademics)
				r.Post("/avatar", avatarHandler.Upload)
				r.Delete("/avatar", avatarHandler.Delete)
				r.Get("/{userId}", profileHandler.GetPublicProfile)
			})

			r.Route("/contact", func(r chi.Router) {
				r.Get("/", contactHandler.GetContact)
				r.Put("/", contactHandler.UpsertContact)
			})

			r.Get("/directory", directoryHandler.Search)

			r.Delete("/account", accountHandler.Delete)

			// Wizard routes; closed once the profile flips to onboarded
			r.Route("/onboarding", func(r chi.Router) {
				r.Use(appMiddleware.RequireNotOnboarded(profileService))
				r.Get("/", onboardingHandler.GetState)
				r.Put("/", onboardingHandler.UpdateDraft)
				r.Post("/next", onboardingHandler.Next)
				r.Post("/back", onboardingHandler.Back)
				r.Post("/password", onboardingHandler.SetPassword)
				r.Post("/complete", onboardingHandler.Complete)
			})
		})
	})

	// Serve avatars from disk in development
	if localAvatars != nil {
		filesDir := http.Dir(localAvatars.Dir())
		r.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(filesDir)))
	}

	log.Info().Str("addr", cfg.ServerAddress).Msg("UniLink API server starting")
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func newAvatarStore(ctx context.Context, cfg *config.Config) (storage.AvatarStore, *storage.LocalAvatarStore) {
	if cfg.AvatarBucket != "" {
		store, err := storage.NewGCSAvatarStore(ctx, cfg.AvatarBucket, cfg.FirebaseCredentialsJSON)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.AvatarBucket).Msg("gcs avatar store init failed")
		}
		return store, nil
	}
	local, err := storage.NewLocalAvatarStore(cfg.AvatarDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.AvatarDir).Msg("local avatar store init failed")
	}
	return local, local
}
