package main

import (
	"context"
	"errors"
	"familynotes/cmd/internal/config"
	"familynotes/cmd/internal/domain/database"
	"familynotes/cmd/internal/domain/database/repository"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/http/handler"
	authmiddleware "familynotes/cmd/internal/http/middleware"
	"familynotes/cmd/internal/infrastructure/aws/storage"
	"familynotes/cmd/internal/routes"
	"familynotes/cmd/internal/service"
	"familynotes/cmd/internal/service/jobs"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/uid"
	"familynotes/cmd/internal/utils/validators"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("unable to load configuration, %v", err)
	}
	log.SetLevel(config.ParseLogLevel(cfg.LogLevel))

	if err = uid.Init(cfg.SnowflakeID); err != nil {
		log.Fatalf("unable to init id generator, %v", err)
	}

	validate := validator.New()
	validators.Register(validate)

	db, err := database.Init(database.Config{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("unable to open database, %v", err)
	}

	// S3 is optional locally, notes then only live in the database
	var store storage.ObjectStore
	if cfg.S3Bucket != "" {
		store, err = storage.NewStorageClient(ctx, cfg.StorageRegion(), cfg.S3Bucket)
		if err != nil {
			log.Fatalf("unable to init S3 client, %v", err)
		}
	} else {
		log.Warn("S3_BUCKET_NAME is not set, purges will only touch the database")
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		log.Fatalf("unable to init token verifier, %v", err)
	}

	// Getting repos
	repos := service.Repositories{
		Users:         repository.NewUserRepository(db),
		Family:        repository.NewFamilyRepository(db),
		Invitations:   repository.NewInvitationRepository(db),
		Lifecycles:    repository.NewLifecycleRepository(db),
		Consents:      repository.NewConsentRepository(db),
		Access:        repository.NewAccessRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Notes:         repository.NewNoteRepository(db),
	}

	// Getting services
	tx := database.NewTxRunner(db)
	familyPolicy := policy.NewFamilyPolicy(cfg.MaxRepresentatives)
	purger := service.NewDataPurger(repos.Notes, store)

	userService := service.NewUserService(repos.Users)
	lifecycleService := service.NewLifecycleService(tx, repos, familyPolicy, validate)
	deletionService := service.NewDeletionService(tx, repos, familyPolicy, purger, validate)
	familyService := service.NewFamilyService(tx, repos, familyPolicy, validate, cfg.InvitationTTL)
	accessService := service.NewAccessService(tx, repos, familyPolicy)
	noteService := service.NewNoteService(tx, repos, familyPolicy, accessService, validate)
	notificationService := service.NewNotificationService(repos.Notifications)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	auth := authmiddleware.NewAuthMiddleware(&authmiddleware.AuthMiddlewareConfig{
		Tokens: verifier,
		Users:  userService,
	})

	routes.Register(e, &routes.Handlers{
		Lifecycle:     handler.NewLifecycleDefault(lifecycleService),
		Deletion:      handler.NewDeletionDefault(deletionService),
		Family:        handler.NewFamilyDefault(familyService),
		Access:        handler.NewAccessDefault(accessService),
		Notifications: handler.NewNotificationDefault(notificationService),
		Notes:         handler.NewNoteDefault(noteService),
		Users:         handler.NewUserDefault(userService),
	}, auth)

	// Background jobs
	go jobs.NewPurgeRecovery(deletionService, cfg.PurgeRecoveryInterval).Start(ctx)
	go jobs.NewInvitationCleaner(repos.Invitations, cfg.InvitationRetention).Start(ctx)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped, %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown failed, %v", err)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (*utils.TokenVerifier, error) {
	if cfg.JWKSURL != "" {
		return utils.NewJWKSVerifier(ctx, cfg.JWKSURL)
	}
	return utils.NewHMACVerifier([]byte(cfg.JWTSecret)), nil
}
