package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"festivalscheduling/config"
	"festivalscheduling/internal/adapters/auth"
	"festivalscheduling/internal/adapters/email"
	"festivalscheduling/internal/adapters/notify"
	"festivalscheduling/internal/adapters/sheets"
	deliveryhttp "festivalscheduling/internal/delivery/http"
	"festivalscheduling/internal/delivery/http/controllers"
	"festivalscheduling/internal/domain"
	"festivalscheduling/internal/metrics"
	"festivalscheduling/internal/repository/postgres"
	"festivalscheduling/internal/services"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

const sheetsFetchTimeout = 20 * time.Second

// app holds the wired services shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB

	festivalRepo domain.FestivalRepository
	verifier     domain.TokenVerifier
	metrics      *metrics.Metrics

	festivals domain.FestivalService
	schedule  domain.ScheduleService
	bookings  domain.BookingService
	teachers  domain.TeacherService
	users     domain.UserService
}

func openDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := openDB(ctx, cfg.DBUrl)
	if err != nil {
		return nil, err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.SESRegion,
			AccessKeyID:        cfg.Email.SESAccessKeyID,
			SecretAccessKey:    cfg.Email.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	festivalRepo := postgres.NewFestivalRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	teacherRepo := postgres.NewTeacherRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	timeout := cfg.ContextTimeout

	return &app{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		festivalRepo: festivalRepo,
		verifier:     auth.NewJWTVerifier(cfg.JWTSecret),
		metrics:      m,
		festivals:    services.NewFestivalService(festivalRepo, timeout),
		schedule: services.NewScheduleService(services.ScheduleDeps{
			Festivals: festivalRepo,
			Sessions:  sessionRepo,
			Teachers:  teacherRepo,
			Sheets:    sheets.NewHTTPFetcher(&http.Client{Timeout: sheetsFetchTimeout}, cfg.Sheets.BaseURL),
			Notifier:  notify.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel, logger),
			Recorder:  m,
			Logger:    logger,
		}, timeout),
		bookings: services.NewBookingService(services.BookingDeps{
			Festivals:     festivalRepo,
			Sessions:      sessionRepo,
			Bookings:      bookingRepo,
			Hasher:        auth.NewBcryptHasher(bcrypt.DefaultCost),
			Email:         emailService,
			Recorder:      m,
			Logger:        logger,
			PublicBaseURL: cfg.PublicBaseURL,
		}, timeout),
		teachers: services.NewTeacherService(festivalRepo, teacherRepo, timeout),
		users: services.NewUserService(
			postgres.NewUserRepository(db),
			postgres.NewRoleRepository(db),
			postgres.NewLoginCodeRepository(db),
			auth.NewJWTIssuer(cfg.JWTSecret),
			cfg.JWTExpiry,
			emailService,
		),
	}, nil
}

func (a *app) router() http.Handler {
	return deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:             a.logger,
		TokenVerifier:      a.verifier,
		Metrics:            a.metrics,
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		BaseDomain:         a.cfg.BaseDomain,
		Users:              controllers.NewUserController(a.logger, a.users),
		Festivals:          controllers.NewFestivalController(a.logger, a.festivals),
		Schedule:           controllers.NewScheduleController(a.logger, a.schedule),
		Imports:            controllers.NewImportController(a.logger, a.schedule),
		Bookings:           controllers.NewBookingController(a.logger, a.bookings),
		Teachers:           controllers.NewTeacherController(a.logger, a.teachers),
	})
}

func (a *app) Close() error {
	return a.db.Close()
}
