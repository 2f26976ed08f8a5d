package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/consultation-service/config"
	"github.com/Eursukkul/consultation-service/internal/calendar"
	"github.com/Eursukkul/consultation-service/internal/consumer"
	"github.com/Eursukkul/consultation-service/internal/dispatch"
	"github.com/Eursukkul/consultation-service/internal/handler"
	"github.com/Eursukkul/consultation-service/internal/mailer"
	"github.com/Eursukkul/consultation-service/internal/middleware"
	"github.com/Eursukkul/consultation-service/internal/payment"
	"github.com/Eursukkul/consultation-service/internal/repository"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/Eursukkul/consultation-service/pkg/database"
	"github.com/Eursukkul/consultation-service/pkg/jsonx"
	"github.com/Eursukkul/consultation-service/pkg/obs"
	"github.com/Eursukkul/consultation-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Environment)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTelEndpoint, cfg.Environment)
	if err != nil {
		return err
	}

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	repo := repository.NewConsultationRepository(db)

	cal, err := newCalendar(ctx, cfg, loc, log)
	if err != nil {
		return err
	}
	mail := mailer.New(newTransport(cfg, log), loc)

	// The dispatcher writes event links back through the consultation
	// service, which in turn notifies the dispatcher of admin changes.
	var consultations service.ConsultationService
	var recorder dispatch.CalendarRecorder = dispatch.RecorderFunc(func(ctx context.Context, id, eventID, link string) error {
		return consultations.RecordCalendarEvent(ctx, id, eventID, link)
	})
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		recorder = dispatch.NewQueuedRecorder(publisher)
	}
	dispatcher := dispatch.New(cal, mail, recorder, log, dispatch.WithTimeout(cfg.SideEffectTimeout))
	consultations = service.NewConsultationService(repo, loc, dispatcher)

	var (
		mq           *rabbitmq.Consumer
		consumerDone <-chan struct{}
	)
	if cfg.RabbitURL != "" {
		mq, err = rabbitmq.NewConsumer(cfg.RabbitURL, log)
		if err != nil {
			return err
		}
		msgs, err := mq.Consume()
		if err != nil {
			mq.Close()
			return err
		}
		consumerDone = consumer.NewCalendarConsumer(consultations, log).Start(msgs)
	}

	creds := payment.Credentials{KeyID: cfg.RazorpayKeyID, KeySecret: cfg.RazorpayKeySecret}
	if !creds.Configured() {
		log.Warn("razorpay credentials missing, payment endpoints will fail")
	}
	payments := service.NewPaymentService(creds, payment.NewRazorpayClient(creds, cfg.GatewayTimeout), consultations, dispatcher, log)

	e := newServer(log, cfg.JWTSecret, loc, payments, consultations)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.ServerPort, "env", cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	dispatcher.Wait()
	if mq != nil {
		// Closing the channel ends the delivery stream and stops the consumer.
		mq.Close()
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
			log.Warn("calendar consumer did not stop in time")
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown", "error", err)
	}
	return nil
}

// newServer builds the echo instance with every route mounted.
func newServer(log *slog.Logger, jwtSecret string, loc *time.Location, payments service.PaymentService, consultations service.ConsultationService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonx.Serializer{}
	e.HTTPErrorHandler = middleware.ErrorHandler

	reqLog := log.With("component", "http")
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				reqLog.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			reqLog.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.CORS())

	health := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	}
	e.GET("/health", health)
	e.GET("/api/health", health)

	api := e.Group("/api")
	handler.NewPaymentHandler(payments).RegisterRoutes(api, middleware.OptionalJWTAuth(jwtSecret))
	handler.NewConsultationHandler(consultations, loc).RegisterRoutes(api, middleware.JWTAuth(jwtSecret))
	return e
}

func newCalendar(ctx context.Context, cfg *config.Config, loc *time.Location, log *slog.Logger) (calendar.Service, error) {
	if cfg.GoogleCredentialsFile == "" {
		log.Info("google calendar not configured, using template links")
		return calendar.NewLinkCalendar(loc), nil
	}
	return calendar.NewGoogleCalendar(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID, loc)
}

func newTransport(cfg *config.Config, log *slog.Logger) mailer.Transport {
	if cfg.SMTPHost == "" {
		log.Info("smtp not configured, emails will only be logged")
		return mailer.NewLogTransport(log)
	}
	return mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	})
}
