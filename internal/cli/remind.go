package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eursukkul/consultation-service/internal/mailer"
	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/repository"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/Eursukkul/consultation-service/pkg/database"
	"github.com/spf13/cobra"
)

var remindWindow time.Duration

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Email reminders for consultations starting soon",
	Long: `Sends a reminder email for every scheduled consultation starting within
--window that has not been reminded yet. Intended to run from cron.

Examples:
  consultation-service remind
  consultation-service remind --window 2h`,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().DurationVar(&remindWindow, "window", 24*time.Hour, "remind consultations starting within this window")
}

func runRemind(cmd *cobra.Command, _ []string) error {
	cfg, loc, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Environment)

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		return err
	}
	consultations := service.NewConsultationService(repository.NewConsultationRepository(db), loc, nil)
	mail := mailer.New(newTransport(cfg, log), loc)

	sent, err := sendReminders(cmd.Context(), consultations, mail, time.Now(), remindWindow, log)
	if err != nil {
		return err
	}
	log.Info("reminders sent", "count", sent, "window", remindWindow.String())
	return nil
}

type reminderSender interface {
	SendReminder(ctx context.Context, c models.Consultation) error
}

// sendReminders mails every due consultation and marks it reminded. A failed
// send is logged and retried on the next run.
func sendReminders(ctx context.Context, consultations service.ConsultationService, mail reminderSender, now time.Time, window time.Duration, log *slog.Logger) (int, error) {
	due, err := consultations.DueReminders(ctx, now, window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range due {
		if err := mail.SendReminder(ctx, c); err != nil {
			log.Warn("reminder failed", "consultation_id", c.ID, "error", err)
			continue
		}
		if err := consultations.MarkReminderSent(ctx, c.ID, now); err != nil {
			log.Error("mark reminder sent", "consultation_id", c.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
