// internal/infra/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/app"
	domainTelegram "interaction_log_bot/internal/domain/telegram"
)

// ReportScheduler triggers the periodic report endpoints and delivers the
// artifacts to the manager chat.
type ReportScheduler struct {
	cronEngine      *cron.Cron
	reports         *app.ReportService
	telegramClient  domainTelegram.Client
	managerChatID   int64
	cronSpecDaily   string
	cronSpecMonthly string
	logger          *logrus.Entry
}

func NewReportScheduler(
	reports *app.ReportService,
	telegramClient domainTelegram.Client,
	managerChatID int64,
	cronSpecDaily string, // e.g. "0 20 * * *" (8 PM daily)
	cronSpecMonthly string, // e.g. "0 9 1 * *" (9 AM on the 1st)
	logger *logrus.Entry,
) *ReportScheduler {
	return &ReportScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		reports:         reports,
		telegramClient:  telegramClient,
		managerChatID:   managerChatID,
		cronSpecDaily:   cronSpecDaily,
		cronSpecMonthly: cronSpecMonthly,
		logger:          logger,
	}
}

func (s *ReportScheduler) Start() error {
	if s.managerChatID == 0 {
		s.logger.Warn("MANAGER_CHAT_ID not configured; scheduled report delivery disabled")
		return nil
	}

	s.logger.Info("Starting report scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily snapshot")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.deliverDailySnapshot(ctx)
	})
	if err != nil {
		return fmt.Errorf("could not add daily snapshot cron job: %w", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecMonthly, func() {
		s.logger.Info("Cron job triggered for monthly spreadsheet")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.deliverMonthlySpreadsheet(ctx)
	})
	if err != nil {
		return fmt.Errorf("could not add monthly spreadsheet cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Report scheduler started with jobs")
	return nil
}

func (s *ReportScheduler) deliverDailySnapshot(ctx context.Context) {
	date := time.Now().Format("2006-01-02")

	png, err := s.reports.DailySnapshot(ctx, date)
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Error("Daily snapshot failed")
		s.notifyFailure(fmt.Sprintf("Daily snapshot for %s could not be generated.", date))
		return
	}

	caption := fmt.Sprintf("Daily interaction snapshot — %s", date)
	if err := s.telegramClient.SendPhoto(s.managerChatID, png, caption); err != nil {
		s.logger.WithError(err).Error("Failed to deliver daily snapshot")
		return
	}
	s.logger.WithField("date", date).Info("Daily snapshot delivered")
}

func (s *ReportScheduler) deliverMonthlySpreadsheet(ctx context.Context) {
	// The job fires on the 1st; report the month that just ended.
	period := time.Now().AddDate(0, -1, 0).Format("2006-01")

	data, err := s.reports.MonthlySpreadsheet(ctx, period)
	if err != nil {
		s.logger.WithError(err).WithField("period", period).Error("Monthly spreadsheet failed")
		s.notifyFailure(fmt.Sprintf("Monthly report for %s could not be generated.", period))
		return
	}

	filename := fmt.Sprintf("interactions-%s.csv", period)
	caption := fmt.Sprintf("Monthly interaction report — %s", period)
	if err := s.telegramClient.SendDocument(s.managerChatID, data, filename, caption); err != nil {
		s.logger.WithError(err).Error("Failed to deliver monthly spreadsheet")
		return
	}
	s.logger.WithField("period", period).Info("Monthly spreadsheet delivered")
}

// notifyFailure tells the manager chat that a scheduled report was
// skipped, so a silent cron slot is noticed.
func (s *ReportScheduler) notifyFailure(text string) {
	if err := s.telegramClient.SendMessage(s.managerChatID, text, nil); err != nil {
		s.logger.WithError(err).Error("Failed to deliver report failure notice")
	}
}

func (s *ReportScheduler) Stop() {
	s.logger.Info("Stopping report scheduler")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Report scheduler gracefully stopped")
}
