package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"GapSentinel/internal/calendar"
	"GapSentinel/internal/gapscan"
	"GapSentinel/internal/model"
	"GapSentinel/internal/notifier"
	"GapSentinel/internal/universe"
)

// reportSize is how many gainers and losers a notification lists.
const reportSize = 10

// Scanner runs gap scans and universe refreshes.
type Scanner interface {
	Run(ctx context.Context, opts gapscan.Options) (*model.Response, error)
	RefreshUniverse(ctx context.Context) (universe.RefreshResult, error)
}

// Purger drops expired entries from the durable store.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  Scanner
	Calendar *calendar.Calendar
	Notifier notifier.Notifier
	Purger   Purger
	Ctx      context.Context

	scanMu sync.Mutex
	now    func() time.Time
}

// NewScheduler creates a Scheduler whose cron specs are read in the
// exchange zone. purger may be nil.
func NewScheduler(ctx context.Context, sc Scanner, cal *calendar.Calendar, n notifier.Notifier, purger Purger) *Scheduler {
	if n == nil {
		n = notifier.Noop{}
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(cal.Location())),
		Scanner:  sc,
		Calendar: cal,
		Notifier: n,
		Purger:   purger,
		Ctx:      ctx,
		now:      time.Now,
	}
}

// RegisterAll registers the scan, universe refresh and purge jobs.
func (s *Scheduler) RegisterAll(premarketCron, openCron, universeCron, purgeCron string) error {
	if _, err := s.Cron.AddFunc(premarketCron, func() { s.scanJob("premarket") }); err != nil {
		return fmt.Errorf("register premarket scan: %w", err)
	}
	if _, err := s.Cron.AddFunc(openCron, func() { s.scanJob("open") }); err != nil {
		return fmt.Errorf("register open scan: %w", err)
	}
	if _, err := s.Cron.AddFunc(universeCron, s.refreshJob); err != nil {
		return fmt.Errorf("register universe refresh: %w", err)
	}
	if s.Purger != nil {
		if _, err := s.Cron.AddFunc(purgeCron, s.purgeJob); err != nil {
			return fmt.Errorf("register purge: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes a fresh scan immediately (RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanJob("startup")
}

func (s *Scheduler) scanJob(label string) {
	if !s.Calendar.IsTradingDay(s.now()) {
		log.Printf("[INFO] %s scan skipped: not a trading day", label)
		return
	}
	log.Printf("[INFO] running %s scan", label)
	opts := gapscan.DefaultOptions()
	opts.UseCache = false
	reply, err := s.scan(opts)
	if err != nil {
		log.Printf("[WARN] %s scan skipped: %v", label, err)
		return
	}
	s.trySend(reply)
}

var errScanRunning = errors.New("another scan is in progress")

// scan runs one scan unless another is in progress and renders the outcome.
func (s *Scheduler) scan(opts gapscan.Options) (string, error) {
	if !s.scanMu.TryLock() {
		return "", errScanRunning
	}
	defer s.scanMu.Unlock()

	resp, err := s.Scanner.Run(s.Ctx, opts)
	if err != nil {
		var failure *gapscan.Failure
		if errors.As(err, &failure) {
			return notifier.FormatScanFailure(failure.Response), nil
		}
		return notifier.FormatScanFailure(model.ErrorResponse{Error: err.Error(), Message: "gap scan failed"}), nil
	}
	return notifier.FormatScanReport(resp, reportSize), nil
}

func (s *Scheduler) refreshJob() {
	log.Println("[INFO] running universe refresh")
	res, err := s.Scanner.RefreshUniverse(s.Ctx)
	if err != nil {
		s.trySend(fmt.Sprintf("❌ universe refresh failed: %v", err))
		return
	}
	s.trySend(notifier.FormatRefresh(res))
}

func (s *Scheduler) purgeJob() {
	n, err := s.Purger.Purge(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] purge expired cache entries: %v", err)
		return
	}
	log.Printf("[INFO] purged %d expired cache entries", n)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch commandName(command) {
	case "/gaps":
		return s.commandScan(gapscan.DefaultOptions())
	case "/scan":
		opts := gapscan.DefaultOptions()
		opts.UseCache = false
		return s.commandScan(opts)
	case "/refresh":
		res, err := s.Scanner.RefreshUniverse(s.Ctx)
		if err != nil {
			return fmt.Sprintf("❌ universe refresh failed: %v", err)
		}
		return notifier.FormatRefresh(res)
	case "/session":
		now := s.now()
		trading, previous := s.Calendar.TradingDates(now)
		return notifier.FormatSession(s.Calendar.MarketSession(now), trading, previous, s.Calendar.IsTradingDay(now))
	default:
		return "Commands:\n• /gaps latest scan (cached when available)\n• /scan fresh scan\n• /refresh reload the universe\n• /session market session"
	}
}

// commandName returns the lower-cased command word without a @bot suffix.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

func (s *Scheduler) commandScan(opts gapscan.Options) string {
	reply, err := s.scan(opts)
	if err != nil {
		return "⏳ " + err.Error() + ", try again later"
	}
	return reply
}

func (s *Scheduler) trySend(text string) {
	if err := notifier.RetrySend(s.Ctx, s.Notifier, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
