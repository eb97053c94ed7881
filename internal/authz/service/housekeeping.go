package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/store"
)

// DefaultHousekeepingInterval is used when no interval is configured.
const DefaultHousekeepingInterval = 10 * time.Minute

// HousekeepingService periodically deletes expired authorization codes,
// tokens and pushed requests. Reads already treat expired rows as absent,
// so the sweep only bounds table growth.
type HousekeepingService struct {
	Store    store.Store
	PARs     store.PARs
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService sweeps st every interval. pars may be a separate
// PAR store; nil means the one inside st.
func NewHousekeepingService(st store.Store, pars store.PARs, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	if pars == nil {
		pars = st.PARs()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Store:    st,
		PARs:     pars,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop waits for an in-flight sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes everything that expired before now and returns the number
// of rows removed. A failing table does not stop the others.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	tasks := []struct {
		name string
		fn   func(context.Context, time.Time) (int64, error)
	}{
		{"authorization_codes", s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes},
		{"tokens", s.Store.Tokens().DeleteExpiredTokens},
		{"pars", s.PARs.DeleteExpiredPARs},
	}

	var total int64
	for _, t := range tasks {
		n, err := t.fn(ctx, now)
		if err != nil {
			s.Logger.Error("failed to delete expired records", slog.String("table", t.name), slog.Any("error", err))
			continue
		}
		if n > 0 {
			s.Logger.Debug("deleted expired records", slog.String("table", t.name), slog.Int64("count", n))
		}
		total += n
	}

	s.Logger.Info("housekeeping sweep completed", slog.Int64("deleted", total))
	return total
}
