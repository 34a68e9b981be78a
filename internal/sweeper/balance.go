package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/credit"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/store"
)

const balanceSweeperName = "balance-sweeper"

// BalanceSweeperConfig holds configuration for the balance sweeper
type BalanceSweeperConfig struct {
	Interval        time.Duration // Time to sleep between cycles
	WorkerPoolSize  int
	WorkerQueueSize int
}

// Report summarizes one reconciliation cycle
type Report struct {
	Checked   int
	Corrected int
	Failed    int
}

// BalanceSweeper recomputes every farmer and business total from the ledger rows
type BalanceSweeper interface {
	Sweeper

	// Sweep runs a single reconciliation cycle
	Sweep(ctx context.Context) (Report, error)
}

type balanceSweeper struct {
	config     BalanceSweeperConfig
	store      store.Store
	aggregator balance.Aggregator
	clock      adapter.Clock
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}

	// newBackOff builds the retry policy for persisting the cursor
	newBackOff func() backoff.BackOff
}

// NewBalanceSweeper creates a new balance sweeper
func NewBalanceSweeper(config BalanceSweeperConfig, st store.Store, aggregator balance.Aggregator, clock adapter.Clock) BalanceSweeper {
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 1
	}
	if config.WorkerQueueSize <= 0 {
		config.WorkerQueueSize = config.WorkerPoolSize
	}

	return &balanceSweeper{
		config:     config,
		store:      st,
		aggregator: aggregator,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 5 * time.Minute
			return b
		},
	}
}

func (s *balanceSweeper) Name() string {
	return balanceSweeperName
}

func (s *balanceSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	lastRun, err := s.store.GetSweepCursor(ctx, balanceSweeperName)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to read sweep cursor", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Starting balance sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Timep("last_run", lastRun),
	)

	for {
		if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, err)
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Balance sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Balance sweeper stop requested")
			return nil
		case <-s.clock.After(s.config.Interval):
		}
	}
}

func (s *balanceSweeper) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping balance sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Balance sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Balance sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

func (s *balanceSweeper) Sweep(ctx context.Context) (Report, error) {
	startTime := s.clock.Now()

	farmers, err := s.store.ListFarmers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list farmers: %w", err)
	}
	businesses, err := s.store.ListBusinesses(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list businesses: %w", err)
	}

	var corrected, failed atomic.Int32
	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.WorkerQueueSize),
		pond.WithContext(ctx),
	)

	for _, f := range farmers {
		pool.Submit(func() {
			s.reconcile(ctx, domain.SubjectFarmer, f.ID, &corrected, &failed)
		})
	}
	for _, b := range businesses {
		pool.Submit(func() {
			s.reconcile(ctx, domain.SubjectBusiness, b.ID, &corrected, &failed)
		})
	}
	pool.StopAndWait()

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		Checked:   len(farmers) + len(businesses),
		Corrected: int(corrected.Load()),
		Failed:    int(failed.Load()),
	}

	if err := s.saveCursorWithRetry(ctx, startTime); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to save sweep cursor: %w", err))
	}

	logger.InfoCtx(ctx, "Balance sweep completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("checked", report.Checked),
		zap.Int("corrected", report.Corrected),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// reconcile recomputes one account total and records a journal entry when it drifted
func (s *balanceSweeper) reconcile(ctx context.Context, subject domain.SubjectType, id uint64, corrected, failed *atomic.Int32) {
	var stored, current float64
	drifted := false
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		switch subject {
		case domain.SubjectFarmer:
			farmer, err := tx.GetFarmerForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if farmer == nil {
				return nil
			}
			stored = farmer.TotalCredits
			current, err = s.aggregator.RefreshFarmer(ctx, tx, id)
			if err != nil {
				return err
			}
		default:
			business, err := tx.GetBusinessForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if business == nil {
				return nil
			}
			stored = business.PurchasedCredits
			current, err = s.aggregator.RefreshBusiness(ctx, tx, id)
			if err != nil {
				return err
			}
		}

		if credit.Sum(stored) == current {
			return nil
		}
		drifted = true

		return tx.AppendChange(ctx, subject, id, map[string]any{
			"action":   "balance_reconciled",
			"previous": stored,
			"current":  current,
		})
	})
	if err != nil {
		failed.Add(1)
		logger.ErrorCtx(ctx, err,
			zap.String("subject_type", string(subject)),
			zap.Uint64("subject_id", id),
		)
		return
	}

	if drifted {
		corrected.Add(1)
		logger.WarnCtx(ctx, "Corrected balance drift",
			zap.String("subject_type", string(subject)),
			zap.Uint64("subject_id", id),
			zap.Float64("previous", stored),
			zap.Float64("current", current),
		)
	}
}

func (s *balanceSweeper) saveCursorWithRetry(ctx context.Context, at time.Time) error {
	operation := func() error {
		return s.store.SetSweepCursor(ctx, balanceSweeperName, at)
	}
	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Saving sweep cursor failed, retrying",
			zap.Error(err),
			zap.Duration("next_retry_in", next),
		)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(s.newBackOff(), ctx), notify)
}
