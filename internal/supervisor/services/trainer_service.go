// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/recommend"
)

// breakerName labels the scheduled-training circuit breaker in metrics.
const breakerName = "scheduled-train"

// TrainEngine is the part of the recommendation engine the trainer drives.
// *recommend.Engine implements it.
type TrainEngine interface {
	Train(ctx context.Context) (*recommend.TrainResult, error)
	StartTrain(ctx context.Context, done func(*recommend.TrainResult, error)) error
	Current() *recommend.Generation
}

// TrainerConfig holds configuration for the trainer service.
type TrainerConfig struct {
	// TrainOnStartup builds a generation when the service starts and no
	// generation is loaded yet.
	TrainOnStartup bool

	// Interval between scheduled rebuilds. Zero disables the schedule.
	Interval time.Duration

	// BreakerMaxFailures consecutive scheduled failures open the breaker.
	// Default: 3
	BreakerMaxFailures uint32

	// BreakerTimeout is how long the breaker stays open before one trial
	// rebuild is allowed. Default: 1h
	BreakerTimeout time.Duration
}

// TrainerService runs startup and scheduled training under supervision.
//
// Scheduled attempts go through a circuit breaker so a broken rating store
// is not rebuilt against every interval; manual Train calls bypass it.
// A concurrent build is not counted as a failure.
type TrainerService struct {
	engine  TrainEngine
	config  TrainerConfig
	logger  zerolog.Logger
	breaker *gobreaker.CircuitBreaker[*recommend.TrainResult]
	name    string
}

// NewTrainerService creates a trainer service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(engine TrainEngine, cfg TrainerConfig, logger zerolog.Logger) *TrainerService {
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 3
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Hour
	}

	s := &TrainerService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "trainer").Logger(),
		name:   "trainer-service",
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(stateToFloat(gobreaker.StateClosed))

	s.breaker = gobreaker.NewCircuitBreaker[*recommend.TrainResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
			if trip {
				s.logger.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("scheduled training keeps failing, opening circuit")
			}
			return trip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || recommend.Kind(err) == recommend.KindBuildInProgress
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("training circuit state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateToFloat(to))
		},
	})

	return s
}

// Serve implements suture.Service.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("interval", s.config.Interval).
		Msg("trainer service starting")

	if gen := s.engine.Current(); gen != nil {
		metrics.SetGeneration(gen.Matrix.NumRows(), gen.Matrix.NumCols(), gen.Manifest.SizeBytes)
	} else if s.config.TrainOnStartup {
		s.logger.Info().Msg("no generation loaded, training on startup")
		s.scheduledTrain(ctx)
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		s.logger.Info().Msg("trainer service shutting down")
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("trainer service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled training triggered")
			s.scheduledTrain(ctx)
		}
	}
}

// scheduledTrain runs one rebuild through the circuit breaker. Failures are
// logged; the service keeps running.
func (s *TrainerService) scheduledTrain(ctx context.Context) {
	_, err := s.breaker.Execute(func() (*recommend.TrainResult, error) {
		return s.Train(ctx)
	})

	switch {
	case err == nil:
		metrics.RecordBreakerRequest(breakerName, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(breakerName, "rejected")
		s.logger.Warn().Msg("scheduled training skipped, circuit open")
	case ctx.Err() != nil:
		// Shutdown interrupted the build.
	default:
		metrics.RecordBreakerRequest(breakerName, "failure")
		s.logger.Warn().Err(err).Str("kind", recommend.Kind(err)).Msg("scheduled training failed")
	}
}

// Train builds and publishes a generation and records build metrics. It is
// also the entry point for manual training from the API.
func (s *TrainerService) Train(ctx context.Context) (*recommend.TrainResult, error) {
	start := time.Now()
	res, err := s.engine.Train(ctx)
	s.record(time.Since(start), res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// StartTrain starts a background build and returns once the build slot is
// held. A build already in progress is reported here as
// *recommend.ConcurrentBuildError, not through done.
func (s *TrainerService) StartTrain(ctx context.Context, done func(*recommend.TrainResult, error)) error {
	start := time.Now()
	err := s.engine.StartTrain(ctx, func(res *recommend.TrainResult, err error) {
		s.record(time.Since(start), res, err)
		if done != nil {
			done(res, err)
		}
	})
	if err != nil {
		s.record(time.Since(start), nil, err)
	}
	return err
}

// record updates build metrics for one finished or rejected build.
func (s *TrainerService) record(d time.Duration, res *recommend.TrainResult, err error) {
	metrics.RecordBuild(d, recommend.Kind(err))
	if err != nil || res == nil {
		return
	}
	metrics.SetGeneration(res.Manifest.Rows, res.Manifest.Cols, res.Manifest.SizeBytes)
	metrics.RecordPruned(res.Pruned)
}

// BreakerState returns the scheduled-training circuit state.
func (s *TrainerService) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// String returns the service name for logging.
func (s *TrainerService) String() string {
	return s.name
}

// stateToFloat maps breaker states to the gauge values 0, 1 and 2.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
