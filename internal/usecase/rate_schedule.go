package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/infrastructure/metrics"
)

// Waiting-days lookup outcomes, used as metric labels.
const (
	lookupSkipped     = "skipped"
	lookupCacheHit    = "cache_hit"
	lookupResolved    = "resolved"
	lookupUnscheduled = "unscheduled"
	lookupFailed      = "failed"
)

// RateScheduleResolver resolves the waiting-days surcharge of a service for a
// date interval. It never fails: anything that prevents a lookup resolves to 0.
type RateScheduleResolver struct {
	commissionRepo CommissionRepository
	cache          ScheduleCache
	cacheTTL       time.Duration
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

// NewRateScheduleResolver creates a new RateScheduleResolver. cache may be nil.
func NewRateScheduleResolver(
	commissionRepo CommissionRepository,
	cache ScheduleCache,
	cacheTTL time.Duration,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *RateScheduleResolver {
	if cacheTTL <= 0 {
		cacheTTL = DefaultScheduleCacheTTL
	}
	return &RateScheduleResolver{
		commissionRepo: commissionRepo,
		cache:          cache,
		cacheTTL:       cacheTTL,
		logger:         logger.With().Str("component", "rate_schedule").Logger(),
		metrics:        metrics,
	}
}

// Resolve returns the surcharge percentage for the elapsed UTC calendar days
// between start and end.
func (r *RateScheduleResolver) Resolve(ctx context.Context, serviceID string, start, end *time.Time) decimal.Decimal {
	if serviceID == "" || start == nil || end == nil {
		r.observe(lookupSkipped)
		return decimal.Zero
	}

	days := domain.ElapsedDays(*start, *end)
	if days < 0 {
		r.observe(lookupSkipped)
		return decimal.Zero
	}

	// The generation is read before the schedule so that a record created
	// while this lookup runs keeps the result out of the cache.
	cacheable := r.cache != nil
	var generation int64
	if r.cache != nil {
		pct, found, err := r.cache.GetSurcharge(ctx, serviceID, days)
		switch {
		case err != nil:
			r.logger.Warn().Err(err).Str("service_id", serviceID).Int("elapsed_days", days).
				Msg("schedule cache read failed")
		case found:
			r.observe(lookupCacheHit)
			return pct
		}

		generation, err = r.cache.Generation(ctx, serviceID)
		if err != nil {
			r.logger.Warn().Err(err).Str("service_id", serviceID).Msg("schedule cache generation read failed")
			cacheable = false
		}
	}

	records, err := r.commissionRepo.ListByService(ctx, serviceID, true)
	if err != nil {
		r.logger.Warn().Err(err).Str("service_id", serviceID).Int("elapsed_days", days).
			Msg("waiting-days lookup failed, using 0")
		r.observe(lookupFailed)
		return decimal.Zero
	}

	commission := domain.AuthoritativeCommission(records)
	if commission == nil {
		r.observe(lookupUnscheduled)
	} else {
		r.observe(lookupResolved)
	}
	pct := commission.SurchargeFor(days)

	if cacheable {
		stored, err := r.cache.SetSurcharge(ctx, serviceID, generation, days, pct, r.cacheTTL)
		switch {
		case err != nil:
			r.logger.Warn().Err(err).Str("service_id", serviceID).Msg("schedule cache write failed")
		case !stored:
			r.logger.Debug().Str("service_id", serviceID).Int64("generation", generation).
				Msg("schedule changed during lookup, result not cached")
		}
	}

	return pct
}

// Invalidate drops the cached surcharges of a service.
func (r *RateScheduleResolver) Invalidate(ctx context.Context, serviceID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateService(ctx, serviceID); err != nil {
		r.logger.Warn().Err(err).Str("service_id", serviceID).Msg("schedule cache invalidation failed")
	}
}

func (r *RateScheduleResolver) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.WaitingDaysLookups.WithLabelValues(outcome).Inc()
	}
}
