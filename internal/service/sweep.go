package service

import (
	"context"
	"log/slog"

	"careline/internal/middleware"
	"careline/internal/repository"
)

// SweepResult counts rows moved to EXPIRED by a sweep.
type SweepResult struct {
	Invitations     int64 `json:"invitations"`
	AccountRequests int64 `json:"accountRequests"`
}

// Sweeper expires lapsed invitations and requests in bulk. Reads already
// materialize expiry lazily, so running it is optional.
type Sweeper struct {
	invitations repository.InvitationRepository
	requests    repository.AccountRequestRepository
	cfg         LifecycleConfig
}

// NewSweeper returns a new Sweeper.
func NewSweeper(invitations repository.InvitationRepository, requests repository.AccountRequestRepository, cfg LifecycleConfig) *Sweeper {
	return &Sweeper{invitations: invitations, requests: requests, cfg: cfg}
}

// SweepExpired marks every past-expiry PENDING invitation and every
// past-expiry PENDING or APPROVED request EXPIRED.
func (s *Sweeper) SweepExpired(ctx context.Context) (SweepResult, error) {
	now := s.cfg.now()

	var res SweepResult
	var err error
	if res.Invitations, err = s.invitations.ExpireOverdue(ctx, now); err != nil {
		return res, err
	}
	if res.AccountRequests, err = s.requests.ExpireOverdue(ctx, now); err != nil {
		return res, err
	}

	middleware.Logger.InfoContext(ctx, "expiry sweep finished",
		slog.Int64("invitations", res.Invitations),
		slog.Int64("account_requests", res.AccountRequests),
	)
	return res, nil
}
