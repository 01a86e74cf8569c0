package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/common"
)

// Outcome is where an attempt ended. The zero value means the event was
// ignored.
type Outcome string

const (
	OutcomeIgnored         Outcome = ""
	OutcomeRoleNotFound    Outcome = "role_not_found"
	OutcomeAlreadyVerified Outcome = "already_verified"
	OutcomeCoolingDown     Outcome = "cooling_down"
	OutcomeVerified        Outcome = "verified"
	OutcomeFailed          Outcome = "failed"
)

type AttemptRequest struct {
	Member  *Member
	GuildID string
	Method  ledger.Method
	// Responder is nil for reactions.
	Responder Responder
}

type Result struct {
	Outcome Outcome
	// Remaining is the cooldown left, set with OutcomeCoolingDown.
	Remaining int
}

// Attempt runs one verification attempt for req.Member. Attempts for the
// same member run one at a time.
func (s *Service) Attempt(ctx context.Context, req AttemptRequest) (Result, error) {
	if req.Member == nil || req.GuildID == "" {
		return Result{Outcome: OutcomeIgnored}, fmt.Errorf("%w: attempt without member or guild", common.ErrValidation)
	}
	m := req.Member
	logger := s.logger.With("member_id", m.ID, "method", string(req.Method))

	unlock := s.locks.Lock(m.ID)
	defer unlock()

	roles := s.cfg.Roles
	ok, err := s.gw.RoleExists(ctx, req.GuildID, roles.Verify)
	if err != nil {
		return s.fail(ctx, req, err)
	}
	if !ok {
		s.reply(ctx, req.Responder, s.embeds.StatusKey("verification.role_not_found", embeds.ColorError, nil))
		logger.Error(ctx, "verified role not found", "role_id", roles.Verify)
		return Result{Outcome: OutcomeRoleNotFound}, fmt.Errorf("%w: verified role %s", common.ErrNotFound, roles.Verify)
	}

	if m.HasRole(roles.Verify) {
		s.reply(ctx, req.Responder, s.embeds.StatusKey("verification.already_verified", embeds.ColorInfo, nil))
		return Result{Outcome: OutcomeAlreadyVerified}, nil
	}

	now := s.now()
	if left := s.cooldowns.Remaining(m.ID, now); left > 0 {
		s.reply(ctx, req.Responder, s.embeds.StatusKey("verification.cooldown_message", embeds.ColorWarning,
			map[string]any{"seconds": left}))
		return Result{Outcome: OutcomeCoolingDown, Remaining: left}, nil
	}
	s.cooldowns.Touch(m.ID, now)

	reason := "Verified via " + string(req.Method)
	if m.HasRole(roles.Unverified) {
		if err := s.gw.RemoveRole(ctx, req.GuildID, m.ID, roles.Unverified, reason); err != nil {
			return s.fail(ctx, req, fmt.Errorf("remove unverified role: %w", err))
		}
	}
	if err := s.gw.AddRole(ctx, req.GuildID, m.ID, roles.Verify, reason); err != nil {
		return s.fail(ctx, req, fmt.Errorf("add verified role: %w", err))
	}

	rec := ledger.Record{MemberID: m.ID, DisplayName: m.DisplayName, VerifiedAt: now.UTC(), Method: req.Method}
	inserted, err := s.ledger.AppendIfAbsent(ctx, rec)
	switch {
	case err != nil:
		logger.Error(ctx, "could not record verification", "error", err)
	case inserted:
		s.analytics.Record(req.Method, now)
	}

	s.sendDM(ctx, m, s.embeds.VerifySuccessDM())
	s.reply(ctx, req.Responder, s.embeds.StatusKey("verification.successful", embeds.ColorSuccess, nil))
	s.postLog(ctx, s.embeds.VerifiedLog(embeds.Mention(m.ID), m.DisplayName, req.Method, now))

	logger.Info(ctx, "member verified", "member", m.DisplayName, "new_record", inserted)
	logger.Debug(ctx, "analytics", "snapshot", s.analytics.Snapshot())
	return Result{Outcome: OutcomeVerified}, nil
}

func (s *Service) fail(ctx context.Context, req AttemptRequest, err error) (Result, error) {
	if errors.Is(err, common.ErrPermission) {
		s.logger.Error(ctx, "missing permissions to verify member", "member_id", req.Member.ID, "error", err)
	} else {
		s.logger.Error(ctx, "error during verification", "member_id", req.Member.ID, "error", err)
	}
	if req.Responder != nil && !req.Responder.Replied() {
		s.reply(ctx, req.Responder, s.embeds.StatusKey("verification.failed", embeds.ColorError, nil))
	}
	return Result{Outcome: OutcomeFailed}, err
}
