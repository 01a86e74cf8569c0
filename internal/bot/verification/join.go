package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/common"
)

const (
	reasonRestore = "Auto role restoration - previously verified"
	reasonOnJoin  = "Auto-assigned on join"
)

// HandleMemberJoin restores the verified role for members found in the
// ledger, or hands out the unverified role to everyone else. Cooldowns,
// the ledger and analytics are left untouched.
func (s *Service) HandleMemberJoin(ctx context.Context, m *Member) error {
	guildID := s.GuildID()
	if guildID == "" || m.GuildID != guildID {
		return nil
	}
	logger := s.logger.With("member_id", m.ID, "member", m.DisplayName)

	if s.cfg.Settings.AutoRoleRestoration {
		prev, err := s.ledger.Find(ctx, m.ID)
		switch {
		case err == nil:
			return s.restore(ctx, m, *prev)
		case !errors.Is(err, common.ErrNotFound):
			logger.Error(ctx, "ledger lookup failed", "error", err)
			return err
		}
	}

	roleID := s.cfg.Roles.Unverified
	if roleID == "" {
		return nil
	}
	ok, err := s.gw.RoleExists(ctx, guildID, roleID)
	if err != nil || !ok {
		if err == nil {
			err = fmt.Errorf("%w: unverified role %s", common.ErrNotFound, roleID)
		}
		logger.Warn(ctx, "unverified role unavailable", "error", err)
		return err
	}
	if err := s.gw.AddRole(ctx, guildID, m.ID, roleID, reasonOnJoin); err != nil {
		logger.Error(ctx, "could not add unverified role", "error", err)
		return err
	}
	logger.Info(ctx, "added unverified role to new member")
	return nil
}

func (s *Service) restore(ctx context.Context, m *Member, prev ledger.Record) error {
	logger := s.logger.With("member_id", m.ID, "member", m.DisplayName)

	ok, err := s.gw.RoleExists(ctx, m.GuildID, s.cfg.Roles.Verify)
	if err != nil {
		logger.Error(ctx, "could not look up verified role", "error", err)
		return err
	}
	if !ok {
		logger.Warn(ctx, "verified role not found, skipping restoration", "role_id", s.cfg.Roles.Verify)
		return nil
	}

	if err := s.gw.AddRole(ctx, m.GuildID, m.ID, s.cfg.Roles.Verify, reasonRestore); err != nil {
		if errors.Is(err, common.ErrPermission) {
			logger.Error(ctx, "missing permissions to restore roles", "error", err)
		} else {
			logger.Error(ctx, "error restoring roles", "error", err)
		}
		return err
	}
	logger.Info(ctx, "restored roles for returning verified member", "verified_at", prev.VerifiedAt)

	s.sendDM(ctx, m, s.embeds.WelcomeBackDM())
	s.postLog(ctx, s.embeds.RestoredLog(embeds.Mention(m.ID), m.DisplayName, prev))
	return nil
}
