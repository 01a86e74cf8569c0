package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrijs2005/verifybot/internal/common"
)

// JSON error codes returned by the Discord API.
const (
	codeUnknownChannel     = 10003
	codeUnknownGuild       = 10004
	codeUnknownMember      = 10007
	codeUnknownMessage     = 10008
	codeUnknownRole        = 10011
	codeUnknownUser        = 10013
	codeMissingAccess      = 50001
	codeCannotDM           = 50007
	codeMissingPermissions = 50013
)

// mapError translates REST failures into the common sentinels. The REST
// error stays in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}

	status, code := 0, 0
	if rest.Response != nil {
		status = rest.Response.StatusCode
	}
	if rest.Message != nil {
		code = rest.Message.Code
	}

	switch {
	case code == codeCannotDM:
		return fmt.Errorf("%w: %w", common.ErrDelivery, err)
	case code == codeMissingPermissions, code == codeMissingAccess, status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", common.ErrPermission, err)
	case code == codeUnknownChannel, code == codeUnknownGuild, code == codeUnknownMember,
		code == codeUnknownMessage, code == codeUnknownRole, code == codeUnknownUser,
		status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", common.ErrNotFound, err)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	return err
}
