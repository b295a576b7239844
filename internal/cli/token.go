package cli

import (
	"fmt"
	"io"

	"github.com/eshaffer321/subtrack/internal/infrastructure/auth"
	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
)

// RunMintToken prints a signed access token for flags.UserID.
func RunMintToken(cfg *config.Config, flags *MintTokenFlags, out io.Writer) error {
	authCfg := cfg.Auth
	if flags.TTL > 0 {
		authCfg.TokenTTL = flags.TTL
	}

	token, err := auth.NewTokenService(authCfg).Issue(flags.UserID)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
