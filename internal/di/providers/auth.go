package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
)

// AuthSecret is the token signing secret.
type AuthSecret string

// ProvideAuthSecret uses the configured secret, or loads or generates one
// under the data path.
func ProvideAuthSecret(i do.Injector) (AuthSecret, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.Secret != "" {
		log.Info("Using configured authentication secret", "token_format", cfg.Auth.TokenFormat)
		return AuthSecret(cfg.Auth.Secret), nil
	}

	secret, err := auth.LoadOrGenerateSecret(cfg.App.DataPath)
	if err != nil {
		return "", err
	}

	log.Info("Authentication secret loaded",
		"token_format", cfg.Auth.TokenFormat,
		"token_duration", cfg.Auth.TokenDuration,
	)

	return AuthSecret(secret), nil
}

// ProvideTokenService provides the token service for the configured format.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	secret := do.MustInvoke[AuthSecret](i)

	return auth.NewTokenService(auth.TokenOptions{
		Secret:   string(secret),
		Format:   cfg.Auth.TokenFormat,
		Duration: cfg.Auth.TokenDuration,
	})
}
