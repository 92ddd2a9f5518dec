package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"goldmarket/internal/domain/repository"
	"goldmarket/internal/infrastructure/ratelimit"
	"goldmarket/pkg/errors"
)

// maxTokenLength guards the user document against junk; FCM tokens are
// well under this.
const maxTokenLength = 4096

type TokenUseCase struct {
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
	logger      zerolog.Logger
}

func NewTokenUseCase(userRepo repository.UserRepository, rateLimiter *ratelimit.RateLimiter, logger zerolog.Logger) *TokenUseCase {
	return &TokenUseCase{
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
		logger:      logger.With().Str("component", "token_registry").Logger(),
	}
}

// RegisterToken adds token to the user's set. Registering a token twice
// leaves a single copy.
func (uc *TokenUseCase) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if userID == "" {
		return errors.Validation("user id is required")
	}
	if token == "" {
		return errors.Validation("token is required")
	}
	if len(token) > maxTokenLength {
		return errors.Validation("token is too long")
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionRegisterToken); !allowed {
			uc.logger.Warn().Str("user_id", userID).Dur("retry_after", wait).Msg("token registration rate limited")
			return errors.TooManyRequests("Too many token registrations, please retry later")
		}
	}

	if err := uc.userRepo.AddFCMToken(ctx, userID, token); err != nil {
		return err
	}

	uc.logger.Debug().Str("user_id", userID).Msg("push token registered")
	return nil
}

// UnregisterToken removes one token, e.g. on sign-out from a device.
func (uc *TokenUseCase) UnregisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return errors.Validation("user id and token are required")
	}
	return uc.userRepo.RemoveFCMTokens(ctx, userID, []string{token})
}

func (uc *TokenUseCase) Tokens(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, errors.Validation("user id is required")
	}
	return uc.userRepo.GetFCMTokens(ctx, userID)
}

// PruneInvalidTokens removes exactly the given tokens from the user's set.
func (uc *TokenUseCase) PruneInvalidTokens(ctx context.Context, userID string, tokens []string) error {
	var prune []string
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		prune = append(prune, t)
	}
	if len(prune) == 0 {
		return nil
	}

	if err := uc.userRepo.RemoveFCMTokens(ctx, userID, prune); err != nil {
		return err
	}

	uc.logger.Info().Str("user_id", userID).Int("count", len(prune)).Msg("pruned invalid push tokens")
	return nil
}
