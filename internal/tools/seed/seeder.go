package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/factory"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/service"
)

// Apply creates the demo users that do not exist yet, keyed by email, and
// gives each a profile. Running it twice leaves the data unchanged.
func Apply(ctx context.Context, svc service.UserServiceInterface) ([]string, error) {
	var details []string
	created := 0
	for _, demo := range demoUsers() {
		existing, err := svc.GetUserByEmail(ctx, demo.user.Email)
		switch {
		case err == nil:
			details = append(details, fmt.Sprintf("skipped existing user %s (%s)", existing.Email, existing.ID))
			continue
		case !errors.Is(err, service.ErrUserNotFound):
			return details, fmt.Errorf("lookup %s: %w", demo.user.Email, err)
		}

		u, err := svc.CreateUser(ctx, demo.user)
		if err != nil {
			return details, fmt.Errorf("create %s: %w", demo.user.Email, err)
		}
		if _, err := svc.CreateProfile(ctx, u.ID, demo.profile); err != nil {
			return details, fmt.Errorf("create profile for %s: %w", demo.user.Email, err)
		}
		if demo.vip {
			if _, err := svc.PromoteToVIP(ctx, u.ID); err != nil {
				return details, fmt.Errorf("promote %s: %w", demo.user.Email, err)
			}
		}
		created++
		details = append(details, fmt.Sprintf("created user %s (%s)", u.Email, u.ID))
	}
	details = append(details, fmt.Sprintf("created %d of %d demo users", created, len(demoUsers())))
	return details, nil
}

// Plan describes what Apply would do without touching the store.
func Plan(backend string) []string {
	details := []string{fmt.Sprintf("would ensure schema and indexes on %s", backend)}
	for _, demo := range demoUsers() {
		line := fmt.Sprintf("would create user %s with role %s", demo.user.Email, roleOrDefault(string(demo.user.Role)))
		if demo.profile.Address != nil && demo.profile.Address.Location != nil {
			line += fmt.Sprintf(" located in %s", demo.profile.Address.City)
		}
		if demo.vip {
			line += " and promote to VIP"
		}
		details = append(details, line)
	}
	return details
}

func Stats(ctx context.Context, svc service.UserServiceInterface) ([]string, error) {
	stats, err := svc.GetUserStats(ctx)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("total=%d", stats.Total),
		fmt.Sprintf("active=%d", stats.Active),
		fmt.Sprintf("inactive=%d", stats.Inactive),
		fmt.Sprintf("vip=%d", stats.VIP),
	}, nil
}

func Status(ctx context.Context, stores *factory.Factory) ([]string, error) {
	if !stores.Manager().HealthCheck(ctx) {
		return []string{"backend: " + stores.Backend()}, fmt.Errorf("%s health check failed", stores.Backend())
	}
	return []string{"backend: " + stores.Backend(), "health: ok"}, nil
}

func roleOrDefault(role string) string {
	if role == "" {
		return "USER"
	}
	return role
}
