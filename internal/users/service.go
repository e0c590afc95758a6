package users

import (
	"context"
	"fmt"

	"github.com/pilotdeck/pilotdeck/internal/apiclient"
)

var cacheKey = apiclient.Key{"users"}

// Service loads the user directory through the upstream API.
type Service struct {
	client *apiclient.Client
	cache  *apiclient.Cache
}

func NewService(client *apiclient.Client, cache *apiclient.Cache) *Service {
	return &Service{client: client, cache: cache}
}

// List returns the directory, served from cache while fresh.
func (s *Service) List(ctx context.Context) ([]DirectoryUser, error) {
	return apiclient.Fetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]DirectoryUser, error) {
		var raw []backendUser
		if err := s.client.Get(ctx, "/users", &raw); err != nil {
			return nil, fmt.Errorf("users: list: %w", err)
		}
		out := make([]DirectoryUser, 0, len(raw))
		for _, u := range raw {
			out = append(out, fromBackend(u))
		}
		return out, nil
	})
}

// Count returns the directory size, reusing the list cache.
func (s *Service) Count(ctx context.Context) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
