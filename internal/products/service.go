package products

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pilotdeck/pilotdeck/internal/apiclient"
)

var cacheKey = apiclient.Key{"products"}

// Service loads and mutates the catalog through the upstream API, keeping
// the local cache patched so pages render without waiting on refetches.
type Service struct {
	client *apiclient.Client
	cache  *apiclient.Cache
	logger *slog.Logger
}

func NewService(client *apiclient.Client, cache *apiclient.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, cache: cache, logger: logger}
}

// List returns the catalog, served from cache while fresh.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return apiclient.Fetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]Product, error) {
		var posts []backendPost
		if err := s.client.Get(ctx, "/posts?_limit=10", &posts); err != nil {
			return nil, fmt.Errorf("products: list: %w", err)
		}
		out := make([]Product, 0, len(posts))
		for _, p := range posts {
			out = append(out, fromBackend(p))
		}
		return out, nil
	})
}

// Count returns the catalog size, reusing the list cache.
func (s *Service) Count(ctx context.Context) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Create posts the new product upstream and appends it to the cached list.
// The cached entry keeps its freshness window.
func (s *Service) Create(ctx context.Context, form Form) (Product, error) {
	body := map[string]any{"title": form.Name, "body": form.Category, "userId": 1}
	var created backendPost
	if err := s.client.Post(ctx, "/posts", body, &created); err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	product := Product{
		ID:       created.ID,
		Name:     form.Name,
		Category: form.Category,
		Price:    form.Price,
		Stock:    form.Stock,
		Status:   form.Status,
	}
	apiclient.PatchAppend(s.cache, cacheKey, product)
	return product, nil
}

// Update pushes the edited product upstream and replaces it in the cache.
func (s *Service) Update(ctx context.Context, id int, form Form) (Product, error) {
	body := map[string]any{"id": id, "title": form.Name, "body": form.Category, "userId": 1}
	var updated backendPost
	if err := s.client.Put(ctx, "/posts/"+strconv.Itoa(id), body, &updated); err != nil {
		return Product{}, fmt.Errorf("products: update %d: %w", id, err)
	}
	product := Product{
		ID:       id,
		Name:     form.Name,
		Category: form.Category,
		Price:    form.Price,
		Stock:    form.Stock,
		Status:   form.Status,
	}
	apiclient.PatchReplace(s.cache, cacheKey, func(p Product) bool { return p.ID == id }, product)
	return product, nil
}

// Delete removes the product upstream and drops it from the cached list.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.client.Delete(ctx, "/posts/"+strconv.Itoa(id)); err != nil {
		return fmt.Errorf("products: delete %d: %w", id, err)
	}
	apiclient.PatchRemove(s.cache, cacheKey, func(p Product) bool { return p.ID == id })
	return nil
}
