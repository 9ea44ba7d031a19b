package handler

import (
	"context"
	"errors"

	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/entity"
	"github.com/savorly/restaurant-recommender/internal/repository"
)

// stubRestaurantsRepo backs catalogue and recommendation handler tests.
type stubRestaurantsRepo struct {
	list           func(ctx context.Context, filter dto.ListFilter) ([]entity.Restaurant, error)
	listCandidates func(ctx context.Context, limit int) ([]entity.Restaurant, error)
	getByID        func(ctx context.Context, id string) (*entity.Restaurant, error)
	places         func(ctx context.Context) ([]dto.PlaceOption, error)
	cuisines       func(ctx context.Context) ([]string, error)
	bulk           func(ctx context.Context, records []repository.BulkUpsertRestaurantInput) (repository.BulkUpsertResult, error)
}

func (s *stubRestaurantsRepo) List(ctx context.Context, filter dto.ListFilter) ([]entity.Restaurant, error) {
	if s.list != nil {
		return s.list(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRestaurantsRepo) ListCandidates(ctx context.Context, limit int) ([]entity.Restaurant, error) {
	if s.listCandidates != nil {
		return s.listCandidates(ctx, limit)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRestaurantsRepo) GetByID(ctx context.Context, id string) (*entity.Restaurant, error) {
	if s.getByID != nil {
		return s.getByID(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRestaurantsRepo) Places(ctx context.Context) ([]dto.PlaceOption, error) {
	if s.places != nil {
		return s.places(ctx)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRestaurantsRepo) Cuisines(ctx context.Context) ([]string, error) {
	if s.cuisines != nil {
		return s.cuisines(ctx)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRestaurantsRepo) BulkUpsertRestaurants(ctx context.Context, records []repository.BulkUpsertRestaurantInput) (repository.BulkUpsertResult, error) {
	if s.bulk != nil {
		return s.bulk(ctx, records)
	}
	return repository.BulkUpsertResult{}, errors.New("not implemented")
}

func (s *stubRestaurantsRepo) Count(ctx context.Context) (int64, error) {
	return 0, errors.New("not implemented")
}
