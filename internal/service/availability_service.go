package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/metrics"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/pkg/logger"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AvailabilityService searches bookable inventory and answers point
// availability checks.
type AvailabilityService interface {
	// Search returns resorts with at least one bookable room type for the
	// stay, priced, filtered, sorted and paginated.
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)

	// CheckAvailability reports whether the room type has the requested
	// units free on every night of [checkIn, checkOut).
	CheckAvailability(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time, units int) (bool, error)
}

type availabilityService struct {
	catalogRepo   repository.CatalogRepository
	inventoryRepo repository.InventoryRepository
	pricing       PricingService
	cache         *goredis.Client
	cacheTTL      time.Duration
	metrics       *metrics.BookingMetrics
}

// NewAvailabilityService creates a new AvailabilityService. The cache client
// may be nil, in which case every search hits the database.
func NewAvailabilityService(
	catalogRepo repository.CatalogRepository,
	inventoryRepo repository.InventoryRepository,
	pricing PricingService,
	cache *goredis.Client,
	cacheTTL time.Duration,
	bookingMetrics *metrics.BookingMetrics,
) AvailabilityService {
	return &availabilityService{
		catalogRepo:   catalogRepo,
		inventoryRepo: inventoryRepo,
		pricing:       pricing,
		cache:         cache,
		cacheTTL:      cacheTTL,
		metrics:       bookingMetrics,
	}
}

func (s *availabilityService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.search")
	defer span.End()

	checkIn, checkOut, fields := req.Validate()
	if fields != nil {
		return nil, validationError(fields)
	}
	occupancy := req.Adults + req.Children

	if s.metrics != nil {
		s.metrics.Inc(ctx, s.metrics.SearchRequests)
	}

	cacheKey := s.searchCacheKey(req)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		if s.metrics != nil {
			s.metrics.Inc(ctx, s.metrics.SearchCacheHits)
		}
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	candidates, err := s.catalogRepo.SearchCandidates(ctx, repository.SearchFilter{
		ResortID:    req.ResortID,
		RoomTypeID:  req.RoomTypeID,
		AmenityID:   req.AmenityID,
		MinCapacity: occupancy,
		MinStars:    req.MinStars,
	})
	if err != nil {
		return nil, err
	}

	results := s.priceAndFilter(ctx, candidates, checkIn, checkOut, req.MinPrice, req.MaxPrice)
	sortResults(results, req.SortBy)

	page, pageSize := normalizePage(req.Page, req.PageSize)
	total := len(results)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	resp := &dto.SearchResponse{
		Results:  results[start:end],
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
	s.toCache(ctx, cacheKey, resp)

	span.SetAttributes(attribute.Int("total", total))
	return resp, nil
}

// priceAndFilter drops candidates with no free units or no applicable rate
// and groups the survivors by resort.
func (s *availabilityService) priceAndFilter(ctx context.Context, candidates []repository.SearchRow, checkIn, checkOut time.Time, minPrice, maxPrice float64) []dto.ResortResult {
	byResort := map[string]*dto.ResortResult{}
	var order []string

	// free-unit floors are shared by every rate plan of a room type
	freeUnits := map[string]int{}

	for _, row := range candidates {
		free, ok := freeUnits[row.RoomType.ID]
		if !ok {
			var err error
			free, err = s.inventoryRepo.MinFreeUnits(ctx, row.RoomType.ID, checkIn, checkOut)
			if err != nil {
				logger.Get().WithContext(ctx).Warn("skipping room type in search",
					zap.String("room_type_id", row.RoomType.ID),
					zap.Error(err),
				)
				free = 0
			}
			freeUnits[row.RoomType.ID] = free
		}
		if free < 1 {
			continue
		}

		quote, err := s.pricing.CalculateTotalPrice(ctx, row.RatePlan.ID, checkIn, checkOut, 1)
		if err != nil {
			if errors.Is(err, domain.ErrNoApplicableRate) {
				continue
			}
			logger.Get().WithContext(ctx).Warn("skipping rate plan in search",
				zap.String("rate_plan_id", row.RatePlan.ID),
				zap.Error(err),
			)
			continue
		}
		if minPrice > 0 && quote.Total < minPrice {
			continue
		}
		if maxPrice > 0 && quote.Total > maxPrice {
			continue
		}

		resort, ok := byResort[row.Resort.ID]
		if !ok {
			resort = &dto.ResortResult{
				ResortID:    row.Resort.ID,
				ResortName:  row.Resort.Name,
				Location:    row.Resort.Location,
				StarRating:  row.Resort.StarRating,
				LowestPrice: quote.Total,
			}
			byResort[row.Resort.ID] = resort
			order = append(order, row.Resort.ID)
		}
		if quote.Total < resort.LowestPrice {
			resort.LowestPrice = quote.Total
		}
		resort.RoomTypes = append(resort.RoomTypes, dto.RoomTypeResult{
			RoomTypeID:   row.RoomType.ID,
			RoomTypeName: row.RoomType.Name,
			RatePlanID:   row.RatePlan.ID,
			RatePlanName: row.RatePlan.Name,
			MaxOccupancy: row.RoomType.MaxOccupancy,
			FreeUnits:    free,
			TotalPrice:   quote.Total,
		})
	}

	results := make([]dto.ResortResult, 0, len(order))
	for _, id := range order {
		results = append(results, *byResort[id])
	}
	return results
}

func sortResults(results []dto.ResortResult, sortBy string) {
	switch sortBy {
	case dto.SortPriceAsc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].LowestPrice < results[j].LowestPrice
		})
	case dto.SortPriceDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].LowestPrice > results[j].LowestPrice
		})
	case dto.SortRatingDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].StarRating > results[j].StarRating
		})
	case dto.SortNameAsc, "":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].ResortName < results[j].ResortName
		})
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func (s *availabilityService) CheckAvailability(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time, units int) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.check")
	defer span.End()

	span.SetAttributes(
		attribute.String("room_type_id", roomTypeID),
		attribute.Int("units", units),
	)

	if len(domain.NightsBetween(checkIn, checkOut)) == 0 {
		return false, domain.ErrInvalidDateRange
	}
	if units < 1 {
		return false, domain.ErrInvalidUnits
	}

	free, err := s.inventoryRepo.MinFreeUnits(ctx, roomTypeID, checkIn, checkOut)
	if err != nil {
		return false, err
	}

	available := free >= units
	span.SetAttributes(attribute.Bool("available", available))
	return available, nil
}

func (s *availabilityService) searchCacheKey(req *dto.SearchRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return "availability:search:" + hex.EncodeToString(sum[:16])
}

func (s *availabilityService) fromCache(ctx context.Context, key string) *dto.SearchResponse {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	resp := &dto.SearchResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil
	}
	return resp
}

func (s *availabilityService) toCache(ctx context.Context, key string, resp *dto.SearchResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		logger.Get().WithContext(ctx).Debug("failed to cache search response", zap.Error(err))
	}
}

// validationError wraps field errors so handlers can render a 422
func validationError(fields map[string]string) error {
	return &FieldError{Fields: fields}
}

// FieldError carries per-field validation messages across the service
// boundary. Handlers unwrap it with errors.As to render field-level
// responses.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}
