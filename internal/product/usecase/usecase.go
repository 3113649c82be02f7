package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ledgerdto "github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/product"
	"github.com/terra-footwear/terra-stock-service/internal/product/dto"
	"github.com/terra-footwear/terra-stock-service/internal/stock"
	"github.com/terra-footwear/terra-stock-service/pkg/cache"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
	"github.com/terra-footwear/terra-stock-service/pkg/search"
)

const productIndex = "products"

// MovementAppender is the ledger's write path. Variants are persisted
// with zero stock and seeded through an initial movement, so replaying
// the ledger always reproduces the live counter.
type MovementAppender interface {
	Append(ctx context.Context, input *ledgerdto.AppendMovementInput) (*model.StockMovement, error)
}

type productUseCase struct {
	repo             product.Repository
	ledger           MovementAppender
	cache            *cache.RedisClient
	es               *search.Client
	logger           logger.ZapLogger
	defaultThreshold int
}

func NewProductUseCase(repo product.Repository, ledger MovementAppender, cache *cache.RedisClient, es *search.Client, log logger.ZapLogger, defaultThreshold int) product.UseCase {
	return &productUseCase{
		repo:             repo,
		ledger:           ledger,
		cache:            cache,
		es:               es,
		logger:           log,
		defaultThreshold: defaultThreshold,
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	slug := input.Slug
	if slug == "" {
		slug = slugify(input.Title)
	}

	existing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("slug already exists")
	}

	id := uuid.New().String()
	now := time.Now()

	p := &model.Product{
		BaseModel:        model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Title:            input.Title,
		Slug:             slug,
		Collection:       input.Collection,
		Price:            input.Price,
		ShortDescription: input.ShortDescription,
		IsFeatured:       input.IsFeatured,
		IsNewArrival:     input.IsNewArrival,
	}

	for _, s := range input.Sizes {
		if !model.IsValidSize(s.Size) {
			return nil, fmt.Errorf("invalid size %q", s.Size)
		}
		if p.Variant(s.Size) != nil {
			return nil, fmt.Errorf("duplicate size %q", s.Size)
		}
		threshold := uc.defaultThreshold
		if s.LowStockThreshold != nil {
			threshold = *s.LowStockThreshold
		}
		v := model.SizeVariant{
			ProductID:         id,
			Size:              s.Size,
			LowStockThreshold: threshold,
			UpdatedAt:         now,
		}
		stock.Recalculate(&v)
		p.Sizes = append(p.Sizes, v)
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	for _, s := range input.Sizes {
		if err := uc.seedInitialStock(ctx, id, s.Size, s.Stock); err != nil {
			return nil, err
		}
	}

	p, err = uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

// seedInitialStock puts the opening quantity on the books as an initial
// movement. Zero-stock sizes get no entry.
func (uc *productUseCase) seedInitialStock(ctx context.Context, productID, size string, quantity int) error {
	if quantity <= 0 || uc.ledger == nil {
		return nil
	}
	_, err := uc.ledger.Append(ctx, &ledgerdto.AppendMovementInput{
		ProductID:   productID,
		Size:        size,
		Type:        model.MovementInitial,
		Quantity:    quantity,
		Reason:      "Initial stock count",
		IsAutomated: true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed initial stock for size %s: %w", size, err)
	}
	return nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, keyErr := uc.listCacheKey(filters)
	if keyErr == nil && uc.cache != nil {
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var cached struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if keyErr == nil && uc.cache != nil {
		payload, err := json.Marshal(struct {
			Products []model.Product
			Count    int
		}{products, count})
		if err == nil {
			if err := uc.cache.Set(ctx, cacheKey, payload, 60*time.Second); err != nil {
				uc.logger.Warn("failed to cache product list", zap.Error(err))
			}
		}
	}

	return products, count, nil
}

func (uc *productUseCase) listCacheKey(filters *dto.ProductFilters) (string, error) {
	raw, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(raw)), nil
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	iter := uc.cache.Client.Scan(ctx, 0, "products:list:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := uc.cache.Del(ctx, iter.Val()); err != nil {
			uc.logger.Warn("failed to invalidate cache key", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if input.Title != nil {
		p.Title = *input.Title
	}
	if input.Collection != nil {
		p.Collection = *input.Collection
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.ShortDescription != nil {
		p.ShortDescription = *input.ShortDescription
	}
	if input.IsFeatured != nil {
		p.IsFeatured = *input.IsFeatured
	}
	if input.IsNewArrival != nil {
		p.IsNewArrival = *input.IsNewArrival
	}
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	// Threshold edits and newly added sizes. Stock counters are owned by
	// the movement ledger and are not writable here; a new size starts
	// empty and its opening quantity enters as an initial movement.
	for _, s := range input.Sizes {
		if !model.IsValidSize(s.Size) {
			return nil, fmt.Errorf("invalid size %q", s.Size)
		}
		existing := p.Variant(s.Size)
		if existing != nil {
			if s.LowStockThreshold != nil {
				existing.LowStockThreshold = *s.LowStockThreshold
			}
			existing.UpdatedAt = p.UpdatedAt
			if violation := stock.Recalculate(existing); violation != nil {
				uc.logger.Error("stock invariant violation", zap.Error(violation))
			}
			if err := uc.repo.UpsertVariant(ctx, existing); err != nil {
				return nil, err
			}
			continue
		}

		threshold := uc.defaultThreshold
		if s.LowStockThreshold != nil {
			threshold = *s.LowStockThreshold
		}
		v := model.SizeVariant{
			ProductID:         p.ID,
			Size:              s.Size,
			LowStockThreshold: threshold,
			UpdatedAt:         p.UpdatedAt,
		}
		stock.Recalculate(&v)
		if err := uc.repo.UpsertVariant(ctx, &v); err != nil {
			return nil, err
		}
		if err := uc.seedInitialStock(ctx, p.ID, s.Size, s.Stock); err != nil {
			return nil, err
		}
		seeded, err := uc.repo.GetVariant(ctx, p.ID, s.Size)
		if err != nil {
			return nil, err
		}
		if seeded != nil {
			v = *seeded
		}
		p.Sizes = append(p.Sizes, v)
	}

	go uc.invalidateListCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"title": { "type": "text" },
				"slug": { "type": "keyword" },
				"collection": { "type": "keyword" },
				"short_description": { "type": "text" },
				"price": { "type": "double" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productIndex, mapping)

	if err := uc.es.Index(ctx, productIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) SearchProducts(ctx context.Context, query string, limit int) ([]json.RawMessage, error) {
	if uc.es == nil {
		return nil, errors.New("search is not available")
	}
	if limit <= 0 {
		limit = 20
	}

	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "short_description", "collection"},
			},
		},
	}
	return uc.es.Search(ctx, productIndex, body)
}

func (uc *productUseCase) GetStock(ctx context.Context, id string) ([]model.SizeVariant, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return p.Sizes, nil
}

func (uc *productUseCase) GetStockHistory(ctx context.Context, id string, limit int) ([]model.StockHistoryEntry, error) {
	return uc.repo.ListHistory(ctx, id, limit)
}
