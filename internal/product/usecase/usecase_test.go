package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerdto "github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/product/dto"
	"github.com/terra-footwear/terra-stock-service/internal/stock"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

// fakeProductRepo hands out copies on every read, like rows scanned
// from the database, so mutations only stick through explicit writes.
type fakeProductRepo struct {
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*model.Product{}}
}

func clone(p *model.Product) *model.Product {
	cp := *p
	cp.Sizes = append([]model.SizeVariant(nil), p.Sizes...)
	return &cp
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	r.products[p.ID] = clone(p)
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if p, ok := r.products[id]; ok {
		return clone(p), nil
	}
	return nil, nil
}

func (r *fakeProductRepo) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *model.Product) error {
	stored, ok := r.products[p.ID]
	if !ok {
		return nil
	}
	sizes := stored.Sizes
	*stored = *p
	stored.Sizes = sizes
	return nil
}

func (r *fakeProductRepo) GetVariant(ctx context.Context, productID, size string) (*model.SizeVariant, error) {
	if p, ok := r.products[productID]; ok {
		if v := p.Variant(size); v != nil {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) UpsertVariant(ctx context.Context, v *model.SizeVariant) error {
	p, ok := r.products[v.ProductID]
	if !ok {
		return nil
	}
	if existing := p.Variant(v.Size); existing != nil {
		*existing = *v
		return nil
	}
	p.Sizes = append(p.Sizes, *v)
	return nil
}

func (r *fakeProductRepo) ListHistory(ctx context.Context, productID string, limit int) ([]model.StockHistoryEntry, error) {
	return nil, nil
}

// fakeAppender applies each movement to the stored variant, like the
// real ledger pipeline does.
type fakeAppender struct {
	repo      *fakeProductRepo
	movements []ledgerdto.AppendMovementInput
}

func (a *fakeAppender) Append(ctx context.Context, input *ledgerdto.AppendMovementInput) (*model.StockMovement, error) {
	p := a.repo.products[input.ProductID]
	v := p.Variant(input.Size)
	if err := stock.ApplyDelta(v, input.Quantity, false); err != nil {
		return nil, err
	}
	stock.Recalculate(v)
	a.movements = append(a.movements, *input)
	return &model.StockMovement{Reference: "MOV-TEST", Type: input.Type, Quantity: input.Quantity}, nil
}

func newTestUseCase() (*fakeProductRepo, *fakeAppender, *productUseCase) {
	repo := newFakeProductRepo()
	appender := &fakeAppender{repo: repo}
	uc := NewProductUseCase(repo, appender, nil, nil, logger.NewNop(), 5)
	return repo, appender, uc.(*productUseCase)
}

func TestCreateProductSeedsStockThroughLedger(t *testing.T) {
	_, appender, uc := newTestUseCase()

	p, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		Title:      "Trail Runner",
		Collection: model.CollectionOrigin,
		Price:      120,
		Sizes: []dto.SizeInput{
			{Size: "42", Stock: 10},
			{Size: "43", Stock: 0},
		},
	})

	require.NoError(t, err)
	require.Len(t, appender.movements, 1, "only nonzero opening stock gets an initial entry")
	m := appender.movements[0]
	assert.Equal(t, model.MovementInitial, m.Type)
	assert.Equal(t, "42", m.Size)
	assert.Equal(t, 10, m.Quantity)
	assert.True(t, m.IsAutomated)

	v := p.Variant("42")
	require.NotNil(t, v)
	assert.Equal(t, 10, v.Stock)
	assert.Equal(t, 10, v.AvailableStock)
	assert.Equal(t, 0, p.Variant("43").Stock)
}

func TestUpdateProductSeedsNewSizeThroughLedger(t *testing.T) {
	_, appender, uc := newTestUseCase()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Title:      "Trail Runner",
		Collection: model.CollectionOrigin,
		Price:      120,
		Sizes:      []dto.SizeInput{{Size: "42", Stock: 10}},
	})
	require.NoError(t, err)

	updated, err := uc.UpdateProduct(ctx, created.ID, &dto.UpdateProductInput{
		Sizes: []dto.SizeInput{{Size: "44", Stock: 5}},
	})
	require.NoError(t, err)

	require.Len(t, appender.movements, 2)
	m := appender.movements[1]
	assert.Equal(t, model.MovementInitial, m.Type)
	assert.Equal(t, "44", m.Size)
	assert.Equal(t, 5, m.Quantity)

	v := updated.Variant("44")
	require.NotNil(t, v)
	assert.Equal(t, 5, v.Stock)
}

func TestUpdateProductThresholdEditMovesNoStock(t *testing.T) {
	_, appender, uc := newTestUseCase()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Title:      "Trail Runner",
		Collection: model.CollectionOrigin,
		Price:      120,
		Sizes:      []dto.SizeInput{{Size: "42", Stock: 10}},
	})
	require.NoError(t, err)
	movements := len(appender.movements)

	threshold := 8
	updated, err := uc.UpdateProduct(ctx, created.ID, &dto.UpdateProductInput{
		Sizes: []dto.SizeInput{{Size: "42", Stock: 99, LowStockThreshold: &threshold}},
	})
	require.NoError(t, err)

	assert.Len(t, appender.movements, movements, "counters of an existing size are not writable here")
	v := updated.Variant("42")
	assert.Equal(t, 10, v.Stock)
	assert.Equal(t, 8, v.LowStockThreshold)
}

func TestCreateProductRejectsDuplicateSlug(t *testing.T) {
	_, _, uc := newTestUseCase()
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Title:      "Trail Runner",
		Collection: model.CollectionOrigin,
		Price:      120,
		Sizes:      []dto.SizeInput{{Size: "42", Stock: 1}},
	})
	require.NoError(t, err)

	_, err = uc.CreateProduct(ctx, &dto.CreateProductInput{
		Title:      "Trail Runner",
		Collection: model.CollectionMove,
		Price:      130,
		Sizes:      []dto.SizeInput{{Size: "42", Stock: 1}},
	})
	require.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "trail-runner-2-0", slugify("Trail Runner 2.0"))
	assert.Equal(t, "city-walker", slugify("  City   Walker  "))
}
