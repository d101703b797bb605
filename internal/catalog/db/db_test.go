package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/models"
)

func seedCategories(t *testing.T, d *DB, n int) []models.Category {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		c := &models.Category{Name: fmt.Sprintf("Cat %d", i), Slug: fmt.Sprintf("cat-%d", i)}
		require.NoError(t, d.CreateCategory(ctx, c))
	}
	list, err := d.ListCategories(ctx)
	require.NoError(t, err)
	return list
}

func orderOf(t *testing.T, d *DB) []string {
	t.Helper()
	list, err := d.ListCategories(context.Background())
	require.NoError(t, err)
	var slugs []string
	for i, c := range list {
		assert.Equal(t, i, c.DisplayOrder, "display orders stay contiguous")
		slugs = append(slugs, c.Slug)
	}
	return slugs
}

func TestCreateCategoryAppends(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	list := seedCategories(t, d, 3)

	require.Len(t, list, 3)
	for i, c := range list {
		assert.Equal(t, i, c.DisplayOrder)
	}
}

func TestReorderCategory(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	list := seedCategories(t, d, 4)
	ctx := context.Background()

	// move cat-0 down to position 2
	require.NoError(t, d.ReorderCategory(ctx, list[0].ID, 2))
	assert.Equal(t, []string{"cat-1", "cat-2", "cat-0", "cat-3"}, orderOf(t, d))

	// move cat-3 up to position 0
	require.NoError(t, d.ReorderCategory(ctx, list[3].ID, 0))
	assert.Equal(t, []string{"cat-3", "cat-1", "cat-2", "cat-0"}, orderOf(t, d))

	// same position is a no-op
	require.NoError(t, d.ReorderCategory(ctx, list[3].ID, 0))
	assert.Equal(t, []string{"cat-3", "cat-1", "cat-2", "cat-0"}, orderOf(t, d))

	err := d.ReorderCategory(ctx, 999, 1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDuplicateSlugRejected(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	require.NoError(t, d.CreateCategory(ctx, &models.Category{Name: "Tees", Slug: "tees"}))

	err := d.CreateCategory(ctx, &models.Category{Name: "Tees 2", Slug: "tees"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "Category already exists", apperr.MessageOf(err))
}

func newProduct(slug string, featured, active bool) *models.Product {
	return &models.Product{
		Name:     "Product " + slug,
		Slug:     slug,
		Price:    2500,
		Images:   []string{"https://cdn/" + slug + ".jpg"},
		Sizes:    []string{"S", "M"},
		Colors:   []string{},
		Featured: featured,
		Active:   active,
	}
}

func TestFeaturedProductsLimitAndFilter(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, d.CreateProduct(ctx, newProduct(fmt.Sprintf("f-%d", i), true, true)))
	}
	require.NoError(t, d.CreateProduct(ctx, newProduct("hidden", true, false)))
	require.NoError(t, d.CreateProduct(ctx, newProduct("plain", false, true)))

	list, err := d.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, FeaturedProductsLimit)
	for _, p := range list {
		assert.True(t, p.Featured && p.Active)
	}
	assert.Equal(t, "f-9", list[0].Slug, "newest first")
}

func TestProductJSONColumnsRoundTrip(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	p := newProduct("hoodie", false, true)
	require.NoError(t, d.CreateProduct(ctx, p))

	got, err := d.GetProductBySlug(ctx, "hoodie")
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M"}, got.Sizes)
	assert.Equal(t, p.ID, got.ID)
}

func TestSearchAndCategoryListsOnlyActive(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	cat := &models.Category{Name: "Tees", Slug: "tees"}
	require.NoError(t, d.CreateCategory(ctx, cat))

	visible := newProduct("lion-tee", false, true)
	visible.CategoryID = &cat.ID
	hidden := newProduct("lion-tee-old", false, false)
	hidden.CategoryID = &cat.ID
	require.NoError(t, d.CreateProduct(ctx, visible))
	require.NoError(t, d.CreateProduct(ctx, hidden))

	found, err := d.SearchProducts(ctx, "lion")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "lion-tee", found[0].Slug)

	byCat, err := d.ProductsByCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, byCat, 1)

	all, err := d.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	d := &DB{Bun: testdb.New(t)}
	ctx := context.Background()
	p := newProduct("cap", false, true)
	require.NoError(t, d.CreateProduct(ctx, p))
	before := time.Now().UTC().Add(-time.Second)

	require.NoError(t, d.UpdateProduct(ctx, p.ID, map[string]interface{}{"price": int64(1999), "colors": `["black"]`}))
	got, err := d.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1999), got.Price)
	assert.Equal(t, []string{"black"}, got.Colors)
	assert.True(t, got.UpdatedAt.After(before))

	err = d.UpdateProduct(ctx, 999, map[string]interface{}{"price": int64(1)})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, d.DeleteProduct(ctx, p.ID))
	_, err = d.GetProduct(ctx, p.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
