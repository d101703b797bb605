package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

type Repository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, id int64, values map[string]interface{}) error
	DeleteCategory(ctx context.Context, id int64) error
	ReorderCategory(ctx context.Context, id int64, newOrder int) error

	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	FeaturedProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error)
	SearchProducts(ctx context.Context, term string) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id int64, values map[string]interface{}) error
	DeleteProduct(ctx context.Context, id int64) error
}

type Service struct {
	DB     Repository
	Logger *logger.Logger
}

func NewService(db Repository, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Slug        *string `json:"slug" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

func (p CategoryPatch) values() map[string]interface{} {
	v := map[string]interface{}{}
	setString(v, "name", p.Name)
	setString(v, "slug", p.Slug)
	setString(v, "description", p.Description)
	setString(v, "image_url", p.ImageURL)
	return v
}

type ProductInput struct {
	Name           string   `json:"name" validate:"required"`
	Slug           string   `json:"slug" validate:"required"`
	Description    string   `json:"description"`
	Price          int64    `json:"price" validate:"gte=0"`
	CompareAtPrice *int64   `json:"compareAtPrice" validate:"omitempty,gte=0"`
	CategoryID     *int64   `json:"categoryId"`
	Images         []string `json:"images"`
	Sizes          []string `json:"sizes"`
	Colors         []string `json:"colors"`
	Stock          int      `json:"stock" validate:"gte=0"`
	Featured       bool     `json:"featured"`
	Active         *bool    `json:"active"`
}

type ProductPatch struct {
	Name           *string   `json:"name" validate:"omitempty,min=1"`
	Slug           *string   `json:"slug" validate:"omitempty,min=1"`
	Description    *string   `json:"description"`
	Price          *int64    `json:"price" validate:"omitempty,gte=0"`
	CompareAtPrice *int64    `json:"compareAtPrice" validate:"omitempty,gte=0"`
	CategoryID     *int64    `json:"categoryId"`
	Images         *[]string `json:"images"`
	Sizes          *[]string `json:"sizes"`
	Colors         *[]string `json:"colors"`
	Stock          *int      `json:"stock" validate:"omitempty,gte=0"`
	Featured       *bool     `json:"featured"`
	Active         *bool     `json:"active"`
}

func (p ProductPatch) values() (map[string]interface{}, error) {
	v := map[string]interface{}{}
	setString(v, "name", p.Name)
	setString(v, "slug", p.Slug)
	setString(v, "description", p.Description)
	if p.Price != nil {
		v["price"] = *p.Price
	}
	if p.CompareAtPrice != nil {
		v["compare_at_price"] = *p.CompareAtPrice
	}
	if p.CategoryID != nil {
		v["category_id"] = *p.CategoryID
	}
	for col, list := range map[string]*[]string{"images": p.Images, "sizes": p.Sizes, "colors": p.Colors} {
		if list == nil {
			continue
		}
		b, err := json.Marshal(nonNil(*list))
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "Invalid "+col, err)
		}
		v[col] = string(b)
	}
	if p.Stock != nil {
		v["stock"] = *p.Stock
	}
	if p.Featured != nil {
		v["featured"] = *p.Featured
	}
	if p.Active != nil {
		v["active"] = *p.Active
	}
	return v, nil
}

func setString(v map[string]interface{}, col string, s *string) {
	if s != nil {
		v[col] = *s
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// degrade turns an unavailable backend into an empty read.
func degrade[T any](s *Service, op string, list []T, err error) ([]T, error) {
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("CATALOG", fmt.Sprintf("%s: %v", op, err))
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func degradeOne[T any](s *Service, op string, item *T, err error) (*T, error) {
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("CATALOG", fmt.Sprintf("%s: %v", op, err))
		return nil, nil
	}
	return item, err
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	list, err := s.DB.ListCategories(ctx)
	return degrade(s, "list categories", list, err)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.DB.GetCategory(ctx, id)
	return degradeOne(s, "get category", c, err)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.DB.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Category %q created (id %d)", c.Slug, c.ID))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) error {
	if err := utils.Validate(patch); err != nil {
		return err
	}
	if err := s.DB.UpdateCategory(ctx, id, patch.values()); err != nil {
		return fmt.Errorf("update category %d: %w", id, err)
	}
	return nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.DB.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

func (s *Service) ReorderCategory(ctx context.Context, id int64, newOrder int) error {
	if newOrder < 0 {
		return apperr.Validation("newOrder must be at least 0")
	}
	if err := s.DB.ReorderCategory(ctx, id, newOrder); err != nil {
		return fmt.Errorf("reorder category %d: %w", id, err)
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	list, err := s.DB.ListProducts(ctx, activeOnly)
	return degrade(s, "list products", list, err)
}

func (s *Service) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	list, err := s.DB.FeaturedProducts(ctx)
	return degrade(s, "featured products", list, err)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.DB.GetProduct(ctx, id)
	return degradeOne(s, "get product", p, err)
}

func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.DB.GetProductBySlug(ctx, slug)
	return degradeOne(s, "get product by slug", p, err)
}

func (s *Service) ProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	list, err := s.DB.ProductsByCategory(ctx, categoryID)
	return degrade(s, "products by category", list, err)
}

func (s *Service) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Product{}, nil
	}
	list, err := s.DB.SearchProducts(ctx, term)
	return degrade(s, "search products", list, err)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := &models.Product{
		Name:           strings.TrimSpace(in.Name),
		Slug:           strings.TrimSpace(in.Slug),
		Description:    in.Description,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		CategoryID:     in.CategoryID,
		Images:         nonNil(in.Images),
		Sizes:          nonNil(in.Sizes),
		Colors:         nonNil(in.Colors),
		Stock:          in.Stock,
		Featured:       in.Featured,
		Active:         active,
	}
	if err := s.DB.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Product %q created (id %d)", p.Slug, p.ID))
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) error {
	if err := utils.Validate(patch); err != nil {
		return err
	}
	values, err := patch.values()
	if err != nil {
		return err
	}
	if err := s.DB.UpdateProduct(ctx, id, values); err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.DB.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}
