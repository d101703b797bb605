package cart

import (
	"context"
	"errors"
	"fmt"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/cart/db"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

type Repository interface {
	List(ctx context.Context, owner db.Owner) ([]models.CartItem, error)
	Add(ctx context.Context, owner db.Owner, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, owner db.Owner, id int64, quantity int) error
	Remove(ctx context.Context, owner db.Owner, id int64) error
	Clear(ctx context.Context, owner db.Owner) error
}

// ProductLookup confirms a product exists before it is carted.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type Service struct {
	DB       Repository
	Products ProductLookup
	Logger   *logger.Logger
}

func NewService(db Repository, products ProductLookup, log *logger.Logger) *Service {
	return &Service{DB: db, Products: products, Logger: log}
}

type AddInput struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	SessionID string `json:"sessionId"`
}

var errNoOwner = apperr.Validation("sessionId is required when not signed in")

// Get returns the owner's cart. An anonymous caller without a session has an
// empty cart.
func (s *Service) Get(ctx context.Context, owner db.Owner) ([]models.CartItem, error) {
	if owner.Empty() {
		return []models.CartItem{}, nil
	}
	items, err := s.DB.List(ctx, owner)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("CART", fmt.Sprintf("list cart: %v", err))
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

func (s *Service) Add(ctx context.Context, owner db.Owner, in AddInput) (*models.CartItem, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if owner.Empty() {
		return nil, errNoOwner
	}
	p, err := s.Products.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if !p.Active {
		return nil, apperr.NotFound("Product not found")
	}

	item := &models.CartItem{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Size:      in.Size,
		Color:     in.Color,
	}
	if err := s.DB.Add(ctx, owner, item); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return item, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, owner db.Owner, id int64, quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	if owner.Empty() {
		return errNoOwner
	}
	if err := s.DB.UpdateQuantity(ctx, owner, id, quantity); err != nil {
		return fmt.Errorf("update cart item %d: %w", id, err)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, owner db.Owner, id int64) error {
	if owner.Empty() {
		return errNoOwner
	}
	if err := s.DB.Remove(ctx, owner, id); err != nil {
		return fmt.Errorf("remove cart item %d: %w", id, err)
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, owner db.Owner) error {
	if owner.Empty() {
		return nil
	}
	if err := s.DB.Clear(ctx, owner); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
