package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
)

type Repository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key, value, description string) error
}

type Service struct {
	DB     Repository
	Cache  Cache
	Logger *logger.Logger
}

func NewService(db Repository, cache Cache, log *logger.Logger) *Service {
	return &Service{DB: db, Cache: cache, Logger: log}
}

// Get returns the setting or nil when it does not exist.
func (s *Service) Get(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.DB.Get(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("SETTINGS", fmt.Sprintf("Cannot read %s: %v", key, err))
		return nil, nil
	}
	return setting, err
}

// List returns every setting, or an empty list when the store is down.
func (s *Service) List(ctx context.Context) ([]models.Setting, error) {
	list, err := s.DB.List(ctx)
	if errors.Is(err, apperr.ErrUnavailable) {
		s.Logger.Warn("SETTINGS", fmt.Sprintf("Cannot list settings: %v", err))
		return []models.Setting{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Setting{}
	}
	return list, nil
}

func (s *Service) Upsert(ctx context.Context, key, value, description string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.Validation("key is required")
	}
	if err := s.DB.Upsert(ctx, key, value, description); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, key); err != nil {
			s.Logger.Warn("SETTINGS", fmt.Sprintf("Cache invalidation failed for %s: %v", key, err))
		}
	}
	return nil
}

// Value resolves key through the cache. Missing keys and read failures both
// yield "".
func (s *Service) Value(ctx context.Context, key string) string {
	if s.Cache != nil {
		v, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			s.Logger.Warn("SETTINGS", fmt.Sprintf("Cache read failed for %s: %v", key, err))
		} else if ok {
			return v
		}
	}

	setting, err := s.Get(ctx, key)
	if err != nil {
		s.Logger.Error("SETTINGS", fmt.Sprintf("Failed to read %s: %v", key, err))
		return ""
	}
	if setting == nil {
		return ""
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, setting.Value); err != nil {
			s.Logger.Warn("SETTINGS", fmt.Sprintf("Cache write failed for %s: %v", key, err))
		}
	}
	return setting.Value
}

func (s *Service) WhatsAppNumber(ctx context.Context) string {
	return s.Value(ctx, models.SettingWhatsAppNumber)
}

func (s *Service) AdminEmail(ctx context.Context) string {
	return s.Value(ctx, models.SettingAdminEmail)
}

// Contact returns the configured public support channels keyed by setting key.
func (s *Service) Contact(ctx context.Context) map[string]string {
	out := make(map[string]string)
	for _, key := range models.SupportSettingKeys {
		if v := s.Value(ctx, key); v != "" {
			out[key] = v
		}
	}
	return out
}
