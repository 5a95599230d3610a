package adapters

import (
	"strings"

	"github.com/pixelpay/topup/internal/charge/domain"
	"github.com/pixelpay/topup/internal/config"
)

type Registry struct {
	factories map[string]domain.ProviderFactory
}

func NewRegistry(factories ...domain.ProviderFactory) *Registry {
	registry := &Registry{factories: map[string]domain.ProviderFactory{}}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(factory.Name()))
		if name == "" {
			continue
		}
		registry.factories[name] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(name string) bool {
	if r == nil {
		return false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	_, ok := r.factories[name]
	return ok
}

func (r *Registry) NewProvider(name string, cfg config.PaymentConfig) (domain.Provider, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	name = strings.ToLower(strings.TrimSpace(name))
	factory, ok := r.factories[name]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return factory.New(cfg)
}
