// Package shared holds small cross-cutting types used by cmd/coolproxy:
// currently just the service registry that coordinates startup, shutdown,
// and health reporting across the node's long-running components.
package shared

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "shared")

// Service is anything the node's registry can start, stop, and health-check.
type Service interface {
	Start()
	Stop() error
	Status() error
}

// ServiceRegistry tracks the list of services the node has registered, in
// registration order, and drives their lifecycle together. Lookups are by
// concrete type, mirroring how each registered service's constructor is
// later retrieved by the thing that depends on it.
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[reflect.Type]Service
	order    []reflect.Type
}

// NewServiceRegistry returns an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{services: make(map[reflect.Type]Service)}
}

// RegisterService adds service to the registry, keyed by its concrete type.
// Registering the same type twice is an error.
func (r *ServiceRegistry) RegisterService(service Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := reflect.TypeOf(service)
	if _, exists := r.services[kind]; exists {
		return fmt.Errorf("service already registered: %s", kind)
	}
	r.services[kind] = service
	r.order = append(r.order, kind)
	return nil
}

// FetchService populates the value pointed to by service with the
// registered instance matching its type. service must be a non-nil pointer
// to an interface or concrete type implementing Service.
func (r *ServiceRegistry) FetchService(service interface{}) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pointer := reflect.ValueOf(service)
	if pointer.Kind() != reflect.Ptr {
		return fmt.Errorf("argument to FetchService must be a pointer, got %T", service)
	}
	element := pointer.Elem()
	kind := element.Type()

	if instance, ok := r.services[kind]; ok {
		element.Set(reflect.ValueOf(instance))
		return nil
	}
	return fmt.Errorf("unknown service type %s", kind)
}

// StartAll starts every registered service in registration order.
func (r *ServiceRegistry) StartAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range r.order {
		log.WithField("service", kind).Debug("Starting service")
		r.services[kind].Start()
	}
}

// StopAll stops every registered service in reverse registration order.
func (r *ServiceRegistry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		kind := r.order[i]
		log.WithField("service", kind).Debug("Stopping service")
		if err := r.services[kind].Stop(); err != nil {
			log.WithField("service", kind).WithError(err).Error("Failed to stop service")
		}
	}
}

// Statuses returns each registered service's current Status(), keyed by
// concrete type, for a health-check handler to render.
func (r *ServiceRegistry) Statuses() map[reflect.Type]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[reflect.Type]error, len(r.order))
	for _, kind := range r.order {
		statuses[kind] = r.services[kind].Status()
	}
	return statuses
}
