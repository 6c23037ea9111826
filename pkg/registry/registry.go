// Package registry maps action types to their factories. Dispatch over
// action kinds happens here once, at creation time, never as a type switch
// in the engine.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.ActionType]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[models.ActionType]protocol.ActionFactory),
	}
}

func (r *Registry) Register(factory protocol.ActionFactory) {
	r.factories[factory.ID()] = factory
	r.logger.Debug("registered action factory", "type", factory.ID())
}

// Create validates the configuration against the factory's schema and
// builds the action.
func (r *Registry) Create(actionType models.ActionType, config map[string]any) (protocol.Action, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	if schema := factory.Schema(); schema != nil {
		if err := validateConfig(schema, config); err != nil {
			return nil, fmt.Errorf("invalid %s configuration: %w", actionType, err)
		}
	}

	return factory.Create(config)
}

// Available returns the registered action types, sorted.
func (r *Registry) Available() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

func validateConfig(schema, config map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	configLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("configuration does not match schema: %s", errs[0].String())
		}

		return fmt.Errorf("configuration does not match schema")
	}

	return nil
}
