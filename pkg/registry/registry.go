package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iancoleman/strcase"
)

type Component interface {
	any
}

type Provider interface {
	any
}

type ComponentCreator[C Component, P Provider] func(config json.RawMessage, provider P) (C, error)

// Registry creates components by type name. Names are matched in lowerCamel form, so
// "stroke-log", "stroke_log" and "strokeLog" refer to the same component.
type Registry[C Component, P Provider] struct {
	components map[string]ComponentCreator[C, P]
	provider   P
}

func NewRegistry[C Component, P Provider](provider P) *Registry[C, P] {
	return &Registry[C, P]{
		provider:   provider,
		components: make(map[string]ComponentCreator[C, P]),
	}
}

func normalize(id string) string {
	return strcase.ToLowerCamel(id)
}

func (r *Registry[C, P]) Register(id string, creator ComponentCreator[C, P]) {
	id = normalize(id)
	if _, ok := r.components[id]; ok {
		panic("component already registered: " + id)
	}
	r.components[id] = creator
}

func (r *Registry[C, P]) Has(id string) bool {
	_, ok := r.components[normalize(id)]
	return ok
}

func (r *Registry[C, P]) Names() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry[C, P]) New(id string, config json.RawMessage) (C, error) {
	creator, ok := r.components[normalize(id)]
	if !ok {
		var component C
		return component, fmt.Errorf("component not found: %s", id)
	}
	return creator(config, r.provider)
}
