// Package tokenmodel implements the TokenModelRegistry and its five
// built-in estimation models (spec §4.7): a lookup table of token
// estimators keyed by id, with legacy-id resolution and a default model.
// Specialized from the teacher's internal/domain/registry Add/GetByKey
// shape, since a model needs only a flat id lookup, not the registry's
// namespace/version/chain-key identifier scheme.
package tokenmodel

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"sync"
)

// Errors returned by Registry operations.
var (
	ErrDuplicateID  = errors.New("tokenmodel: duplicate model id")
	ErrNilModel     = errors.New("tokenmodel: model cannot be nil")
	ErrNoModels     = errors.New("tokenmodel: no default model set")
)

// Metadata describes a model for display in settings/help UI.
type Metadata struct {
	ID          string
	Name        string
	ShortName   string
	Description string
	Performance string
	IsDefault   bool
}

// Model is a token-estimation heuristic (spec §4.7). Implementations are
// orthogonal to the rest of the system and to each other.
type Model interface {
	GetMetadata() Metadata
	// Estimate returns an integer token count ≥ 0 for rawText, after
	// applying calibration.
	Estimate(rawText string, calibration float64) int
}

// NormalizeText collapses runs of whitespace and trims the result, the
// shared first step spec §4.7 requires of every model's estimate.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ApplyCalibration rounds t*c, treating a non-positive calibration as a
// no-op multiplier of 1, per spec §4.7.
func ApplyCalibration(t int, c float64) int {
	if c <= 0 {
		c = 1
	}
	return int(math.Round(float64(t) * c))
}

// Registry enumerates available token models and resolves ids to them.
type Registry struct {
	mu        sync.RWMutex
	models    map[string]Model
	order     []string
	defaultID string
	legacy    map[string]string
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry to get one
// pre-populated with the five required models.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]Model),
		legacy: make(map[string]string),
	}
}

// Register adds model to the registry under its metadata id.
func (r *Registry) Register(m Model) error {
	if m == nil {
		return ErrNilModel
	}
	id := m.GetMetadata().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[id]; exists {
		return ErrDuplicateID
	}
	r.models[id] = m
	r.order = append(r.order, id)
	return nil
}

// RegisterLegacyAlias maps a legacy model name to a current model id, used
// by ResolveModelID.
func (r *Registry) RegisterLegacyAlias(legacyName, currentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.legacy[legacyName] = currentID
}

// SetDefaultModel marks id as the model returned by GetDefaultModel.
func (r *Registry) SetDefaultModel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[id]; !ok {
		return ErrNoModels
	}
	r.defaultID = id
	return nil
}

// HasModel reports whether id is a registered model.
func (r *Registry) HasModel(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[id]
	return ok
}

// GetModel returns the model registered under id, or false if unknown.
func (r *Registry) GetModel(id string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[id]
	return m, ok
}

// GetDefaultModel returns the registry's default model. Panics-free: if no
// default has been set, returns the zero Model and false.
func (r *Registry) GetDefaultModel() (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultID == "" {
		return nil, false
	}
	m, ok := r.models[r.defaultID]
	return m, ok
}

// List returns every registered model's metadata, in registration order.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.models[id].GetMetadata())
	}
	return out
}

// ResolveModelID maps input through the legacy-alias table, then validates
// it's a registered id. Unknown ids (and unset defaults) resolve to the
// registry's default model id. It never fails, per spec §4.7, and is
// idempotent: ResolveModelID(ResolveModelID(x)) == ResolveModelID(x).
func (r *Registry) ResolveModelID(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if alias, ok := r.legacy[input]; ok {
		input = alias
	}
	if _, ok := r.models[input]; ok {
		return input
	}
	return r.defaultID
}

var wordRE = regexp.MustCompile(`\S+`)

func wordCount(s string) int {
	return len(wordRE.FindAllString(s, -1))
}
