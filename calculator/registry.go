// Package calculator mantém o catálogo de scores e o despacho
// score id -> Calculator por um registro estático.
package calculator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrScoreNotFound  = errors.New("score not found")
	ErrNotImplemented = errors.New("calculator not implemented")
	ErrDuplicateScore = errors.New("score already registered")
)

// Params é o corpo JSON de uma requisição de cálculo.
type Params map[string]any

// Result é a resposta padrão de qualquer calculadora.
type Result struct {
	Result           any    `json:"result"`
	Unit             string `json:"unit"`
	Interpretation   string `json:"interpretation"`
	Stage            string `json:"stage"`
	StageDescription string `json:"stage_description"`
}

type Calculator interface {
	Calculate(p Params) (Result, error)
}

// Func adapta uma função para Calculator.
type Func func(p Params) (Result, error)

func (f Func) Calculate(p Params) (Result, error) { return f(p) }

type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Description string   `json:"description"`
}

type Metadata struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Version     string      `json:"version"`
	Parameters  []Parameter `json:"parameters"`
	ResultUnit  string      `json:"result_unit"`
	References  []string    `json:"references,omitempty"`
}

// Summary é a forma resumida usada na listagem.
type Summary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Version     string `json:"version"`
}

func (m Metadata) Summary() Summary {
	return Summary{ID: m.ID, Title: m.Title, Description: m.Description, Category: m.Category, Version: m.Version}
}

type entry struct {
	meta Metadata
	calc Calculator
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adiciona um score ao catálogo. calc pode ser nil: o score aparece
// na listagem, mas o cálculo responde "not implemented".
func (r *Registry) Register(meta Metadata, calc Calculator) error {
	id := strings.TrimSpace(meta.ID)
	if id == "" {
		return errors.New("score id is required")
	}
	meta.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScore, id)
	}
	r.entries[id] = entry{meta: meta, calc: calc}
	return nil
}

func (r *Registry) Get(id string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.meta, ok
}

func (r *Registry) HasCalculator(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id].calc != nil
}

// List devolve os scores ordenados por id.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	out := make([]Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.meta)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) ByCategory(category string) []Metadata {
	category = strings.TrimSpace(category)
	return r.filter(func(m Metadata) bool {
		return strings.EqualFold(m.Category, category)
	})
}

// Search procura o termo (sem diferenciar maiúsculas) em id, título e descrição.
func (r *Registry) Search(term string) []Metadata {
	term = strings.ToLower(strings.TrimSpace(term))
	return r.filter(func(m Metadata) bool {
		return strings.Contains(strings.ToLower(m.ID), term) ||
			strings.Contains(strings.ToLower(m.Title), term) ||
			strings.Contains(strings.ToLower(m.Description), term)
	})
}

func (r *Registry) filter(keep func(Metadata) bool) []Metadata {
	out := []Metadata{}
	for _, m := range r.List() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Registry) Categories() []string {
	seen := map[string]struct{}{}
	for _, m := range r.List() {
		seen[m.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Calculate(id string, p Params) (Result, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrScoreNotFound, id)
	}
	if e.calc == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrNotImplemented, id)
	}
	return e.calc.Calculate(p)
}

// Default devolve o catálogo embutido.
func Default() *Registry {
	r := NewRegistry()
	_ = r.Register(chads2Metadata, Func(CalculateChads2))
	_ = r.Register(cha2ds2VascMetadata, nil)
	return r
}
