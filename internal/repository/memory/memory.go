// Package memory is an in-process repository. Nothing survives a restart;
// it backs tests, the CLI and servers started with database.driver=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/repository"
)

type tree struct {
	graph     *domain.FamilyGraph
	updatedAt time.Time
}

// Repository keeps trees and profiles in maps. Values are cloned on the way
// in and out so callers never share nodes with the store.
type Repository struct {
	mu       sync.RWMutex
	trees    map[string]tree
	profiles map[string]domain.Profile
}

var _ repository.Repository = (*Repository)(nil)

// New creates an empty repository
func New() *Repository {
	return &Repository{
		trees:    make(map[string]tree),
		profiles: make(map[string]domain.Profile),
	}
}

func (r *Repository) GetTree(ctx context.Context, treeID string) (*domain.FamilyGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trees[treeID]
	if !ok {
		return domain.NewFamilyGraph(), nil
	}
	return t.graph.Clone(), nil
}

func (r *Repository) SaveTree(ctx context.Context, treeID string, g *domain.FamilyGraph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trees[treeID] = tree{graph: g.Clone(), updatedAt: time.Now()}
	return nil
}

func (r *Repository) DeleteTree(ctx context.Context, treeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trees, treeID)
	delete(r.profiles, treeID)
	return nil
}

func (r *Repository) ListTrees(ctx context.Context) ([]repository.TreeSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	trees := make([]repository.TreeSummary, 0, len(r.trees))
	for id, t := range r.trees {
		trees = append(trees, repository.TreeSummary{
			ID:        id,
			Members:   t.graph.Len(),
			UpdatedAt: t.updatedAt,
		})
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i].ID < trees[j].ID })
	return trees, nil
}

func (r *Repository) GetProfile(ctx context.Context, treeID string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[treeID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *Repository) SaveProfile(ctx context.Context, treeID string, p *domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[treeID] = *p
	return nil
}

func (r *Repository) Close() error {
	return nil
}
