package repository

import (
	"context"
	"time"

	"gotrabandhus/internal/domain"
)

// TreeSummary describes a stored tree without loading its nodes
type TreeSummary struct {
	ID        string    `json:"id"`
	Members   int       `json:"members"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository loads and saves family trees. A tree is identified by the id of
// its owner, which is also the id of the owner's own node.
type Repository interface {
	// GetTree returns the stored graph, or an empty graph if the tree does not exist
	GetTree(ctx context.Context, treeID string) (*domain.FamilyGraph, error)
	// SaveTree replaces the stored graph with g
	SaveTree(ctx context.Context, treeID string, g *domain.FamilyGraph) error
	DeleteTree(ctx context.Context, treeID string) error
	ListTrees(ctx context.Context) ([]TreeSummary, error)

	// GetProfile returns nil, nil when no profile was saved
	GetProfile(ctx context.Context, treeID string) (*domain.Profile, error)
	SaveProfile(ctx context.Context, treeID string, p *domain.Profile) error

	// Close releases resources
	Close() error
}
