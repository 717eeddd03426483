package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gotrabandhus/internal/codec"
	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/metrics"
	"gotrabandhus/internal/repository"
)

// Import strategies
const (
	StrategyReplace = "replace"
	StrategyMerge   = "merge"
)

// Options tunes TreeService behavior
type Options struct {
	// ProtectRoot refuses to delete the member whose id equals the tree id
	ProtectRoot bool
	// StrictImport rejects imported documents that violate relation invariants
	StrictImport bool
}

// TreeService applies edits to stored family trees
type TreeService struct {
	repo     repository.Repository
	ids      domain.IDGenerator
	eventBus *EventBus
	logger   *zap.Logger
	validate *validator.Validate
	opts     Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTreeService creates a new tree service
func NewTreeService(repo repository.Repository, ids domain.IDGenerator, eventBus *EventBus, logger *zap.Logger, opts Options) *TreeService {
	if ids == nil {
		ids = domain.UUIDGenerator{}
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeService{
		repo:     repo,
		ids:      ids,
		eventBus: eventBus,
		logger:   logger,
		validate: validator.New(),
		opts:     opts,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock serializes writers of one tree and returns the unlock func
func (s *TreeService) lock(treeID string) func() {
	s.mu.Lock()
	l, ok := s.locks[treeID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[treeID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ============================================================================
// Reads
// ============================================================================

// GetTree returns the stored tree; an unknown tree is empty
func (s *TreeService) GetTree(ctx context.Context, treeID string) (*domain.FamilyGraph, error) {
	return s.repo.GetTree(ctx, treeID)
}

// ListTrees returns a summary of every stored tree
func (s *TreeService) ListTrees(ctx context.Context) ([]repository.TreeSummary, error) {
	return s.repo.ListTrees(ctx)
}

// GetMember retrieves a single member
func (s *TreeService) GetMember(ctx context.Context, treeID, memberID string) (*domain.PersonNode, error) {
	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	node, ok := g.FindByID(memberID)
	if !ok {
		return nil, &domain.NotFoundError{ID: memberID}
	}
	return node, nil
}

// Validate reports every relation invariant the stored tree breaks
func (s *TreeService) Validate(ctx context.Context, treeID string) ([]domain.Violation, error) {
	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	return domain.Validate(g), nil
}

// ============================================================================
// Edits
// ============================================================================

// AddMember attaches a new person to anchorID and returns the new id
func (s *TreeService) AddMember(ctx context.Context, treeID, anchorID string, attrs domain.Attributes, kind domain.RelationKind) (id string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveMutation("add", start, err) }()

	unlock := s.lock(treeID)
	defer unlock()

	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return "", err
	}

	next, id, err := domain.AddMember(g, s.ids, anchorID, attrs, kind)
	if err != nil {
		return "", err
	}

	if err := s.save(ctx, treeID, next); err != nil {
		return "", err
	}

	s.logger.Info("member added",
		zap.String("tree_id", treeID),
		zap.String("member_id", id),
		zap.String("anchor_id", anchorID),
		zap.String("relation", string(kind)))

	s.eventBus.Publish(Event{
		Type:   EventMemberAdded,
		TreeID: treeID,
		Payload: map[string]string{
			"member_id": id,
			"anchor_id": anchorID,
			"relation":  string(kind),
		},
	})

	return id, nil
}

// UpdateMember merges attrs into a member's attributes
func (s *TreeService) UpdateMember(ctx context.Context, treeID, memberID string, attrs domain.Attributes) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMutation("update", start, err) }()

	unlock := s.lock(treeID)
	defer unlock()

	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return err
	}

	next, err := domain.UpdateMember(g, memberID, attrs)
	if err != nil {
		return err
	}

	if err := s.save(ctx, treeID, next); err != nil {
		return err
	}

	s.logger.Info("member updated", zap.String("tree_id", treeID), zap.String("member_id", memberID))

	s.eventBus.Publish(Event{
		Type:    EventMemberUpdated,
		TreeID:  treeID,
		Payload: map[string]string{"member_id": memberID},
	})

	return nil
}

// DeleteMember removes a member and every reference to it
func (s *TreeService) DeleteMember(ctx context.Context, treeID, memberID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMutation("delete", start, err) }()

	if s.opts.ProtectRoot && memberID == treeID {
		return fmt.Errorf("%w: %s", ErrRootProtected, memberID)
	}

	unlock := s.lock(treeID)
	defer unlock()

	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return err
	}

	next, err := domain.DeleteMember(g, memberID)
	if err != nil {
		return err
	}

	if err := s.save(ctx, treeID, next); err != nil {
		return err
	}

	s.logger.Info("member deleted", zap.String("tree_id", treeID), zap.String("member_id", memberID))

	s.eventBus.Publish(Event{
		Type:    EventMemberDeleted,
		TreeID:  treeID,
		Payload: map[string]string{"member_id": memberID},
	})

	return nil
}

// ClearTree removes a tree and its profile
func (s *TreeService) ClearTree(ctx context.Context, treeID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMutation("clear", start, err) }()

	unlock := s.lock(treeID)
	defer unlock()

	if err := s.repo.DeleteTree(ctx, treeID); err != nil {
		return fmt.Errorf("failed to clear tree: %w", err)
	}
	metrics.TreeMembers.DeleteLabelValues(treeID)

	s.logger.Info("tree cleared", zap.String("tree_id", treeID))
	s.eventBus.Publish(Event{Type: EventTreeCleared, TreeID: treeID})

	return nil
}

func (s *TreeService) save(ctx context.Context, treeID string, g *domain.FamilyGraph) error {
	if err := s.repo.SaveTree(ctx, treeID, g); err != nil {
		return fmt.Errorf("failed to save tree: %w", err)
	}
	metrics.TreeMembers.WithLabelValues(treeID).Set(float64(g.Len()))
	return nil
}

// ============================================================================
// Profile
// ============================================================================

// GetProfile returns the profile saved for a tree
func (s *TreeService) GetProfile(ctx context.Context, treeID string) (*domain.Profile, error) {
	p, err := s.repo.GetProfile(ctx, treeID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile for tree %s: %w", treeID, domain.ErrNotFound)
	}
	return p, nil
}

// SaveProfile stores the profile and creates or updates the tree's root
// member (id == treeID) from it. The saved root node is returned.
func (s *TreeService) SaveProfile(ctx context.Context, treeID string, p *domain.Profile) (node *domain.PersonNode, err error) {
	start := time.Now()
	defer func() { metrics.ObserveMutation("profile", start, err) }()

	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	unlock := s.lock(treeID)
	defer unlock()

	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	var next *domain.FamilyGraph
	created := false
	if _, ok := g.FindByID(treeID); ok {
		next, err = domain.UpdateMember(g, treeID, p.Attributes())
		if err != nil {
			return nil, err
		}
		// The root in next is a private copy, so dropping newly hidden
		// keys cannot touch g.
		root, _ := next.FindByID(treeID)
		for _, key := range p.HiddenKeys() {
			delete(root.Data, key)
		}
	} else {
		next = g.Clone()
		next.Put(domain.NewPersonNode(treeID, p.Attributes()))
		created = true
	}

	if err := s.save(ctx, treeID, next); err != nil {
		return nil, err
	}
	if err := s.repo.SaveProfile(ctx, treeID, p); err != nil {
		// Put the previous tree back so the root never runs ahead of its profile.
		if rbErr := s.save(ctx, treeID, g); rbErr != nil {
			s.logger.Error("failed to restore tree after profile save error",
				zap.String("tree_id", treeID), zap.Error(rbErr))
		}
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Info("profile saved", zap.String("tree_id", treeID), zap.Bool("created", created))

	s.eventBus.Publish(Event{
		Type:    EventProfileSaved,
		TreeID:  treeID,
		Payload: map[string]interface{}{"member_id": treeID, "created": created},
	})

	node, _ = next.FindByID(treeID)
	return node, nil
}

// ============================================================================
// Import / Export
// ============================================================================

// Document is an exported tree in one format
type Document struct {
	Format      string
	ContentType string
	Data        []byte
	ETag        string
}

// Export encodes the stored tree in the given format
func (s *TreeService) Export(ctx context.Context, treeID, format string) (doc *Document, err error) {
	defer func() {
		size := 0
		if doc != nil {
			size = len(doc.Data)
		}
		metrics.ObserveTransfer("export", format, size, err)
	}()

	c, err := codec.Lookup(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	g, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.Export(g, &buf); err != nil {
		return nil, err
	}

	return &Document{
		Format:      c.Format(),
		ContentType: c.ContentType(),
		Data:        buf.Bytes(),
		ETag:        codec.Digest(buf.Bytes()),
	}, nil
}

// ExportJSON exports the tree as JSON
func (s *TreeService) ExportJSON(ctx context.Context, treeID string) ([]byte, error) {
	doc, err := s.Export(ctx, treeID, "json")
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// ExportYAML exports the tree as YAML
func (s *TreeService) ExportYAML(ctx context.Context, treeID string) ([]byte, error) {
	doc, err := s.Export(ctx, treeID, "yaml")
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Strategy   string             `json:"strategy"`
	Format     string             `json:"format"`
	Members    int                `json:"members"`
	Created    int                `json:"created"`
	Updated    int                `json:"updated"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// Import parses data and stores it as the tree using strategy
func (s *TreeService) Import(ctx context.Context, treeID, format string, data []byte, strategy string) (result *ImportResult, err error) {
	defer func() { metrics.ObserveTransfer("import", format, len(data), err) }()

	if strategy == "" {
		strategy = StrategyReplace
	}
	if strategy != StrategyReplace && strategy != StrategyMerge {
		return nil, fmt.Errorf("%w %q, must be 'replace' or 'merge'", ErrInvalidStrategy, strategy)
	}

	c, err := codec.Lookup(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	imported, err := c.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	unlock := s.lock(treeID)
	defer unlock()

	current, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	result = &ImportResult{Strategy: strategy, Format: c.Format()}
	next := imported
	if strategy == StrategyMerge {
		next = current.Clone()
	}
	for _, node := range imported.Nodes() {
		if _, exists := current.FindByID(node.ID); exists {
			result.Updated++
		} else {
			result.Created++
		}
		if strategy == StrategyMerge {
			next.Put(node)
		}
	}
	result.Members = next.Len()

	violations := domain.Validate(next)
	if len(violations) > 0 {
		if s.opts.StrictImport {
			return nil, &InvariantError{Violations: violations}
		}
		result.Violations = violations
		s.logger.Warn("imported tree has inconsistent relations",
			zap.String("tree_id", treeID),
			zap.Int("violations", len(violations)))
	}

	if err := s.save(ctx, treeID, next); err != nil {
		return nil, err
	}

	s.logger.Info("tree imported",
		zap.String("tree_id", treeID),
		zap.String("strategy", strategy),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated))

	s.eventBus.Publish(Event{
		Type:    EventTreeImported,
		TreeID:  treeID,
		Payload: result,
	})

	return result, nil
}
