// Package state holds the editable document behind the CLI and HTTP API.
// Commands validate the candidate entity and commit only when no error
// diagnostic is present.
package state

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/validate"
)

// IDGenerator returns a fresh entity id
type IDGenerator func() string

// CommitHook runs before a new snapshot is installed.
// Returning an error aborts the commit.
type CommitHook func(next schema.Document) error

// Option configures a Container
type Option func(*Container)

// WithIDGenerator replaces the default ULID generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(c *Container) { c.newID = gen }
}

// WithCommitHook registers a hook called with every candidate snapshot
func WithCommitHook(hook CommitHook) Option {
	return func(c *Container) { c.hooks = append(c.hooks, hook) }
}

// Container guards a document snapshot. All reads return deep copies.
type Container struct {
	mu    sync.RWMutex
	doc   schema.Document
	newID IDGenerator
	hooks []CommitHook
}

// New creates a container seeded with doc
func New(doc schema.Document, opts ...Option) *Container {
	c := &Container{doc: doc.Clone()}
	for _, opt := range opts {
		opt(c)
	}
	if c.newID == nil {
		c.newID = NewULIDGenerator()
	}
	return c
}

// NewULIDGenerator returns a generator of monotonic ULIDs
func NewULIDGenerator() IDGenerator {
	var mu sync.Mutex
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	var entropy io.Reader = ulid.Monotonic(src, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

// NewID returns an id from the container's generator
func (c *Container) NewID() string {
	return c.newID()
}

// Snapshot returns a copy of the committed document
func (c *Container) Snapshot() schema.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Clone()
}

// Replace installs doc wholesale, without validation and without running
// the commit hooks. Used when the stored document changed outside the container.
func (c *Container) Replace(doc schema.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc.Clone()
}

// AddModel validates m against the current models and appends it.
// An empty id is filled from the id generator.
func (c *Container) AddModel(m schema.Model) (schema.Document, validate.Diagnostics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m.ID == "" {
		m.ID = c.newID()
	} else if _, exists := c.doc.Model(m.ID); exists {
		return c.doc.Clone(), nil, fmt.Errorf("model %s: %w", m.ID, ErrDuplicateID)
	}

	next := c.doc.AddModel(m)
	ds := validate.ValidateModel(m, next.Models)
	if ds.HasErrors() {
		return c.doc.Clone(), ds, &RejectedError{Entity: validate.EntityModel, ID: m.ID, Diagnostics: ds}
	}
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), ds, err
	}
	return next.Clone(), ds, nil
}

// UpdateModel validates m and replaces the model with the given id
func (c *Container) UpdateModel(id string, m schema.Model) (schema.Document, validate.Diagnostics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := c.doc.UpdateModel(id, m)
	if !ok {
		return c.doc.Clone(), nil, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	m.ID = id
	ds := validate.ValidateModel(m, next.Models)
	if ds.HasErrors() {
		return c.doc.Clone(), ds, &RejectedError{Entity: validate.EntityModel, ID: id, Diagnostics: ds}
	}
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), ds, err
	}
	return next.Clone(), ds, nil
}

// DeleteModel removes the model and cascades to every relationship
// referencing it. It returns the removed relationships.
func (c *Container) DeleteModel(id string) (schema.Document, []schema.Relationship, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, removed, ok := c.doc.DeleteModel(id)
	if !ok {
		return c.doc.Clone(), nil, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), nil, err
	}
	return next.Clone(), removed, nil
}

// MoveModel moves the model with the given id to position to
func (c *Container) MoveModel(id string, to int) (schema.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.doc.Model(id); !ok {
		return c.doc.Clone(), fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	next, ok := c.doc.MoveModel(id, to)
	if !ok {
		return c.doc.Clone(), fmt.Errorf("model %s to position %d of %d: %w", id, to, len(c.doc.Models), ErrInvalidIndex)
	}
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), err
	}
	return next.Clone(), nil
}

// AddRelationship validates r against the current models and appends it
func (c *Container) AddRelationship(r schema.Relationship) (schema.Document, validate.Diagnostics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.ID == "" {
		r.ID = c.newID()
	} else if _, exists := c.doc.Relationship(r.ID); exists {
		return c.doc.Clone(), nil, fmt.Errorf("relationship %s: %w", r.ID, ErrDuplicateID)
	}

	ds := validate.ValidateRelationship(r, c.doc.Models)
	if ds.HasErrors() {
		return c.doc.Clone(), ds, &RejectedError{Entity: validate.EntityRelationship, ID: r.ID, Diagnostics: ds}
	}
	next := c.doc.AddRelationship(r)
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), ds, err
	}
	return next.Clone(), ds, nil
}

// UpdateRelationship validates r and replaces the relationship with the given id
func (c *Container) UpdateRelationship(id string, r schema.Relationship) (schema.Document, validate.Diagnostics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := c.doc.UpdateRelationship(id, r)
	if !ok {
		return c.doc.Clone(), nil, fmt.Errorf("relationship %s: %w", id, ErrNotFound)
	}
	r.ID = id
	ds := validate.ValidateRelationship(r, c.doc.Models)
	if ds.HasErrors() {
		return c.doc.Clone(), ds, &RejectedError{Entity: validate.EntityRelationship, ID: id, Diagnostics: ds}
	}
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), ds, err
	}
	return next.Clone(), ds, nil
}

// DeleteRelationship removes the relationship with the given id
func (c *Container) DeleteRelationship(id string) (schema.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := c.doc.DeleteRelationship(id)
	if !ok {
		return c.doc.Clone(), fmt.Errorf("relationship %s: %w", id, ErrNotFound)
	}
	if err := c.commit(next); err != nil {
		return c.doc.Clone(), err
	}
	return next.Clone(), nil
}

// commit runs the hooks and installs next. Callers hold c.mu.
func (c *Container) commit(next schema.Document) error {
	for _, hook := range c.hooks {
		if err := hook(next.Clone()); err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
	}
	c.doc = next
	return nil
}
