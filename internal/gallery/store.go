// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"muralgen/internal/kv"
)

const (
	treeName = "gallery"
	docKey   = "state"
)

// ErrItemNotFound is returned when an operation names a generated item
// that is not in the document.
var ErrItemNotFound = errors.New("gallery: item not found")

// StyleVariant selects which StyleConfig field a style update targets.
type StyleVariant string

const (
	VariantStyle            StyleVariant = "style"
	VariantContents         StyleVariant = "contents"
	VariantNegativeContents StyleVariant = "negative_contents"
)

// DocumentStore owns the single application-state document in the
// embedded store.
type DocumentStore struct {
	db     *kv.Store
	tree   *kv.Tree
	logger *slog.Logger
}

// NewDocumentStore creates the document store on the shared database handle.
func NewDocumentStore(db *kv.Store) *DocumentStore {
	return &DocumentStore{
		db:     db,
		tree:   db.Tree(treeName),
		logger: slog.Default().With("component", "gallery"),
	}
}

// Load reads the whole document. A missing document yields a fresh state
// with the default style; it is not persisted until the first mutation.
func (d *DocumentStore) Load(ctx context.Context) (*State, error) {
	raw, err := d.tree.Get(ctx, []byte(docKey))
	if errors.Is(err, kv.ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode gallery state: %w", err)
	}
	if state.Items == nil {
		state.Items = make(map[uuid.UUID]GeneratedItem)
	}
	if state.Comments == nil {
		state.Comments = make(map[uuid.UUID]Comment)
	}
	return &state, nil
}

// Mutate runs fn over the current document inside the store's critical
// section and writes the document back if and only if fn succeeds.
func (d *DocumentStore) Mutate(ctx context.Context, fn func(*State) error) error {
	return d.db.Update(func() error {
		state, err := d.Load(ctx)
		if err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}

		raw, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode gallery state: %w", err)
		}
		return d.tree.Put(ctx, []byte(docKey), raw)
	})
}

// AddItem records a freshly generated wallpaper with Neutral
// classification and returns its ID.
func (d *DocumentStore) AddItem(ctx context.Context, prompt, shortened string) (uuid.UUID, error) {
	id := uuid.New()
	err := d.Mutate(ctx, func(state *State) error {
		state.Items[id] = GeneratedItem{
			ID:              id,
			CreatedAt:       time.Now().UTC(),
			Prompt:          prompt,
			ShortenedPrompt: shortened,
			Classification:  Neutral,
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// AddComment appends a user comment and returns its ID.
func (d *DocumentStore) AddComment(ctx context.Context, text string) (uuid.UUID, error) {
	id := uuid.New()
	err := d.Mutate(ctx, func(state *State) error {
		state.Comments[id] = Comment{
			ID:        id,
			CreatedAt: time.Now().UTC(),
			Text:      text,
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// RemoveComment deletes a comment. Removing an unknown ID is a no-op.
func (d *DocumentStore) RemoveComment(ctx context.Context, id uuid.UUID) error {
	return d.Mutate(ctx, func(state *State) error {
		delete(state.Comments, id)
		return nil
	})
}

// SetStyle updates one field of the style configuration.
func (d *DocumentStore) SetStyle(ctx context.Context, variant StyleVariant, value string) error {
	return d.Mutate(ctx, func(state *State) error {
		switch variant {
		case VariantStyle:
			state.Style.Style = value
		case VariantContents:
			state.Style.Contents = value
		case VariantNegativeContents:
			state.Style.NegativeContents = value
		default:
			return fmt.Errorf("gallery: unknown style variant %q", variant)
		}
		return nil
	})
}

// Classify sets an item's classification. Submitting the item's current
// classification toggles it back to Neutral.
func (d *DocumentStore) Classify(ctx context.Context, id uuid.UUID, class Classification) error {
	if !class.Valid() {
		return fmt.Errorf("gallery: unknown classification %q", class)
	}
	return d.Mutate(ctx, func(state *State) error {
		item, ok := state.Items[id]
		if !ok {
			return ErrItemNotFound
		}
		if item.Classification == class {
			item.Classification = Neutral
		} else {
			item.Classification = class
		}
		state.Items[id] = item
		return nil
	})
}
