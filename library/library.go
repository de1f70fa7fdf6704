// Package library provides typed access to the studio's collections on top
// of a core.CollectionStore.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dnastudio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type Library struct {
	store core.CollectionStore
	// mu guards read-modify-write cycles on whole collections.
	mu sync.Mutex
}

func New(store core.CollectionStore) *Library {
	return &Library{store: store}
}

func load[T any](ctx context.Context, store core.CollectionStore, name string) ([]T, error) {
	data, err := store.Load(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func save[T any](ctx context.Context, store core.CollectionStore, name string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	return store.Save(ctx, name, data)
}

// Posts returns all posts, newest first.
func (l *Library) Posts(ctx context.Context) ([]*core.GeneratedPost, error) {
	return load[*core.GeneratedPost](ctx, l.store, core.CollectionPosts)
}

func (l *Library) Post(ctx context.Context, id string) (*core.GeneratedPost, error) {
	posts, err := l.Posts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", id, core.ErrNotFound)
}

// CreatePost stores a new post in front of the existing ones.
func (l *Library) CreatePost(ctx context.Context, post *core.GeneratedPost) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	posts, err := l.Posts(ctx)
	if err != nil {
		return err
	}
	posts = append([]*core.GeneratedPost{post}, posts...)
	if err := save(ctx, l.store, core.CollectionPosts, posts); err != nil {
		return err
	}
	logrus.WithField("post_id", post.ID).Info("Post created")
	return nil
}

// CommitPost replaces the stored post with post, provided the stored copy
// is still at expectedVersion. Otherwise ErrStaleResult is returned and
// nothing is written.
func (l *Library) CommitPost(ctx context.Context, post *core.GeneratedPost, expectedVersion uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	posts, err := l.Posts(ctx)
	if err != nil {
		return err
	}
	for i, p := range posts {
		if p.ID != post.ID {
			continue
		}
		if p.Version != expectedVersion {
			logrus.WithFields(logrus.Fields{
				"post_id":          post.ID,
				"stored_version":   p.Version,
				"expected_version": expectedVersion,
			}).Warn("Refusing to overwrite newer post")
			return core.ErrStaleResult
		}
		posts[i] = post
		return save(ctx, l.store, core.CollectionPosts, posts)
	}
	return fmt.Errorf("post %s: %w", post.ID, core.ErrNotFound)
}

func (l *Library) DeletePost(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	posts, err := l.Posts(ctx)
	if err != nil {
		return err
	}
	for i, p := range posts {
		if p.ID == id {
			posts = append(posts[:i], posts[i+1:]...)
			return save(ctx, l.store, core.CollectionPosts, posts)
		}
	}
	return fmt.Errorf("post %s: %w", id, core.ErrNotFound)
}

func (l *Library) Blueprints(ctx context.Context) ([]core.Blueprint, error) {
	return load[core.Blueprint](ctx, l.store, core.CollectionBlueprints)
}

func (l *Library) Blueprint(ctx context.Context, id string) (core.Blueprint, error) {
	blueprints, err := l.Blueprints(ctx)
	if err != nil {
		return core.Blueprint{}, err
	}
	for _, b := range blueprints {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Blueprint{}, fmt.Errorf("blueprint %s: %w", id, core.ErrNotFound)
}

// SaveBlueprint assigns an id and creation time when missing and stores the
// blueprint first in the collection. An existing blueprint with the same id
// is replaced in place.
func (l *Library) SaveBlueprint(ctx context.Context, b core.Blueprint) (core.Blueprint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.DNA = b.DNA.WithDefaults()

	blueprints, err := l.Blueprints(ctx)
	if err != nil {
		return core.Blueprint{}, err
	}
	blueprints = upsertFront(blueprints, b, func(x core.Blueprint) string { return x.ID })
	if err := save(ctx, l.store, core.CollectionBlueprints, blueprints); err != nil {
		return core.Blueprint{}, err
	}
	return b, nil
}

func (l *Library) DeleteBlueprint(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	blueprints, err := l.Blueprints(ctx)
	if err != nil {
		return err
	}
	out, ok := remove(blueprints, func(x core.Blueprint) bool { return x.ID == id })
	if !ok {
		return fmt.Errorf("blueprint %s: %w", id, core.ErrNotFound)
	}
	return save(ctx, l.store, core.CollectionBlueprints, out)
}

func (l *Library) Brands(ctx context.Context) ([]core.BrandIdentity, error) {
	return load[core.BrandIdentity](ctx, l.store, core.CollectionBrands)
}

func (l *Library) Brand(ctx context.Context, id string) (core.BrandIdentity, error) {
	brands, err := l.Brands(ctx)
	if err != nil {
		return core.BrandIdentity{}, err
	}
	for _, b := range brands {
		if b.ID == id {
			return b, nil
		}
	}
	return core.BrandIdentity{}, fmt.Errorf("brand %s: %w", id, core.ErrNotFound)
}

func (l *Library) SaveBrand(ctx context.Context, b core.BrandIdentity) (core.BrandIdentity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.DNA = b.DNA.WithDefaults()
	if b.Name == "" {
		b.Name = b.DNA.BrandName
	}

	brands, err := l.Brands(ctx)
	if err != nil {
		return core.BrandIdentity{}, err
	}
	brands = upsertFront(brands, b, func(x core.BrandIdentity) string { return x.ID })
	if err := save(ctx, l.store, core.CollectionBrands, brands); err != nil {
		return core.BrandIdentity{}, err
	}
	return b, nil
}

func (l *Library) DeleteBrand(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	brands, err := l.Brands(ctx)
	if err != nil {
		return err
	}
	out, ok := remove(brands, func(x core.BrandIdentity) bool { return x.ID == id })
	if !ok {
		return fmt.Errorf("brand %s: %w", id, core.ErrNotFound)
	}
	return save(ctx, l.store, core.CollectionBrands, out)
}

// RecordUsage appends entry to the usage log.
func (l *Library) RecordUsage(ctx context.Context, entry core.UsageLog) error {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return l.store.Append(ctx, core.CollectionUsageLogs, data)
}

// UsageLogs returns the usage log, newest first.
func (l *Library) UsageLogs(ctx context.Context) ([]core.UsageLog, error) {
	logs, err := load[core.UsageLog](ctx, l.store, core.CollectionUsageLogs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs, nil
}

func (l *Library) ResetUsage(ctx context.Context) error {
	return l.store.Save(ctx, core.CollectionUsageLogs, []byte("[]"))
}

func upsertFront[T any](items []T, item T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append([]T{item}, items...)
}

func remove[T any](items []T, match func(T) bool) ([]T, bool) {
	for i := range items {
		if match(items[i]) {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}
