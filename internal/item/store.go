package item

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// maxIDAttempts bounds retries when a generated UUID collides.
const maxIDAttempts = 3

// Store is the item service used by the API. It generates IDs, delegates
// persistence to a Repository and reports mutations to an EventSink.
//
// All public methods are thread-safe if the Repository is.
type Store struct {
	repo   Repository
	sink   EventSink
	logger Logger
	now    func() time.Time
}

// NewStore creates a Store over repo. A nil sink discards events.
func NewStore(repo Repository, sink EventSink) *Store {
	if sink == nil {
		sink = noopSink{}
	}
	return &Store{
		repo:   repo,
		sink:   sink,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Create stores a new item with a fresh random ID and returns it.
func (s *Store) Create(ctx context.Context, name, description string) (Item, error) {
	for range maxIDAttempts {
		it := Item{ID: GenerateID(), Name: name, Description: description}

		err := s.repo.Create(ctx, it)
		if errors.Is(err, ErrItemExists) {
			s.logger.Warn("generated item id collided, retrying", "id", it.ID)
			continue
		}
		if err != nil {
			return Item{}, fmt.Errorf("creating item: %w", err)
		}

		s.logger.Info("item created", "id", it.ID, "name", it.Name)
		s.emit(ctx, ActionCreated, it)
		return it, nil
	}
	return Item{}, fmt.Errorf("creating item: %w", ErrItemExists)
}

// Get returns the item with id, or ErrItemNotFound.
func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	return s.repo.Get(ctx, id)
}

// List returns every item ordered by name.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

// Update replaces the name and description of the item with id. The ID
// never changes. Returns ErrItemNotFound if id is absent.
func (s *Store) Update(ctx context.Context, id, name, description string) (Item, error) {
	it := Item{ID: id, Name: name, Description: description}
	if err := s.repo.Update(ctx, it); err != nil {
		return Item{}, err
	}

	s.logger.Info("item updated", "id", id, "name", name)
	s.emit(ctx, ActionUpdated, it)
	return it, nil
}

// Delete removes the item with id. Returns ErrItemNotFound if id is absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("item deleted", "id", id)
	s.emit(ctx, ActionDeleted, Item{ID: id})
	return nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Store) emit(ctx context.Context, action Action, it Item) {
	s.sink.ItemChanged(ctx, Event{
		Action:    action,
		Item:      it,
		Actor:     ActorFromContext(ctx),
		Timestamp: s.now().UTC(),
	})
}
