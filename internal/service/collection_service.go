package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/vbonduro/photoshelf/internal/docstore"
	"github.com/vbonduro/photoshelf/internal/domain"
)

// DefaultBackupRetention is the number of backups kept after a save.
const DefaultBackupRetention = 10

const saveMessage = "Photos saved successfully"

var (
	ErrInvalidJSON    = errors.New("invalid JSON data")
	ErrMissingFields  = errors.New("missing required fields")
	ErrCorruptedStore = errors.New("corrupted data file")
	ErrWriteFailed    = errors.New("failed to save data")
)

type CollectionService struct {
	store     docstore.DocumentStore
	retention int
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*CollectionService)

// WithRetention overrides DefaultBackupRetention.
func WithRetention(n int) Option {
	return func(s *CollectionService) { s.retention = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *CollectionService) { s.now = now }
}

func NewCollectionService(store docstore.DocumentStore, logger *slog.Logger, opts ...Option) *CollectionService {
	s := &CollectionService{
		store:     store,
		retention: DefaultBackupRetention,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the stored document, or the default skeleton when nothing has
// been saved yet. The skeleton is not persisted.
func (s *CollectionService) Load(ctx context.Context) (*domain.Document, error) {
	data, err := s.store.Read(ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		s.logger.Debug("no document stored, serving default")
		return domain.DefaultDocument(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedStore, err)
	}
	return doc, nil
}

// Save validates body, stamps it, backs up the previous document and replaces
// it. Backup failures are logged and do not abort the save.
func (s *CollectionService) Save(ctx context.Context, body []byte) (*domain.SaveResult, error) {
	doc, err := decode(body)
	if errors.Is(err, domain.ErrNotObject) {
		return nil, fmt.Errorf("%w: %w", ErrMissingFields, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	photos, ok := doc.Get(domain.KeyPhotos)
	if !ok || isNull(photos) {
		return nil, ErrMissingFields
	}
	if nextID, ok := doc.Get(domain.KeyNextID); !ok || isNull(nextID) {
		return nil, ErrMissingFields
	}
	total, err := countPhotos(photos)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc.Stamp(now)

	s.rotateBackups(ctx, now)

	encoded, err := encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := s.store.Write(ctx, encoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.logger.Info("photos saved", "total_photos", total, "bytes", len(encoded))
	return &domain.SaveResult{
		Success:     true,
		Message:     saveMessage,
		Timestamp:   now.UnixMilli(),
		TotalPhotos: total,
	}, nil
}

func (s *CollectionService) rotateBackups(ctx context.Context, now time.Time) {
	b, err := s.store.Backup(ctx, now)
	if errors.Is(err, docstore.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("backup failed, continuing with save", "error", err)
		return
	}
	s.logger.Debug("backup created", "backup", b.Name, "bytes", b.Size)

	removed, err := s.store.Prune(ctx, s.retention)
	if err != nil {
		s.logger.Warn("backup pruning failed", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug("old backups pruned", "removed", removed)
	}
}

// countPhotos sums the category lengths. Each category must be a list; photos
// itself may be an object or, as PHP encodes an empty map, an array.
func countPhotos(raw json.RawMessage) (int, error) {
	var photos any
	if err := json.Unmarshal(raw, &photos); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMissingFields, err)
	}

	var categories []any
	switch p := photos.(type) {
	case map[string]any:
		for _, c := range p {
			categories = append(categories, c)
		}
	case []any:
		categories = p
	default:
		return 0, fmt.Errorf("%w: photos is not a collection of categories", ErrMissingFields)
	}

	total := 0
	for _, c := range categories {
		list, ok := c.([]any)
		if !ok {
			return 0, fmt.Errorf("%w: category is not a list", ErrMissingFields)
		}
		total += len(list)
	}
	return total, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decode parses a JSON object, keeping member order. Invalid UTF-8 is
// rejected rather than replaced.
func decode(data []byte) (*domain.Document, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("invalid UTF-8 in JSON text")
	}
	if !json.Valid(data) {
		return nil, errors.New("malformed JSON text")
	}
	return domain.ParseDocument(data)
}

// encode pretty-prints doc with four-space indent and literal Unicode.
func encode(doc *domain.Document) ([]byte, error) {
	compact, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "    "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
