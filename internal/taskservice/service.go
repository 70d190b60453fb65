// Package taskservice is the engine facade: listings addressed by display
// index, index-addressed mutations, comment sessions and search. Every
// mutation re-reads the document, re-locates its task and writes once.
package taskservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/cache"
	"github.com/starford/orgtasks/internal/checksum"
	"github.com/starford/orgtasks/internal/document"
	"github.com/starford/orgtasks/internal/editor"
	"github.com/starford/orgtasks/internal/index"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/parser"
	"github.com/starford/orgtasks/internal/query"
	"github.com/starford/orgtasks/internal/sse"
)

// Settings controls task creation and listings.
type Settings struct {
	HeadingLevel         int
	DefaultState         models.State
	DefaultScheduledDays *int
	IncludeTimestamp     bool
	ParseSpecialSyntax   bool
	Source               string
	ListLimit            int
}

// DefaultSettings mirrors the config defaults.
func DefaultSettings() Settings {
	zero := 0
	return Settings{
		HeadingLevel:         2,
		DefaultState:         models.StateTodo,
		DefaultScheduledDays: &zero,
		IncludeTimestamp:     true,
		ParseSpecialSyntax:   true,
		Source:               "API",
		ListLimit:            20,
	}
}

// Publisher receives change notifications.
type Publisher interface {
	PublishTaskEvent(kind string, change sse.TaskChange)
	PublishDocumentChanged()
}

// Service coordinates the document, caches, index and events.
type Service struct {
	doc       *document.Document
	editor    *editor.Editor
	snapshots *cache.Snapshots
	sessions  *cache.Sessions

	db       *index.DB
	events   Publisher
	settings Settings
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex keeps db in sync after every mutation and enables Search.
func WithIndex(db *index.DB) Option { return func(s *Service) { s.db = db } }

// WithEvents publishes change events to p.
func WithEvents(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithSettings overrides DefaultSettings.
func WithSettings(st Settings) Option { return func(s *Service) { s.settings = st } }

// WithClock injects the time source used for dates and timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a task service over doc. snapshots and sessions are
// shared state owned by the caller.
func NewService(doc *document.Document, snapshots *cache.Snapshots, sessions *cache.Sessions, opts ...Option) *Service {
	s := &Service{
		doc:       doc,
		snapshots: snapshots,
		sessions:  sessions,
		settings:  DefaultSettings(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.editor = editor.New(s.now, s.logger)
	return s
}

// DocumentName returns the task document's file name.
func (s *Service) DocumentName() string { return s.doc.Name() }

// ListResult is one listing with display indexes assigned.
type ListResult struct {
	View  query.View           `json:"view"`
	Tasks []models.IndexedTask `json:"tasks"`
	Total int                  `json:"total"`
}

// List parses the document, applies the view and caches the result under
// key so follow-up calls can address tasks by display index.
func (s *Service) List(_ context.Context, key string, req query.Request) (*ListResult, error) {
	tasks, err := s.parse()
	if err != nil {
		return nil, err
	}
	if req.View == "" {
		req.View = query.ViewToday
	}
	if req.View == query.ViewAll && req.Limit == 0 {
		req.Limit = s.settings.ListLimit
	}
	res, err := query.Select(tasks, req, s.now())
	if err != nil {
		return nil, err
	}
	return &ListResult{
		View:  req.View,
		Tasks: s.snapshots.Store(key, res.Tasks),
		Total: res.Total,
	}, nil
}

// Stats summarizes the whole document.
func (s *Service) Stats(_ context.Context) (query.Stats, error) {
	tasks, err := s.parse()
	if err != nil {
		return query.Stats{}, err
	}
	return query.Summarize(tasks, s.now()), nil
}

// TaskDetail is a cached snapshot plus its current comments.
type TaskDetail struct {
	models.IndexedTask
	Comments []models.Comment `json:"comments"`
}

// Read returns the task at display index n with comments scanned from the
// current document.
func (s *Service) Read(_ context.Context, key string, n int) (*TaskDetail, error) {
	snap, err := s.snapshots.Resolve(key, n)
	if err != nil {
		return nil, err
	}
	lines, err := s.doc.Lines()
	if err != nil {
		return nil, err
	}
	comments, err := s.editor.Comments(lines, snap)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{
		IndexedTask: models.IndexedTask{Index: n, Task: snap},
		Comments:    comments,
	}, nil
}

// Document returns the raw text and its checksum.
func (s *Service) Document(_ context.Context) (text, sum string, err error) {
	text, err = s.doc.Read()
	if err != nil {
		return "", "", err
	}
	return text, checksum.Sum([]byte(text)), nil
}

// ReplaceDocument overwrites the raw text when ifMatch equals the current
// checksum (or is empty) and returns the new checksum.
func (s *Service) ReplaceDocument(ctx context.Context, text, ifMatch string) (string, error) {
	if err := s.doc.Replace(ctx, text, ifMatch); err != nil {
		return "", err
	}
	s.reindex()
	if s.events != nil {
		s.events.PublishDocumentChanged()
	}
	return checksum.Sum([]byte(text)), nil
}

// Search queries the task index.
func (s *Service) Search(_ context.Context, q string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, apperr.ErrSearchUnavailable
	}
	if limit <= 0 {
		limit = s.settings.ListLimit
	}
	s.reindex()
	return s.db.Search(q, limit)
}

// Reindex brings the search index up to date with the document.
func (s *Service) Reindex(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := index.Sync(s.db, s.doc, s.logger)
	return err
}

func (s *Service) parse() ([]models.Task, error) {
	text, err := s.doc.Read()
	if err != nil {
		return nil, err
	}
	return parser.Parse(text), nil
}

// reindex syncs the index after a write. The document is already saved,
// so failures are logged rather than returned.
func (s *Service) reindex() {
	if s.db == nil {
		return
	}
	if _, err := index.Sync(s.db, s.doc, s.logger); err != nil {
		s.logger.Warn("reindex failed", slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind string, t models.Task) {
	if s.events == nil {
		return
	}
	s.events.PublishTaskEvent(kind, sse.TaskChange{Title: t.Title, State: string(t.State)})
}
