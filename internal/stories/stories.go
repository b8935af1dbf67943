// Package stories runs the create and update flows that keep a story's
// stored classification in step with its text.
package stories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/memoir/internal/domain"
	"github.com/pbaille/memoir/internal/metrics"
	"github.com/pbaille/memoir/internal/theme"
	"github.com/pbaille/memoir/internal/timeline"
)

var (
	// ErrEmptyContent is returned when a story has no text
	ErrEmptyContent = errors.New("content is required")
	// ErrInvalidChapter is returned when a chapter filter names no chapter
	ErrInvalidChapter = errors.New("invalid chapter")
)

// Repository is the persistence the service needs
type Repository interface {
	AddStory(story domain.Story) (*domain.Story, error)
	GetStory(id string) (*domain.Story, error)
	ResolveID(prefix string) (string, error)
	ListStories(limit, offset int, chapter string) ([]domain.Story, error)
	AllStories() ([]domain.Story, error)
	UpdateStory(story domain.Story) (*domain.Story, error)
	DeleteStory(id string) error
	SearchStories(query string) ([]domain.Story, error)
	ListTags() ([]domain.TagCount, error)
}

// Service wires the classifier to the store
type Service struct {
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// New creates a Service. logger and rec may be nil.
func New(repo Repository, logger *zap.Logger, rec *metrics.Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, metrics: rec}
}

// UpdateInput describes a story edit. Nil fields are left unchanged.
type UpdateInput struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	Reclassify bool    `json:"reclassify,omitempty"`
}

// classification is what gets written back onto a story
type classification struct {
	result theme.Result
	score  float64
	tags   []string
}

func (c classification) apply(st *domain.Story) {
	st.Chapter = string(c.result.Chapter)
	st.Confidence = c.result.Confidence
	st.Sentiment = string(c.result.Sentiment)
	st.SentimentScore = c.score
	st.Tags = c.tags
}

// classifyForCreate tags with the keywords discovered during scoring
func classifyForCreate(text string) classification {
	res := theme.Classify(text)
	return classification{result: res, score: theme.SentimentScore(text), tags: res.Tags}
}

// classifyForUpdate tags with the most frequent keywords
func classifyForUpdate(text string) classification {
	return classification{
		result: theme.Classify(text),
		score:  theme.SentimentScore(text),
		tags:   theme.ExtractTags(text, theme.DefaultMaxTags),
	}
}

// Create classifies and stores a new story
func (s *Service) Create(title, content string) (*domain.Story, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	st := domain.Story{Title: strings.TrimSpace(title), Content: content}
	c := classifyForCreate(content)
	c.apply(&st)

	added, err := s.repo.AddStory(st)
	if err != nil {
		return nil, fmt.Errorf("add story: %w", err)
	}
	s.metrics.Observe(c.result)

	s.logger.Info("story created",
		zap.String("id", added.ID),
		zap.String("chapter", added.Chapter),
		zap.Float64("confidence", added.Confidence),
		zap.Strings("tags", added.Tags))
	return added, nil
}

// Get looks a story up by full ID or unique prefix
func (s *Service) Get(idOrPrefix string) (*domain.Story, error) {
	id, err := s.repo.ResolveID(idOrPrefix)
	if err != nil {
		return nil, err
	}
	return s.repo.GetStory(id)
}

// List returns recent stories, optionally only those in one chapter
func (s *Service) List(limit, offset int, chapter string) ([]domain.Story, error) {
	if chapter != "" {
		if _, err := theme.ParseChapter(chapter); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidChapter, err)
		}
	}
	return s.repo.ListStories(limit, offset, chapter)
}

// Search returns stories whose title or content contains query
func (s *Service) Search(query string) ([]domain.Story, error) {
	return s.repo.SearchStories(query)
}

// Tags returns every stored tag with its story count
func (s *Service) Tags() ([]domain.TagCount, error) {
	return s.repo.ListTags()
}

// Update edits a story. The stored classification is only recomputed when
// in.Reclassify is set.
func (s *Service) Update(idOrPrefix string, in UpdateInput) (*domain.Story, error) {
	st, err := s.Get(idOrPrefix)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		st.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, ErrEmptyContent
		}
		st.Content = *in.Content
	}

	var c classification
	if in.Reclassify {
		c = classifyForUpdate(st.Content)
		c.apply(st)
	}

	updated, err := s.repo.UpdateStory(*st)
	if err != nil {
		return nil, fmt.Errorf("update story: %w", err)
	}
	if in.Reclassify {
		s.metrics.Observe(c.result)
	}

	s.logger.Info("story updated",
		zap.String("id", updated.ID),
		zap.Bool("reclassified", in.Reclassify),
		zap.String("chapter", updated.Chapter))
	return updated, nil
}

// Delete removes a story by full ID or unique prefix
func (s *Service) Delete(idOrPrefix string) error {
	id, err := s.repo.ResolveID(idOrPrefix)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteStory(id); err != nil {
		return err
	}
	s.logger.Info("story deleted", zap.String("id", id))
	return nil
}

// ReclassifyAll recomputes every story's classification using up to workers
// goroutines, then writes the results back one at a time. It returns the
// number of stories whose chapter changed.
func (s *Service) ReclassifyAll(ctx context.Context, workers int) (int, error) {
	all, err := s.repo.AllStories()
	if err != nil {
		return 0, fmt.Errorf("load stories: %w", err)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]classification, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = classifyForUpdate(all[i].Content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("reclassify: %w", err)
	}

	changed := 0
	for i := range all {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		st := all[i]
		before := st.Chapter
		results[i].apply(&st)

		if _, err := s.repo.UpdateStory(st); err != nil {
			return changed, fmt.Errorf("update story %s: %w", st.ID, err)
		}
		s.metrics.Observe(results[i].result)
		if st.Chapter != before {
			changed++
			s.logger.Debug("chapter changed",
				zap.String("id", st.ID),
				zap.String("from", before),
				zap.String("to", st.Chapter))
		}
	}

	s.logger.Info("reclassified stories", zap.Int("total", len(all)), zap.Int("changed", changed))
	return changed, nil
}

// Timeline groups every story by the decade its text refers to
func (s *Service) Timeline() ([]timeline.Group, error) {
	all, err := s.repo.AllStories()
	if err != nil {
		return nil, fmt.Errorf("load stories: %w", err)
	}
	return timeline.Build(all, nil), nil
}
