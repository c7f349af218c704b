package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/resumetailor/internal/config"
	"github.com/dgallion1/resumetailor/internal/parser"
	"github.com/dgallion1/resumetailor/internal/rewrite"
	"github.com/dgallion1/resumetailor/internal/segment"
	"github.com/dgallion1/resumetailor/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedFormat is returned for file types no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidDocument is returned when a file cannot be parsed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrDocumentNotFound is returned for unknown or expired document IDs.
	ErrDocumentNotFound = errors.New("document not found")
)

// Upload is one file handed to the service.
type Upload struct {
	Filename string
	Data     []byte
}

// Result is the classification of one document. DocID is set only for
// formats that can be rebuilt.
type Result struct {
	Filename   string            `json:"filename"`
	DocID      string            `json:"doc_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Format     string            `json:"format,omitempty"`
	Rewritable bool              `json:"rewritable"`
	Sections   []segment.Section `json:"sections"`
	Error      string            `json:"error,omitempty"`
}

// Service classifies uploaded resumes and rebuilds them with replaced text.
type Service struct {
	classifier *segment.Classifier
	docs       *store.Store
	log        *slog.Logger
	cfg        config.Config
	parserOpts parser.Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(cfg config.Config, classifier *segment.Classifier, log *slog.Logger) *Service {
	return &Service{
		classifier: classifier,
		docs:       store.New(cfg.DocTTL),
		log:        log,
		cfg:        cfg,
		parserOpts: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}
}

// Start launches the document cache janitor.
func (s *Service) Start(ctx context.Context) {
	janitorCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-janitorCtx.Done():
				return
			case <-ticker.C:
				if n := s.docs.Cleanup(); n > 0 {
					s.log.Info("evicted expired documents", "count", n)
				}
			}
		}
	}()
}

// Stop shuts down the janitor and waits for it to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Extract parses and classifies one file. Rewritable files are cached so
// they can be rebuilt by ID.
func (s *Service) Extract(ctx context.Context, filename string, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := s.log.With("filename", filename, "bytes", len(data))

	p, err := parser.ForFile(filename, s.parserOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		log.Warn("parse failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	res := &Result{
		Filename:   filename,
		Title:      doc.Title,
		Format:     doc.Format,
		Rewritable: parser.IsRewritable(filename),
		Sections:   s.classifier.Sections(doc.Paragraphs),
	}
	if res.Rewritable {
		entry, dup := s.docs.Put(filename, data)
		res.DocID = entry.ID
		log = log.With("doc_id", entry.ID, "duplicate", dup)
	}
	log.Info("classified document", "paragraphs", len(res.Sections))
	return res, nil
}

// ExtractBatch classifies several files in parallel. A file that fails is
// reported in its Result; the returned error is set only when ctx ends.
func (s *Service) ExtractBatch(ctx context.Context, uploads []Upload) ([]Result, error) {
	results := make([]Result, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)

	for i, up := range uploads {
		g.Go(func() error {
			res, err := s.Extract(gctx, up.Filename, up.Data)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = Result{Filename: up.Filename, Sections: []segment.Section{}, Error: err.Error()}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Rebuild replaces paragraph text in a .docx and returns the new package.
// Out-of-range indices are skipped and listed in the report.
func (s *Service) Rebuild(ctx context.Context, data []byte, edits []rewrite.Edit) ([]byte, rewrite.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, rewrite.Report{}, err
	}

	f, err := parser.OpenDOCX(data)
	if err != nil {
		return nil, rewrite.Report{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	rewritten, report := rewrite.Apply(f.Paragraphs(), rewrite.EditMap(edits))
	for _, o := range report.Applied {
		if o.ColorErr != nil {
			s.log.Warn("color not reapplied", "index", o.Index, "error", o.ColorErr)
		}
		if err := f.Commit(o.Index, rewritten[o.Index]); err != nil {
			return nil, report, fmt.Errorf("commit paragraph %d: %w", o.Index, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Save(&buf); err != nil {
		return nil, report, err
	}
	s.log.Info("rebuilt document", "applied", len(report.Applied), "skipped", len(report.Skipped))
	return buf.Bytes(), report, nil
}

// RebuildStored is Rebuild for a document cached by Extract.
func (s *Service) RebuildStored(ctx context.Context, docID string, edits []rewrite.Edit) ([]byte, rewrite.Report, error) {
	entry, ok := s.docs.Get(docID)
	if !ok {
		return nil, rewrite.Report{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	return s.Rebuild(ctx, entry.Data(), edits)
}

// Document returns the cached upload for id.
func (s *Service) Document(id string) (store.Entry, bool) {
	return s.docs.Get(id)
}
