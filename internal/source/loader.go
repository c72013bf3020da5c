// Package source discovers corpus files on disk and extracts their
// statements concurrently.
package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kgcheck/internal/cypher"
	"kgcheck/internal/model"
	kgerrors "kgcheck/pkg/errors"
	"kgcheck/pkg/logger"
)

// DefaultWorkers bounds concurrent reads when no worker count is given.
const DefaultWorkers = 8

// Loader reads and parses corpus files.
type Loader struct {
	workers   int
	extension string
	logger    *zap.Logger
}

// NewLoader creates a loader that picks files ending in extension and reads
// at most workers files at once.
func NewLoader(workers int, extension string) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Loader{
		workers:   workers,
		extension: extension,
		logger:    logger.Get(),
	}
}

// Extension returns the file extension the loader matches.
func (l *Loader) Extension() string { return l.extension }

// Discover lists the matching files directly inside dir, sorted. A missing
// directory yields no files.
func (l *Loader) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("Directory not found, skipping", zap.String("dir", dir))
			return nil, nil
		}
		return nil, kgerrors.NewFileReadFailed(dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), l.extension) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Resolve expands a file-or-directory argument into the files to check.
// Unlike Discover, a missing path is an error.
func (l *Loader) Resolve(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, kgerrors.NewPathNotFound(path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return l.Discover(path)
}

// FilterByName keeps the files whose base name, without extension, contains
// substr. An empty substr keeps everything.
func (l *Loader) FilterByName(files []string, substr string) []string {
	if substr == "" {
		return files
	}
	var out []string
	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), l.extension)
		if strings.Contains(base, substr) {
			out = append(out, f)
		}
	}
	return out
}

// Load reads and parses the given files concurrently. Results keep the
// order of paths. A file that cannot be read is returned with ReadErr set;
// only cancellation fails the call.
func (l *Loader) Load(ctx context.Context, paths []string) ([]model.SourceFile, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	results := make([]model.SourceFile, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = l.readFile(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, kgerrors.NewContextCancelled("loading corpus files", err)
	}

	failed := 0
	for _, r := range results {
		if r.ReadErr != nil {
			failed++
		}
	}
	l.logger.Debug("Files loaded",
		zap.Int("files", len(paths)),
		zap.Int("failed", failed),
		zap.Int("workers", l.workers),
	)
	return results, nil
}

// LoadDirs discovers and loads every matching file under the given
// directories, in directory order.
func (l *Loader) LoadDirs(ctx context.Context, dirs ...string) ([]model.SourceFile, error) {
	var paths []string
	for _, dir := range dirs {
		files, err := l.Discover(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return l.Load(ctx, paths)
}

func (l *Loader) readFile(path string) model.SourceFile {
	content, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("Failed to read file", zap.String("file", path), zap.Error(err))
		return model.SourceFile{Path: path, ReadErr: kgerrors.NewFileReadFailed(path, err)}
	}
	sf := FromContent(path, string(content))
	if sf.Template {
		l.logger.Debug("Skipping template file",
			zap.String("file", path),
			zap.Strings("placeholders", sf.Placeholders),
		)
	}
	return sf
}

// FromContent classifies and parses text that did not come from disk.
// Templates are not parsed.
func FromContent(path, content string) model.SourceFile {
	if cypher.IsTemplate(content) {
		return model.SourceFile{Path: path, Template: true, Placeholders: cypher.Placeholders(content)}
	}
	return model.SourceFile{Path: path, Parsed: cypher.Parse(content)}
}

// BuildCorpus folds loaded files into a corpus.
func BuildCorpus(files []model.SourceFile) *model.Corpus {
	b := model.NewBuilder()
	for _, f := range files {
		b.Add(f)
	}
	return b.Build()
}
