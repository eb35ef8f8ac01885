package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultReadConcurrency bounds the number of files read at once.
const DefaultReadConcurrency = 4

// FileReadError reports one unreadable input file. It never aborts the
// reading of sibling files.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// ReadSources reads all files concurrently and returns the texts that could
// be read, in the order of paths, plus one FileReadError per failed file.
// The returned error is only non-nil when ctx is cancelled.
func ReadSources(ctx context.Context, paths []string, concurrency int) ([]FileText, []*FileReadError, error) {
	if concurrency <= 0 {
		concurrency = DefaultReadConcurrency
	}

	texts := make([]*FileText, len(paths))
	failures := make([]*FileReadError, len(paths))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path) // #nosec G304 -- user-provided paths are expected
			if err != nil {
				failures[i] = &FileReadError{Path: path, Err: err}
				log.Warn().Err(err).Str("file", path).Msg("Failed to read log file")
				return nil
			}

			texts[i] = &FileText{Path: path, Text: string(data)}
			log.Debug().Str("file", path).Int("bytes", len(data)).Msg("Read log file")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		ok   []FileText
		errs []*FileReadError
	)
	for i := range paths {
		if texts[i] != nil {
			ok = append(ok, *texts[i])
		}
		if failures[i] != nil {
			errs = append(errs, failures[i])
		}
	}
	return ok, errs, nil
}

// JoinTexts concatenates file texts with a newline in the order given.
// Files are not re-ordered; entries are sorted by date after parsing.
func JoinTexts(files []FileText) string {
	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = f.Text
	}
	return strings.Join(parts, "\n")
}
