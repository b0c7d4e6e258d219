// Package driver orchestrates parsing .affine inputs into interned maps: it
// fans file work out over a bounded worker pool, reports progress events and
// consults a content-addressed disk cache. All interning funnels through one
// shared affine.Context, whose mutex makes concurrent construction safe.
//
// The .affine format is one map per line; blank lines and // comments are
// ignored.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"loom/internal/affine"
	"loom/internal/parse"
)

// fileExt is the input file extension ParseDir collects.
const fileExt = ".affine"

// Options configures a parse run.
type Options struct {
	// Jobs bounds worker parallelism; values <= 0 mean GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, is consulted before parsing and updated after.
	Cache *Cache
	// Sink, when non-nil, receives progress events.
	Sink ProgressSink
}

// LineError is one line of an input file that failed to parse.
type LineError struct {
	Line int // 1-based
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e LineError) Unwrap() error { return e.Err }

// FileResult is the outcome for one input file.
type FileResult struct {
	Path      string
	Maps      []affine.Map // parsed maps in line order
	Errs      []LineError  // failed lines in line order
	Err       error        // file-level failure (unreadable input)
	FromCache bool
}

// Result aggregates one run.
type Result struct {
	Files     []FileResult // same order as the input file list
	Parsed    int          // maps interned across all files
	Distinct  int          // distinct canonical maps across all files
	CacheHits int          // files restored from the disk cache
	BadLines  int          // lines that failed to parse
	BadFiles  int          // files that could not be read
}

// ListFiles returns the sorted list of .affine files under dir.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, fileExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ParseDir parses every .affine file under dir in sorted path order.
func ParseDir(ctx context.Context, actx *affine.Context, dir string, opts Options) (*Result, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}
	return ParseFiles(ctx, actx, files, opts)
}

// ParseFiles parses the given files on a bounded worker pool, interning all
// maps into actx. Per-file faults are recorded in the result, not returned;
// the error reports run-level failure such as cancellation.
func ParseFiles(ctx context.Context, actx *affine.Context, files []string, opts Options) (*Result, error) {
	if actx == nil {
		panic("driver: ParseFiles with nil context")
	}

	start := time.Now()
	emit(opts.Sink, Event{Stage: StageParse, Status: StatusWorking})

	if len(files) == 0 {
		emit(opts.Sink, Event{Stage: StageParse, Status: StatusDone, Elapsed: time.Since(start)})
		return &Result{}, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Workers write disjoint indexes, so results needs no mutex.
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		emit(opts.Sink, Event{File: path, Stage: StageParse, Status: StatusQueued})
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			emit(opts.Sink, Event{File: path, Stage: StageParse, Status: StatusWorking})
			fileStart := time.Now()
			results[i] = parseOne(actx, path, opts)

			evt := Event{
				File:    path,
				Stage:   StageParse,
				Status:  StatusDone,
				Elapsed: time.Since(fileStart),
			}
			if err := firstFault(&results[i]); err != nil {
				evt.Status = StatusError
				evt.Err = err
			}
			emit(opts.Sink, evt)
			return nil
		})
	}

	err := g.Wait()
	res := aggregate(results)

	evt := Event{Stage: StageParse, Status: StatusDone, Elapsed: time.Since(start)}
	if err != nil {
		evt.Status = StatusError
		evt.Err = err
	}
	emit(opts.Sink, evt)

	if err != nil {
		return res, err
	}
	return res, nil
}

// parseOne handles a single file: cache lookup, parse, cache fill.
func parseOne(actx *affine.Context, path string, opts Options) FileResult {
	res := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return res
	}

	key := digestOf(data)
	if opts.Cache != nil {
		var payload cachePayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
			if maps, err := replayMaps(actx, &payload); err == nil {
				res.Maps = maps
				res.FromCache = true
				return res
			}
		}
		// Missing, unreadable or corrupt entries all fall through to a
		// reparse; the cache is an accelerator, never an authority.
	}

	res.Maps, res.Errs = parseLines(actx, string(data))
	if opts.Cache != nil && len(res.Errs) == 0 {
		// Only fully clean files are cached, so a hit never hides errors.
		_ = opts.Cache.Put(key, encodeMaps(res.Maps))
	}
	return res
}

// parseLines parses src line by line. Blank lines and // comments are
// skipped; offsets inside returned errors are relative to the raw line.
func parseLines(actx *affine.Context, src string) ([]affine.Map, []LineError) {
	var maps []affine.Map
	var errs []LineError
	for num, line := range strings.Split(src, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		m, err := parse.Map(actx, line)
		if err != nil {
			errs = append(errs, LineError{Line: num + 1, Err: err})
			continue
		}
		maps = append(maps, m)
	}
	return maps, errs
}

func firstFault(res *FileResult) error {
	if res.Err != nil {
		return res.Err
	}
	if len(res.Errs) > 0 {
		return res.Errs[0]
	}
	return nil
}

func aggregate(files []FileResult) *Result {
	res := &Result{Files: files}
	distinct := make(map[affine.Map]struct{})
	for i := range files {
		f := &files[i]
		res.Parsed += len(f.Maps)
		res.BadLines += len(f.Errs)
		if f.Err != nil {
			res.BadFiles++
		}
		if f.FromCache {
			res.CacheHits++
		}
		for _, m := range f.Maps {
			distinct[m] = struct{}{}
		}
	}
	res.Distinct = len(distinct)
	return res
}
