package ingest

import (
	"bufio"
	"bytes"
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	validatorv10 "github.com/go-playground/validator/v10"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCapacity = 1_000_000
	defaultFPR      = 0.001
	bufferedLines   = 1024
	maxLineSize     = 1 << 20
)

// Stats summarises a Load run.
type Stats struct {
	Read       int
	Imported   int
	Duplicates int
	Invalid    int
}

// Sink receives every valid record whose ID was not seen earlier in the run.
type Sink func(ctx context.Context, r Record) error

// Loader streams catalog files into a Sink.
type Loader struct {
	validate *validatorv10.Validate
	capacity uint
	fpr      float64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExpectedRecords sizes the duplicate filter.
func WithExpectedRecords(n uint) LoaderOption {
	return func(l *Loader) { l.capacity = n }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		validate: NewValidator(),
		capacity: defaultCapacity,
		fpr:      defaultFPR,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type line struct {
	no   int
	data []byte
}

// Load decompresses and reads all files concurrently, then hands records to
// sink in file order, so the first occurrence of a product ID wins.
// Malformed and invalid records are counted and skipped. Load stops on the
// first read or sink error.
func (l *Loader) Load(ctx context.Context, files []string, sink Sink) (Stats, error) {
	var stats Stats

	g, ctx := errgroup.WithContext(ctx)
	streams := make([]chan line, len(files))
	for i, path := range files {
		ch := make(chan line, bufferedLines)
		streams[i] = ch
		g.Go(func() error {
			defer close(ch)
			return readLines(ctx, path, ch)
		})
	}

	g.Go(func() error {
		lg := zctx.From(ctx)
		seen := NewDeduper(l.capacity, l.fpr)
		for i, ch := range streams {
			for ln := range ch {
				if err := ctx.Err(); err != nil {
					return err
				}
				stats.Read++
				r, err := DecodeRecord(ln.data)
				if err == nil {
					err = l.validate.Struct(r)
				}
				if err != nil {
					stats.Invalid++
					lg.Debug("Skipping invalid record",
						zap.String("file", files[i]),
						zap.Int("line", ln.no),
						zap.Error(err),
					)
					continue
				}
				if seen.Seen(r.ID) {
					stats.Duplicates++
					continue
				}
				if err := sink(ctx, r); err != nil {
					return errors.Wrapf(err, "import %s", r.ID)
				}
				stats.Imported++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// readLines sends the non-empty lines of a gzip-compressed file to out.
func readLines(ctx context.Context, path string, out chan<- line) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	no := 0
	for scanner.Scan() {
		no++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		select {
		case out <- line{no: no, data: bytes.Clone(data)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
