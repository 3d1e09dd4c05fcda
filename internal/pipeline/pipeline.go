// Package pipeline orchestrates a full bundle run: parse, resolve,
// compliance scan, then decode and convert each object on a worker
// pool. It is the surface the CLI drives.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/openrip/openrip/internal/asset"
	"github.com/openrip/openrip/internal/bundle"
	"github.com/openrip/openrip/internal/compliance"
	"github.com/openrip/openrip/internal/export"
	"github.com/openrip/openrip/internal/object"
)

// Options configure a Pipeline. Zero values pick the defaults: the
// built-in compliance profile, GOMAXPROCS workers, the default slog
// logger, and the standard decompression cap.
type Options struct {
	Profile             compliance.Profile
	Workers             int
	Logger              *slog.Logger
	MaxDecompressedSize int64
}

type Pipeline struct {
	registry *asset.Registry
	scanner  *compliance.Scanner
	log      *slog.Logger
	workers  int
	maxSize  int64
}

func New(opts Options) *Pipeline {
	if opts.Profile.Name == "" {
		opts.Profile = compliance.DefaultProfile()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxDecompressedSize <= 0 {
		opts.MaxDecompressedSize = bundle.DefaultMaxDecompressedSize
	}
	return &Pipeline{
		registry: asset.NewRegistry(),
		scanner:  compliance.NewScanner(opts.Profile),
		log:      opts.Logger,
		workers:  opts.Workers,
		maxSize:  opts.MaxDecompressedSize,
	}
}

// Open parses a bundle out of raw bytes.
func (p *Pipeline) Open(ctx context.Context, data []byte) (*bundle.Bundle, error) {
	b, err := bundle.Open(ctx, data, &bundle.Options{
		MaxDecompressedSize: p.maxSize,
		Workers:             p.workers,
	})
	if err != nil {
		return nil, err
	}
	p.log.Debug("bundle opened",
		"family", b.Header.Family(),
		"version", b.Header.Version,
		"blocks", len(b.Blocks),
		"entries", len(b.Entries))
	return b, nil
}

// ObjectSummary is one directory entry as seen by listing. Unresolved
// entries carry the resolution error text.
type ObjectSummary struct {
	Name   string
	Kind   object.Kind
	Offset uint64
	Size   uint64
	Error  string
}

// ListObjects reports every directory entry, resolved or not, in
// directory order. Duplicate names stay independent.
func (p *Pipeline) ListObjects(b *bundle.Bundle) []ObjectSummary {
	records, failures := object.Resolve(b)

	out := make([]ObjectSummary, 0, len(records)+len(failures))
	for _, rec := range records {
		out = append(out, ObjectSummary{
			Name:   rec.Entry.Name,
			Kind:   rec.Kind,
			Offset: rec.Entry.Offset,
			Size:   rec.Entry.Size,
		})
	}
	for _, f := range failures {
		out = append(out, ObjectSummary{
			Name:   f.Entry.Name,
			Kind:   object.KindFromFlags(f.Entry.Flags),
			Offset: f.Entry.Offset,
			Size:   f.Entry.Size,
			Error:  f.Err.Error(),
		})
	}
	return out
}

// ScanCompliance resolves the bundle and runs the rule set over it.
func (p *Pipeline) ScanCompliance(b *bundle.Bundle) compliance.Report {
	records, failures := object.Resolve(b)
	return p.scanner.Scan(compliance.Input{
		Notes:    b.Notes,
		Records:  records,
		Failures: failures,
	})
}

// ListPlugins describes the registered decoders.
func (p *Pipeline) ListPlugins() []asset.Descriptor {
	return p.registry.Descriptors()
}

// ConversionResult is the per-object outcome of an extract run. A
// failed object carries Err and no artifacts; the rest of the bundle is
// unaffected. An unknown-kind object carries both its raw artifact and
// the error that downgraded it.
type ConversionResult struct {
	Name      string
	Kind      object.Kind
	Artifacts []export.Artifact
	Err       error
}

// ExtractOptions control one extract run.
type ExtractOptions struct {
	Export export.Options

	// Override lets extraction proceed past blocking compliance
	// findings. Findings are reported either way.
	Override bool

	// Progress, when set, is called once per completed object.
	Progress func(done, total int)
}

// ExtractReport bundles the compliance report with the per-object
// results.
type ExtractReport struct {
	Compliance compliance.Report
	Results    []ConversionResult
}

// Extract runs the full decode-and-convert pass. A blocking compliance
// finding aborts before any object is converted and returns
// ErrComplianceBlocked alongside the report, unless Override is set.
// Cancellation stops the pool between objects; objects not completed
// yield no artifacts and the context error is returned.
func (p *Pipeline) Extract(ctx context.Context, b *bundle.Bundle, opts ExtractOptions) (*ExtractReport, error) {
	records, failures := object.Resolve(b)

	rep := &ExtractReport{
		Compliance: p.scanner.Scan(compliance.Input{
			Notes:    b.Notes,
			Records:  records,
			Failures: failures,
		}),
	}

	if rep.Compliance.Blocked() && !opts.Override {
		return rep, fmt.Errorf("%w: %d blocking finding(s), rerun with override to extract anyway",
			bundle.ErrComplianceBlocked, rep.Compliance.Count(compliance.SeverityBlocking))
	}

	rep.Results = make([]ConversionResult, len(records))
	total := len(records) + len(failures)

	var (
		mu   sync.Mutex
		done int
	)
	progress := func() {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		opts.Progress(n, total)
	}

	tasks := make(chan int)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(records) {
		workers = len(records)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				rep.Results[idx] = p.convertOne(&records[idx], opts.Export)
				progress()
			}
		}()
	}

feed:
	for idx := range records {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- idx:
		}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return rep, err
	}

	for _, f := range failures {
		rep.Results = append(rep.Results, ConversionResult{
			Name: f.Entry.Name,
			Kind: object.KindFromFlags(f.Entry.Flags),
			Err:  f.Err,
		})
		progress()
	}

	return rep, nil
}

// convertOne decodes a record and encodes its artifacts. Errors stay
// local to the result slot.
func (p *Pipeline) convertOne(rec *object.Record, opts export.Options) ConversionResult {
	res := ConversionResult{Name: rec.Entry.Name, Kind: rec.Kind}

	decoded, err := p.registry.Decode(rec)
	if err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", rec.Entry.Name, err)
		if decoded == nil {
			return res
		}
		// A passthrough decode still yields a raw artifact; the error
		// stays on the result so the downgrade is recorded.
	}

	arts, err := export.Convert(decoded, opts)
	if err != nil {
		res.Err = fmt.Errorf("converting %s: %w", rec.Entry.Name, err)
		return res
	}

	res.Artifacts = arts
	p.log.Debug("object converted", "name", rec.Entry.Name, "kind", rec.Kind, "artifacts", len(arts))
	return res
}
