package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"restruct/internal/diag"
	"restruct/internal/ir"
	"restruct/internal/lower"
	"restruct/internal/observ"
	"restruct/internal/stmt"
	"restruct/internal/trace"
)

var ErrNoSuchFunc = errors.New("no such function")

// Options configures LowerModule.
type Options struct {
	Lower lower.Options
	// Jobs bounds concurrent lowerings; <= 0 uses GOMAXPROCS.
	Jobs int
	// Funcs restricts lowering to the named functions; empty lowers all.
	Funcs []string
	// Cache is optional. Salt must change whenever Lower changes.
	Cache *Cache
	Salt  string
	Sink  Sink
	Timer *observ.Timer
}

// FuncResult is the outcome of lowering one function.
type FuncResult struct {
	Name string
	// Result is nil when the function came from the cache or failed.
	Result  *lower.Result
	Text    string
	Decls   []lower.Decl
	Imports []string
	Diags   []diag.Diagnostic
	Dropped int
	Visited int
	Cached  bool
	Elapsed time.Duration
	Err     error
}

// ModuleResult holds per-function results in module order.
type ModuleResult struct {
	Module string
	Funcs  []FuncResult
}

// Failed counts functions whose lowering returned an error.
func (r *ModuleResult) Failed() int {
	n := 0
	for i := range r.Funcs {
		if r.Funcs[i].Err != nil {
			n++
		}
	}
	return n
}

// Diagnostics collects soft diagnostics of every function into one sorted
// bag without repeats.
func (r *ModuleResult) Diagnostics() *diag.Bag {
	bag := diag.NewBag(0)
	for i := range r.Funcs {
		for _, d := range r.Funcs[i].Diags {
			bag.Add(d)
		}
	}
	bag.Dedup()
	bag.Sort()
	return bag
}

func selectFuncs(m *ir.Module, names []string) ([]*ir.Func, error) {
	if len(names) == 0 {
		out := make([]*ir.Func, 0, len(m.Funcs))
		for _, f := range m.Funcs {
			if f != nil {
				out = append(out, f)
			}
		}
		return out, nil
	}
	byName := make(map[string]*ir.Func, len(m.Funcs))
	for _, f := range m.Funcs {
		if f != nil {
			byName[f.Name] = f
		}
	}
	out := make([]*ir.Func, 0, len(names))
	var errs []error
	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrNoSuchFunc, name))
			continue
		}
		out = append(out, f)
	}
	return out, errors.Join(errs...)
}

// LowerModule lowers the functions of m in parallel. A function that fails
// records its error in its FuncResult and the others continue; the returned
// error is reserved for bad selections and cancellation.
func LowerModule(ctx context.Context, m *ir.Module, opts Options) (*ModuleResult, error) {
	if m == nil {
		return nil, errors.New("driver: nil module")
	}
	funcs, err := selectFuncs(m, opts.Funcs)
	if err != nil {
		return nil, err
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, "lower-module:"+m.Name)
	defer span.End("")
	span.WithExtra("funcs", strconv.Itoa(len(funcs)))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	for _, f := range funcs {
		emit(opts.Sink, Event{Func: f.Name, Stage: StageLower, Status: StatusQueued})
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]FuncResult, len(funcs))
	if len(funcs) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(funcs)))
		for i, f := range funcs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = lowerOne(gctx, m, f, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ModuleResult{Module: m.Name, Funcs: results}, nil
}

func lowerOne(ctx context.Context, m *ir.Module, f *ir.Func, opts Options) FuncResult {
	start := time.Now()
	emit(opts.Sink, Event{Func: f.Name, Stage: StageLower, Status: StatusWorking})

	var fresh *lower.Result
	compute := func() (*Payload, error) {
		r, err := lower.Lower(ctx, m, f, opts.Lower)
		if err != nil {
			return nil, err
		}
		fresh = r
		return &Payload{
			Func:    r.Func,
			Text:    stmt.Format(r.Body),
			Decls:   r.Decls,
			Imports: r.Imports,
			Diags:   r.Diags,
			Dropped: r.Dropped,
			Visited: r.Visited,
		}, nil
	}

	var (
		p      *Payload
		cached bool
		err    error
	)
	var key Digest
	useCache := opts.Cache != nil
	if useCache {
		var kerr error
		if key, kerr = FuncKey(m, f, opts.Salt); kerr != nil {
			useCache = false
		}
	}
	if useCache {
		p, cached, err = opts.Cache.Do(key, compute)
	} else {
		p, err = compute()
	}

	res := FuncResult{Name: f.Name, Result: fresh, Elapsed: time.Since(start)}
	status, note := StatusDone, ""
	switch {
	case err != nil:
		res.Err = err
		status, note = StatusError, "error"
	default:
		res.Text = p.Text
		res.Decls = p.Decls
		res.Imports = p.Imports
		res.Diags = p.Diags
		res.Dropped = p.Dropped
		res.Visited = p.Visited
		res.Cached = cached
		if cached {
			status, note = StatusCached, "cached"
		}
	}
	if opts.Timer != nil {
		opts.Timer.Record("lower:"+f.Name, res.Elapsed, note)
	}
	emit(opts.Sink, Event{Func: f.Name, Stage: StageLower, Status: status, Err: res.Err, Elapsed: res.Elapsed})
	return res
}

// LowerFile decodes an IR document and lowers its module.
func LowerFile(ctx context.Context, path string, opts Options) (*ModuleResult, error) {
	emit(opts.Sink, Event{Stage: StageDecode, Status: StatusWorking})
	var phase int
	if opts.Timer != nil {
		phase = opts.Timer.Begin("decode")
	}
	m, err := ir.DecodeFile(path)
	if opts.Timer != nil {
		opts.Timer.End(phase, path)
	}
	if err != nil {
		emit(opts.Sink, Event{Stage: StageDecode, Status: StatusError, Err: err})
		return nil, err
	}
	emit(opts.Sink, Event{Stage: StageDecode, Status: StatusDone})
	return LowerModule(ctx, m, opts)
}

// FuncNames lists the functions LowerModule would lower for names.
func FuncNames(m *ir.Module, names []string) ([]string, error) {
	funcs, err := selectFuncs(m, names)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(funcs))
	for i, f := range funcs {
		out[i] = f.Name
	}
	return out, nil
}
