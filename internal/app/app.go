// # internal/app/app.go

// Package app wires the generation pipeline: scan script directories, parse
// declarations, resolve inheritance against the type catalog, emit bridges
// and proxies and write the results through the incremental cache.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"scriptbridge/internal/cache"
	"scriptbridge/internal/catalog"
	"scriptbridge/internal/config"
	"scriptbridge/internal/errors"
	"scriptbridge/internal/gen"
	"scriptbridge/internal/observability"
	"scriptbridge/internal/parser"
	"scriptbridge/internal/resolver"
)

const scriptExt = ".gd"

// Summary is the per-run result handed to the CLI and the watch-mode UI.
type Summary struct {
	RunID       string
	Classes     int
	Bridges     int
	Proxies     int
	Written     int
	Skipped     int
	Diagnostics []resolver.Diagnostic
	Duration    time.Duration
	FinishedAt  time.Time
}

type App struct {
	Config  *config.Config
	Catalog *catalog.Catalog

	cache *cache.Store

	// Parsed classes keyed by file path so watch mode can re-parse
	// changed files without rescanning everything.
	classes   map[string]*parser.ScriptClass
	classesMu sync.RWMutex

	updateMu sync.RWMutex
	onUpdate func(Summary)

	lastMu  sync.RWMutex
	lastRun *Summary
}

func New(cfg *config.Config) (*App, error) {
	cat, err := catalog.Build(cfg.APIPath, cfg.ProjectDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Catalog: cat,
		classes: make(map[string]*parser.ScriptClass),
	}

	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.cache = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// SetUpdateHandler registers the callback invoked after every run. Used by
// the watch-mode UI.
func (a *App) SetUpdateHandler(handler func(Summary)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// LastRun reports the most recent summary, if any run has finished.
func (a *App) LastRun() (Summary, bool) {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	if a.lastRun == nil {
		return Summary{}, false
	}
	return *a.lastRun, true
}

// Health feeds the observability endpoint.
func (a *App) Health(ctx context.Context) observability.Health {
	if s, ok := a.LastRun(); ok {
		return observability.Health{Status: "up", LastRun: s.FinishedAt.UTC().Format(time.RFC3339)}
	}
	return observability.Health{Status: "up"}
}

// Run performs the initial scan followed by one generation pass. It is the
// entry point shared by once and watch modes; watch mode keeps regenerating
// through HandleChanges afterwards.
func (a *App) Run(ctx context.Context) (Summary, error) {
	if err := a.InitialScan(ctx); err != nil {
		return Summary{}, err
	}
	return a.Generate(ctx)
}

// InitialScan parses every script under the configured paths. Per-file
// failures are logged and skipped; the scan itself only fails on unreadable
// roots or invalid exclude patterns.
func (a *App) InitialScan(ctx context.Context) error {
	files, err := a.ScanScripts()
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := a.ProcessFile(path); err != nil {
			slog.Warn("failed to parse script", "path", path, "error", err)
		}
	}
	return nil
}

// ScanScripts walks the configured script paths and returns every script
// file not matched by an exclude pattern, sorted and deduplicated.
func (a *App) ScanScripts() ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Dirs))
	for _, p := range a.Config.Exclude.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Files))
	for _, p := range a.Config.Exclude.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	seen := make(map[string]bool)
	var files []string
	for _, root := range uniqueScanRoots(a.Config.ScriptPaths) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !strings.HasSuffix(base, scriptExt) {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	sort.Strings(roots)
	return roots
}

// ProcessFile parses one script and records its class declaration. Scripts
// without a class_name are dropped from the working set without failing.
func (a *App) ProcessFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	start := time.Now()
	cls, err := parser.Parse(path, content)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.classesMu.Lock()
		delete(a.classes, path)
		a.classesMu.Unlock()
		if errors.IsCode(err, errors.CodeNoClassName) {
			slog.Debug("script has no class_name, skipping", "path", path)
			return nil
		}
		return err
	}

	a.classesMu.Lock()
	a.classes[path] = cls
	a.classesMu.Unlock()
	return nil
}

// RemoveFile drops a deleted script from the working set.
func (a *App) RemoveFile(path string) {
	a.classesMu.Lock()
	delete(a.classes, path)
	a.classesMu.Unlock()
}

// HandleChanges re-parses the changed scripts and regenerates. Wired as the
// watcher callback.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.RemoveFile(path)
			continue
		}
		if err := a.ProcessFile(path); err != nil {
			slog.Warn("failed to re-parse script", "path", path, "error", err)
		}
	}

	if _, err := a.Generate(context.Background()); err != nil {
		slog.Error("regeneration failed", "error", err)
	}
}

// snapshotClasses returns the current working set in deterministic order.
func (a *App) snapshotClasses() []*parser.ScriptClass {
	a.classesMu.RLock()
	defer a.classesMu.RUnlock()

	paths := make([]string, 0, len(a.classes))
	for p := range a.classes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]*parser.ScriptClass, 0, len(paths))
	for _, p := range paths {
		out = append(out, a.classes[p])
	}
	return out
}

// Generate runs resolution and emission over the current working set and
// writes the results. It is the single entry point for both one-shot and
// watch-mode runs.
func (a *App) Generate(ctx context.Context) (Summary, error) {
	ctx, span := observability.Tracer().Start(ctx, "generate")
	defer span.End()

	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	span.SetAttributes(attribute.String("run.id", summary.RunID))

	classes := a.selectClasses(a.snapshotClasses())
	summary.Classes = len(classes)

	resolveStart := time.Now()
	res := resolver.Resolve(classes, a.Catalog, resolver.Options{AppendSuffix: a.Config.AppendSuffix})
	observability.GenerationDuration.WithLabelValues("resolve").Observe(time.Since(resolveStart).Seconds())
	summary.Diagnostics = res.Diagnostics
	for _, d := range res.Diagnostics {
		slog.Warn("resolution diagnostic", "class", d.Class, "code", string(d.Code), "detail", d.Detail)
		observability.DiagnosticsTotal.WithLabelValues(string(d.Code)).Inc()
	}
	observability.ClassesResolved.Set(float64(len(res.Classes)))

	files, emitted, err := a.emit(ctx, res)
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		return summary, err
	}
	summary.Bridges = emitted.bridges
	summary.Proxies = emitted.proxies

	written, skipped, err := a.writeOutputs(ctx, files, summary.RunID)
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		return summary, err
	}
	summary.Written = written
	summary.Skipped = skipped

	if err := a.sweepStale(summary.RunID); err != nil {
		slog.Warn("failed to sweep stale outputs", "error", err)
	}

	summary.Duration = time.Since(start)
	summary.FinishedAt = time.Now()
	observability.RunsTotal.WithLabelValues("ok").Inc()

	a.lastMu.Lock()
	a.lastRun = &summary
	a.lastMu.Unlock()

	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(summary)
	}

	slog.Info("generation finished",
		"run_id", summary.RunID,
		"classes", summary.Classes,
		"bridges", summary.Bridges,
		"proxies", summary.Proxies,
		"written", summary.Written,
		"skipped", summary.Skipped,
		"diagnostics", len(summary.Diagnostics),
		"duration", summary.Duration,
	)
	return summary, nil
}

// selectClasses applies the only_for_declared policy: when enabled, a class
// is emitted only if a matching Go type exists in the project, or if a
// declared class inherits from it.
func (a *App) selectClasses(all []*parser.ScriptClass) []*parser.ScriptClass {
	if !a.Config.OnlyForDeclared {
		return all
	}

	byName := make(map[string]*parser.ScriptClass, len(all))
	for _, cls := range all {
		byName[cls.Name] = cls
	}

	keep := make(map[string]bool)
	for _, cls := range all {
		if _, ok := a.Catalog.LookupProject(cls.Name); !ok {
			continue
		}
		// Script ancestors come along so the embedded chain stays intact.
		for cur := cls; cur != nil; {
			if keep[cur.Name] {
				break
			}
			keep[cur.Name] = true
			if cur.Base.Kind != parser.BaseNamed {
				break
			}
			cur = byName[cur.Base.Name]
		}
	}

	selected := make([]*parser.ScriptClass, 0, len(keep))
	for _, cls := range all {
		if keep[cls.Name] {
			selected = append(selected, cls)
		} else {
			slog.Debug("no declared counterpart, skipping", "class", cls.Name)
		}
	}
	return selected
}

type output struct {
	file      gen.File
	inputHash string
}

type emitCounts struct {
	bridges int
	proxies int
}

// emit renders every bridge and proxy. Bridges render in parallel; output
// order stays deterministic because results are keyed by file name.
func (a *App) emit(ctx context.Context, res *resolver.Resolution) ([]output, emitCounts, error) {
	_, span := observability.Tracer().Start(ctx, "emit")
	defer span.End()

	emitStart := time.Now()
	defer func() {
		observability.GenerationDuration.WithLabelValues("emit").Observe(time.Since(emitStart).Seconds())
	}()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		outputs []output
		counts  emitCounts
	)

	for _, name := range res.Order {
		rc := res.Classes[name]
		if rc.Cyclic {
			continue
		}

		wg.Add(1)
		go func(rc *resolver.ResolvedClass) {
			defer wg.Done()

			file, err := gen.Bridge(rc, a.Config.Package)
			if err != nil {
				slog.Error("bridge emission failed", "class", rc.Class.Name, "error", err)
				return
			}
			in := a.inputHash("bridge", rc)

			mu.Lock()
			outputs = append(outputs, output{file: file, inputHash: in})
			counts.bridges++
			mu.Unlock()
		}(rc)
	}
	wg.Wait()

	for _, native := range res.UsedNatives {
		file, err := gen.Proxy(native, a.Catalog, a.Config.Package)
		if err != nil {
			return nil, counts, err
		}
		outputs = append(outputs, output{file: file, inputHash: a.inputHash("proxy", native)})
		counts.proxies++
	}
	observability.ProxiesEmitted.Set(float64(counts.proxies))

	sort.Slice(outputs, func(i, j int) bool { return outputs[i].file.Name < outputs[j].file.Name })
	return outputs, counts, nil
}

// inputHash fingerprints everything an output depends on. For bridges the
// input is the full resolution outcome, not just the parsed class: a base
// renamed elsewhere changes the dependent's hash even though its own source
// did not move.
func (a *App) inputHash(kind string, input any) string {
	payload, _ := json.Marshal(struct {
		Kind        string
		Input       any
		Catalog     string
		Package     string
		Suffix      bool
		OnlyForDecl bool
	}{kind, input, a.Catalog.Fingerprint(), a.Config.Package, a.Config.AppendSuffix, a.Config.OnlyForDeclared})
	return cache.Hash(payload)
}

// writeOutputs persists rendered files under the output directory, skipping
// files the cache shows to be current on disk.
func (a *App) writeOutputs(ctx context.Context, outputs []output, runID string) (written, skipped int, err error) {
	_, span := observability.Tracer().Start(ctx, "write")
	defer span.End()

	if err := os.MkdirAll(a.Config.OutDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create output directory %q: %w", a.Config.OutDir, err)
	}

	for _, out := range outputs {
		target := filepath.Join(a.Config.OutDir, out.file.Name)

		if a.cache != nil {
			fresh, ferr := a.cache.Fresh(out.file.Name, out.inputHash)
			if ferr != nil {
				slog.Warn("cache lookup failed", "path", out.file.Name, "error", ferr)
			}
			if fresh {
				if _, serr := os.Stat(target); serr == nil {
					if rerr := a.cache.Record(cache.Entry{
						Path:       out.file.Name,
						InputHash:  out.inputHash,
						OutputHash: cache.Hash(out.file.Source),
						RunID:      runID,
					}); rerr != nil {
						slog.Warn("cache record failed", "path", out.file.Name, "error", rerr)
					}
					skipped++
					observability.FilesSkipped.Inc()
					continue
				}
			}
		}

		if werr := os.WriteFile(target, out.file.Source, 0o644); werr != nil {
			return written, skipped, fmt.Errorf("write %q: %w", target, werr)
		}
		written++
		observability.FilesWritten.Inc()

		if a.cache != nil {
			if rerr := a.cache.Record(cache.Entry{
				Path:       out.file.Name,
				InputHash:  out.inputHash,
				OutputHash: cache.Hash(out.file.Source),
				RunID:      runID,
			}); rerr != nil {
				slog.Warn("cache record failed", "path", out.file.Name, "error", rerr)
			}
		}
	}
	return written, skipped, nil
}

// sweepStale removes previously generated files whose classes disappeared.
// Only cache-tracked files are touched.
func (a *App) sweepStale(runID string) error {
	if a.cache == nil {
		return nil
	}

	stale, err := a.cache.Stale(runID)
	if err != nil {
		return err
	}
	for _, name := range stale {
		target := filepath.Join(a.Config.OutDir, name)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove stale output", "path", target, "error", err)
			continue
		}
		slog.Info("removed stale output", "path", target)
		if err := a.cache.Forget(name); err != nil {
			slog.Warn("failed to forget stale output", "path", name, "error", err)
		}
	}
	return nil
}
