package cleaner

import (
	"context"
	"errors"
	"testing"

	"github.com/matty6409/album-cleaner/internal/config"
	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/materialize"
	"github.com/matty6409/album-cleaner/internal/output"
)

type stubProcessor struct {
	results map[string]engine.Result
	errs    map[string]error
	calls   []string
}

func (p *stubProcessor) Process(ctx context.Context, album engine.Album, opts engine.Options) (engine.Result, error) {
	p.calls = append(p.calls, album.Title)
	if err, ok := p.errs[album.Title]; ok {
		return engine.Result{}, err
	}
	if result, ok := p.results[album.Title]; ok {
		return result, nil
	}
	return engine.Result{
		Mapping: map[string]string{album.Files[0]: "01 X" + album.Files[0]},
		Source:  engine.SourceOfficial,
		Artist:  album.Artist,
		Album:   album.Title,
	}, nil
}

type recordingEmitter struct {
	events []output.Event
}

func (r *recordingEmitter) Emit(event output.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) byName(name output.EventName) []output.Event {
	var matched []output.Event
	for _, e := range r.events {
		if e.Event == name {
			matched = append(matched, e)
		}
	}
	return matched
}

func testConfig(t *testing.T) config.Config {
	cfg := config.DefaultConfig()
	cfg.Libraries = []config.Library{
		{ID: "main", Path: t.TempDir(), Enabled: true},
	}
	return cfg
}

func newTestCleaner(processor Processor, emitter output.EventEmitter, albums []engine.Album) (*Cleaner, *[]materialize.Plan) {
	applied := &[]materialize.Plan{}
	c := New(processor, emitter)
	c.scanAlbums = func(root string) ([]engine.Album, error) { return albums, nil }
	c.buildPlan = func(album engine.Album, result engine.Result, opts materialize.Options) (materialize.Plan, error) {
		return materialize.Plan{TargetDir: album.Path, Ops: []materialize.Operation{{Kind: materialize.OpRename}}}, nil
	}
	c.applyPlan = func(plan materialize.Plan) error {
		*applied = append(*applied, plan)
		return nil
	}
	return c, applied
}

func TestRunUnknownLibrarySelection(t *testing.T) {
	c, _ := newTestCleaner(&stubProcessor{}, nil, nil)

	_, err := c.Run(context.Background(), testConfig(t), RunOptions{LibraryIDs: []string{"nope"}})
	var selErr *SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
	if len(selErr.Missing) != 1 || selErr.Missing[0] != "nope" {
		t.Fatalf("unexpected missing ids: %v", selErr.Missing)
	}
}

func TestRunSummaryCounts(t *testing.T) {
	albums := []engine.Album{
		{Artist: "A", Title: "One", Path: "/lib/[A] One", Files: []string{"a.flac"}},
		{Artist: "B", Title: "Empty", Path: "/lib/[B] Empty"},
		{Artist: "C", Title: "Bad", Path: "/lib/[C] Bad", Files: []string{"c.flac"}},
	}
	processor := &stubProcessor{errs: map[string]error{
		"Bad": &engine.BudgetExhaustedError{Stage: "review"},
	}}
	emitter := &recordingEmitter{}
	c, applied := newTestCleaner(processor, emitter, albums)

	summary, err := c.Run(context.Background(), testConfig(t), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Total != 3 || summary.Attempted != 2 || summary.Succeeded != 1 ||
		summary.Failed != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(*applied) != 1 {
		t.Fatalf("expected 1 applied plan, got %d", len(*applied))
	}
	if len(emitter.byName(output.EventRunFinished)) != 1 {
		t.Fatalf("expected exactly one run_finished event")
	}
	if failures := emitter.byName(output.EventAlbumFailed); len(failures) != 1 || failures[0].Album != "[C] Bad" {
		t.Fatalf("unexpected failure events: %+v", failures)
	}
}

func TestRunDryRunSkipsApply(t *testing.T) {
	albums := []engine.Album{{Artist: "A", Title: "One", Path: "/lib/[A] One", Files: []string{"a.flac"}}}
	c, applied := newTestCleaner(&stubProcessor{}, nil, albums)

	summary, err := c.Run(context.Background(), testConfig(t), RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("expected dry-run success, got %+v", summary)
	}
	if len(*applied) != 0 {
		t.Fatalf("dry run must not apply plans, applied %d", len(*applied))
	}
}

func TestRunStopsOnFirstFailureWithoutContinueOnError(t *testing.T) {
	albums := []engine.Album{
		{Artist: "A", Title: "Bad", Path: "/lib/[A] Bad", Files: []string{"a.flac"}},
		{Artist: "B", Title: "Never", Path: "/lib/[B] Never", Files: []string{"b.flac"}},
	}
	processor := &stubProcessor{errs: map[string]error{"Bad": errors.New("boom")}}
	c, _ := newTestCleaner(processor, nil, albums)

	cfg := testConfig(t)
	cfg.Defaults.ContinueOnError = false

	summary, err := c.Run(context.Background(), cfg, RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(processor.calls) != 1 {
		t.Fatalf("expected processing to stop after the first failure, got %v", processor.calls)
	}
}

func TestRunInterrupted(t *testing.T) {
	albums := []engine.Album{
		{Artist: "A", Title: "One", Path: "/lib/[A] One", Files: []string{"a.flac"}},
		{Artist: "B", Title: "Two", Path: "/lib/[B] Two", Files: []string{"b.flac"}},
	}
	processor := &stubProcessor{errs: map[string]error{"One": engine.ErrCancelled}}
	c, _ := newTestCleaner(processor, nil, albums)

	summary, err := c.Run(context.Background(), testConfig(t), RunOptions{})
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if !summary.Interrupted {
		t.Fatalf("expected interrupted summary, got %+v", summary)
	}
	if len(processor.calls) != 1 {
		t.Fatalf("expected no further albums after interruption, got %v", processor.calls)
	}
}

func TestRunSkipsDisabledLibraries(t *testing.T) {
	processor := &stubProcessor{}
	c, _ := newTestCleaner(processor, nil, []engine.Album{
		{Artist: "A", Title: "One", Path: "/lib/[A] One", Files: []string{"a.flac"}},
	})

	cfg := testConfig(t)
	cfg.Libraries[0].Enabled = false

	summary, err := c.Run(context.Background(), cfg, RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Total != 0 || len(processor.calls) != 0 {
		t.Fatalf("disabled library must not be scanned or processed: %+v, calls %v", summary, processor.calls)
	}
}
