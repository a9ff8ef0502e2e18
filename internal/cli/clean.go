package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/matty6409/album-cleaner/internal/auth"
	"github.com/matty6409/album-cleaner/internal/catalog/spotify"
	"github.com/matty6409/album-cleaner/internal/cleaner"
	"github.com/matty6409/album-cleaner/internal/config"
	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/exitcode"
	"github.com/matty6409/album-cleaner/internal/llm"
	"github.com/matty6409/album-cleaner/internal/mapper"
	"github.com/matty6409/album-cleaner/internal/output"
	"github.com/matty6409/album-cleaner/internal/review"
)

// offlineCatalog stands in when Spotify credentials are absent: every lookup
// misses and the engine falls through to LLM-only mapping.
type offlineCatalog struct{}

func (offlineCatalog) Search(ctx context.Context, query string) (engine.CatalogMatch, error) {
	return engine.CatalogMatch{}, engine.ErrNoMatch
}

func newCleanCommand(app *AppContext) *cobra.Command {
	var libraryIDs []string
	var provider string
	var model string
	var pureTranslation bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean album filenames in the configured libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if provider != "" {
				cfg.Defaults.LLMProvider = provider
			}
			if cmd.Flags().Changed("pure-translation") {
				cfg.Defaults.PureTranslation = pureTranslation
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			emitter := newRunEmitter(app)

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()

			resolver := auth.NewResolver()
			timeout := time.Duration(cfg.Defaults.RequestTimeoutSeconds) * time.Second

			var generator engine.Generator
			var reviewer engine.Reviewer
			var catalog engine.CatalogSearcher = offlineCatalog{}

			if !allPureTranslation(cfg, libraryIDs) {
				key, err := resolver.ResolveLLMKey(cfg.Defaults.LLMProvider)
				if err != nil {
					return withExitCode(exitcode.MissingCredential, err)
				}
				client, err := llm.NewChatClient(cfg.Defaults.LLMProvider, key, model, timeout)
				if err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				if generator, err = mapper.New(client); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				if reviewer, err = review.New(client); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}

				creds, err := resolver.ResolveSpotify()
				switch {
				case errors.Is(err, auth.ErrSpotifyCredentialsNotFound):
					fmt.Fprintln(app.IO.ErrOut, "WARN: Spotify credentials not found; cleaning without official track listings")
				case err != nil:
					return withExitCode(exitcode.MissingCredential, err)
				default:
					searcher, err := spotify.New(ctx, creds)
					if err != nil {
						return withExitCode(exitcode.MissingCredential, err)
					}
					catalog = searcher
				}
			}

			eng := engine.New(catalog, generator, reviewer, emitter)
			summary, runErr := cleaner.New(eng, emitter).Run(ctx, cfg, cleaner.RunOptions{
				LibraryIDs: libraryIDs,
				DryRun:     app.Opts.DryRun,
			})
			if runErr != nil {
				var selectionErr *cleaner.SelectionError
				switch {
				case errors.As(runErr, &selectionErr):
					return withExitCode(exitcode.InvalidUsage, runErr)
				case errors.Is(runErr, cleaner.ErrInterrupted):
					return withExitCode(exitcode.Interrupted, runErr)
				default:
					return withExitCode(exitcode.RuntimeFailure, runErr)
				}
			}

			if summary.Failed > 0 {
				return withExitCode(exitcode.PartialSuccess, fmt.Errorf("run finished with failed albums (%d)", summary.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&libraryIDs, "library", nil, "Clean only the selected library id (repeatable)")
	cmd.Flags().StringVar(&provider, "provider", "", "Override the configured LLM provider (perplexity, deepseek, openrouter)")
	cmd.Flags().StringVar(&model, "model", "", "Override the provider's default model")
	cmd.Flags().BoolVar(&pureTranslation, "pure-translation", false, "Skip catalog and LLM lookups; renumber and convert scripts locally")
	return cmd
}

// newRunEmitter picks the event sink for a clean run. JSON mode writes the
// event stream to stdout; with --verbose it additionally mirrors human
// progress to stderr so the JSON stream stays machine-readable.
func newRunEmitter(app *AppContext) output.EventEmitter {
	if !app.Opts.JSON {
		return output.NewHumanEmitter(app.IO.Out, app.IO.ErrOut, app.Opts.Quiet, app.Opts.Verbose)
	}
	jsonEmitter := output.NewJSONEmitter(app.IO.Out)
	if !app.Opts.Verbose {
		return jsonEmitter
	}
	return output.NewMultiEmitter(jsonEmitter,
		output.NewHumanEmitter(app.IO.ErrOut, app.IO.ErrOut, false, true))
}

// allPureTranslation reports whether every library the run would touch is in
// pure-translation mode, in which case no provider credentials are needed.
func allPureTranslation(cfg config.Config, libraryIDs []string) bool {
	requested := map[string]struct{}{}
	for _, id := range libraryIDs {
		requested[id] = struct{}{}
	}

	any := false
	for _, lib := range cfg.Libraries {
		if !lib.Enabled {
			continue
		}
		if len(requested) > 0 {
			if _, ok := requested[lib.ID]; !ok {
				continue
			}
		}
		any = true
		if !cfg.EffectivePureTranslation(lib) {
			return false
		}
	}
	return any
}
