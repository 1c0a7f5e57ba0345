package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hurttlocker/featuremap/internal/config"
	"github.com/hurttlocker/featuremap/internal/pipeline"
	"github.com/hurttlocker/featuremap/internal/report"
	"github.com/hurttlocker/featuremap/internal/store"
	"github.com/hurttlocker/featuremap/internal/tracker"
)

func runMine(args []string) error {
	resolve := config.ResolveOptions{}
	cached := false
	asJSON := false
	limit := 20

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			resolve.ConfigPath = args[i]
		case strings.HasPrefix(args[i], "--config="):
			resolve.ConfigPath = strings.TrimPrefix(args[i], "--config=")
		case args[i] == "--db" && i+1 < len(args):
			i++
			resolve.CLIDBPath = args[i]
		case strings.HasPrefix(args[i], "--db="):
			resolve.CLIDBPath = strings.TrimPrefix(args[i], "--db=")
		case args[i] == "--repos" && i+1 < len(args):
			i++
			resolve.CLIRepos = args[i]
		case strings.HasPrefix(args[i], "--repos="):
			resolve.CLIRepos = strings.TrimPrefix(args[i], "--repos=")
		case args[i] == "--token" && i+1 < len(args):
			i++
			resolve.CLIToken = args[i]
		case strings.HasPrefix(args[i], "--token="):
			resolve.CLIToken = strings.TrimPrefix(args[i], "--token=")
		case args[i] == "--clusters" && i+1 < len(args):
			i++
			resolve.CLIClusters = args[i]
		case strings.HasPrefix(args[i], "--clusters="):
			resolve.CLIClusters = strings.TrimPrefix(args[i], "--clusters=")
		case args[i] == "--seed" && i+1 < len(args):
			i++
			resolve.CLISeed = args[i]
		case strings.HasPrefix(args[i], "--seed="):
			resolve.CLISeed = strings.TrimPrefix(args[i], "--seed=")
		case args[i] == "--limit" && i+1 < len(args):
			i++
			fmt.Sscanf(args[i], "%d", &limit)
		case strings.HasPrefix(args[i], "--limit="):
			fmt.Sscanf(strings.TrimPrefix(args[i], "--limit="), "%d", &limit)
		case args[i] == "--cached":
			cached = true
		case args[i] == "--json":
			asJSON = true
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	cfg, err := config.Resolve(resolve)
	if err != nil {
		return err
	}

	ctx := context.Background()

	st, err := store.Open(store.Config{DBPath: cfg.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	if !cached {
		if err := fetchIssues(ctx, st, cfg); err != nil {
			return err
		}
	}

	rows, err := st.ListIssues(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no issues to mine; run without --cached or check --repos")
	}

	issues := make([]pipeline.Issue, len(rows))
	for i, row := range rows {
		issues[i] = pipeline.Issue{
			ID:          row.ID,
			Votes:       row.Votes,
			Description: strings.TrimSpace(row.Title + " " + row.Description),
			Cluster:     pipeline.Unassigned,
		}
	}

	opts := cfg.PipelineOptions()
	p, err := pipeline.Build(issues, opts)
	if err != nil {
		return err
	}
	if _, err := p.Aggregate(issues); err != nil {
		return err
	}
	ranked := p.Rank()

	params, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding run parameters: %w", err)
	}
	runID, err := st.SaveRun(ctx, &store.Run{
		CreatedAt:  time.Now().UTC(),
		K:          p.K(),
		IssueCount: len(issues),
		Params:     string(params),
	}, ranked)
	if err != nil {
		return err
	}

	if asJSON {
		return report.WriteJSON(os.Stdout, ranked)
	}
	fmt.Printf("Mined %d issues into %d clusters (run %d)\n\n", len(issues), p.K(), runID)
	fmt.Print(report.FormatRanking(ranked, limit))
	return nil
}

// fetchIssues pulls the latest feature requests from the configured tracker
// and refreshes the cached corpus.
func fetchIssues(ctx context.Context, st *store.Store, cfg config.ResolvedConfig) error {
	name := cfg.Provider.Value
	if name == "" {
		name = "github"
	}
	provider, err := tracker.DefaultRegistry.Get(name)
	if err != nil {
		return err
	}

	trackerCfg, err := buildTrackerConfig(provider, cfg)
	if err != nil {
		return err
	}
	if err := provider.ValidateConfig(trackerCfg); err != nil {
		return err
	}

	records, err := provider.Fetch(ctx, trackerCfg)
	if err != nil {
		return fmt.Errorf("fetching from %s: %w", provider.DisplayName(), err)
	}

	for _, rec := range records {
		_, err := st.UpsertIssue(ctx, &store.Issue{
			ExternalID:  rec.ExternalID,
			Number:      rec.Number,
			Title:       rec.Title,
			Description: rec.Description,
			Votes:       rec.Votes,
			URL:         rec.URL,
			UpdatedAt:   rec.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("caching issue %s: %w", rec.ExternalID, err)
		}
	}
	fmt.Fprintf(os.Stderr, "Fetched %d issues\n", len(records))
	return nil
}

// buildTrackerConfig shapes the resolved settings into the config the chosen
// provider expects. Each provider reads a different config schema, so this
// dispatches on the provider name.
func buildTrackerConfig(provider tracker.Provider, cfg config.ResolvedConfig) (json.RawMessage, error) {
	switch provider.Name() {
	case "github":
		repos := cfg.Repos.List()
		if len(repos) == 0 {
			return nil, fmt.Errorf("no repositories configured; pass --repos owner/repo or set tracker.repos")
		}
		raw, err := json.Marshal(tracker.GitHubConfig{
			Token:         cfg.Token.Value,
			Repos:         repos,
			Labels:        cfg.Labels.List(),
			IncludeClosed: cfg.IncludeClosed.Value == "true",
			MaxPages:      cfg.MaxPages.Int(0),
		})
		if err != nil {
			return nil, fmt.Errorf("encoding tracker config: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("no configuration builder for provider %q", provider.Name())
	}
}
