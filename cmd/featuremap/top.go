package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hurttlocker/featuremap/internal/config"
	"github.com/hurttlocker/featuremap/internal/report"
	"github.com/hurttlocker/featuremap/internal/store"
)

func runTop(args []string) error {
	resolve := config.ResolveOptions{}
	asJSON := false
	limit := 20
	runID := int64(0)

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
		case args[i] == "--limit" && i+1 < len(args):
			i++
			fmt.Sscanf(args[i], "%d", &limit)
		case strings.HasPrefix(args[i], "--limit="):
			fmt.Sscanf(strings.TrimPrefix(args[i], "--limit="), "%d", &limit)
		case args[i] == "--run" && i+1 < len(args):
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid --run: %s", args[i])
			}
			runID = n
		case strings.HasPrefix(args[i], "--run="):
			n, err := strconv.ParseInt(strings.TrimPrefix(args[i], "--run="), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid --run: %s", args[i])
			}
			runID = n
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

	if runID == 0 {
		run, err := st.LatestRun(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNoRuns) {
				return fmt.Errorf("no mining runs recorded; run `featuremap mine` first")
			}
			return err
		}
		runID = run.ID
	}

	clusters, err := st.RunClusters(ctx, runID)
	if err != nil {
		return err
	}
	if asJSON {
		return report.WriteJSON(os.Stdout, clusters)
	}
	fmt.Print(report.FormatRanking(clusters, limit))
	return nil
}
