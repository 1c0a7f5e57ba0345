package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hurttlocker/featuremap/internal/config"
	"github.com/hurttlocker/featuremap/internal/store"
)

func runRuns(args []string) error {
	resolve := config.ResolveOptions{}
	limit := 0

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

	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No mining runs recorded.")
		return nil
	}

	fmt.Printf("%-6s  %-20s  %-4s  %s\n", "RUN", "CREATED", "K", "ISSUES")
	for _, run := range runs {
		fmt.Printf("%-6d  %-20s  %-4d  %d\n",
			run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.K, run.IssueCount)
	}
	return nil
}
