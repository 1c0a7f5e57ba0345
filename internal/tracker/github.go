package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	githubAPIBase     = "https://api.github.com"
	githubPageSize    = 100
	defaultMaxPages   = 10
	maxConcurrentRepo = 4
)

// GitHubProvider fetches open feature requests from GitHub repositories.
type GitHubProvider struct {
	// BaseURL overrides the GitHub API endpoint; empty means api.github.com.
	BaseURL string
}

// GitHubConfig holds configuration for the GitHub connector.
type GitHubConfig struct {
	// Token is a GitHub personal access token. Falls back to GITHUB_TOKEN.
	Token string `json:"token"`

	// Repos is a list of "owner/repo" strings to mine.
	Repos []string `json:"repos"`

	// Labels filters issues to those carrying at least one of these labels.
	// Default: ["enhancement"]. Empty list after explicit config = no filter.
	Labels []string `json:"labels"`

	// IncludeClosed includes closed issues (default: open only).
	IncludeClosed bool `json:"include_closed"`

	// MaxPages caps pagination per repo (default 10, i.e. 1000 issues).
	MaxPages int `json:"max_pages"`
}

func init() {
	DefaultRegistry.Register(&GitHubProvider{})
}

func (g *GitHubProvider) Name() string        { return "github" }
func (g *GitHubProvider) DisplayName() string { return "GitHub" }

func (g *GitHubProvider) DefaultConfig() json.RawMessage {
	return json.RawMessage(`{
  "token": "",
  "repos": ["owner/repo"],
  "labels": ["enhancement"],
  "include_closed": false,
  "max_pages": 10
}`)
}

func (g *GitHubProvider) ValidateConfig(config json.RawMessage) error {
	var cfg GitHubConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}
	if len(cfg.Repos) == 0 {
		return fmt.Errorf("at least one repo is required (format: owner/repo)")
	}
	for _, repo := range cfg.Repos {
		parts := strings.SplitN(repo, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("invalid repo format %q (expected owner/repo)", repo)
		}
	}
	return nil
}

// Fetch retrieves feature requests from every configured repo. Repos are
// fetched concurrently; the merged result is ordered by config repo order
// then issue number, so identical trackers always yield identical sequences.
func (g *GitHubProvider) Fetch(ctx context.Context, config json.RawMessage) ([]Record, error) {
	var cfg GitHubConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}
	if err := g.ValidateConfig(config); err != nil {
		return nil, err
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}

	base := g.BaseURL
	if base == "" {
		base = githubAPIBase
	}
	client := &gitHubClient{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	perRepo := make([][]Record, len(cfg.Repos))
	var mu sync.Mutex

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(maxConcurrentRepo)
	for i, repo := range cfg.Repos {
		grp.Go(func() error {
			parts := strings.SplitN(repo, "/", 2)
			records, err := g.fetchRepo(grpCtx, client, parts[0], parts[1], &cfg)
			if err != nil {
				return fmt.Errorf("fetching issues for %s: %w", repo, err)
			}
			mu.Lock()
			perRepo[i] = records
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	var all []Record
	for _, records := range perRepo {
		all = append(all, records...)
	}
	return all, nil
}

func (g *GitHubProvider) fetchRepo(ctx context.Context, client *gitHubClient, owner, repo string, cfg *GitHubConfig) ([]Record, error) {
	state := "open"
	if cfg.IncludeClosed {
		state = "all"
	}
	url := fmt.Sprintf("%s/repos/%s/%s/issues?state=%s&sort=created&direction=asc&per_page=%d",
		client.baseURL, owner, repo, state, githubPageSize)

	var records []Record
	for page := 1; page <= cfg.MaxPages; page++ {
		pageURL := fmt.Sprintf("%s&page=%d", url, page)

		var issues []gitHubIssue
		if err := client.get(ctx, pageURL, &issues); err != nil {
			return nil, err
		}
		if len(issues) == 0 {
			break
		}

		for _, issue := range issues {
			if issue.PullRequest != nil {
				continue // the issues API also returns PRs
			}
			if !matchesLabels(issue, cfg.Labels) {
				continue
			}
			records = append(records, issueToRecord(owner, repo, issue))
		}

		if len(issues) < githubPageSize {
			break // last page
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Number < records[j].Number })
	return records, nil
}

// matchesLabels reports whether the issue carries any of the wanted labels.
// A nil filter defaults to "enhancement"; an explicit empty list accepts all.
func matchesLabels(issue gitHubIssue, wanted []string) bool {
	if wanted == nil {
		wanted = []string{"enhancement"}
	}
	if len(wanted) == 0 {
		return true
	}
	for _, label := range issue.Labels {
		for _, w := range wanted {
			if strings.EqualFold(label.Name, w) {
				return true
			}
		}
	}
	return false
}

// issueToRecord converts a GitHub issue to a cleaned tracker Record.
// Votes come from +1 reactions; a missing body is an empty description.
func issueToRecord(owner, repo string, issue gitHubIssue) Record {
	votes := issue.Reactions.PlusOne
	if votes < 0 {
		votes = 0
	}
	return Record{
		ExternalID:  fmt.Sprintf("github:%s/%s#%d", owner, repo, issue.Number),
		Number:      issue.Number,
		Title:       CleanText(issue.Title),
		Description: CleanText(issue.Body),
		Votes:       votes,
		URL:         issue.HTMLURL,
		UpdatedAt:   issue.UpdatedAt,
	}
}

// --- GitHub API types ---

type gitHubIssue struct {
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	State       string           `json:"state"`
	HTMLURL     string           `json:"html_url"`
	Labels      []gitHubLabel    `json:"labels"`
	PullRequest *json.RawMessage `json:"pull_request"`
	Reactions   gitHubReactions  `json:"reactions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type gitHubLabel struct {
	Name string `json:"name"`
}

type gitHubReactions struct {
	PlusOne int `json:"+1"`
}

// --- HTTP client ---

type gitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func (c *gitHubClient) get(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
