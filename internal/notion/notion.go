// Package notion fetches task and project records from Notion databases.
package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jomei/notionapi"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// pageSize is the maximum page size the API accepts.
const pageSize = 100

// Source fetches task and project records.
type Source interface {
	Tasks(ctx context.Context, q Query) ([]task.Task, []task.DecodeWarning, error)
	Projects(ctx context.Context) ([]task.Project, error)
}

// Query narrows the tasks fetched from the tasks database. All set
// conditions must hold.
type Query struct {
	ExcludeStatus string
	DueOnOrBefore *date.Date
	DueOnOrAfter  *date.Date
	DueEmpty      bool
}

// Options configures a Client.
type Options struct {
	APIKey     string
	TasksDB    string
	ProjectsDB string
	Timeout    time.Duration
	Properties config.PropertyNames
	DoneStatus string
	// HighPriority is the level a checked checkbox priority maps to.
	HighPriority string
	Logger       *slog.Logger
}

// OptionsFromConfig builds client options from a loaded config.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		APIKey:       cfg.Notion.APIKey,
		TasksDB:      cfg.Notion.TasksDB,
		ProjectsDB:   cfg.Notion.ProjectsDB,
		Timeout:      cfg.TimeoutDuration(),
		Properties:   cfg.Notion.Properties,
		DoneStatus:   cfg.Classify.DoneStatus,
		HighPriority: cfg.Classify.HighPriority,
		Logger:       logger,
	}
}

type databaseQuerier interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type pageGetter interface {
	Get(ctx context.Context, id notionapi.PageID) (*notionapi.Page, error)
}

// Client implements Source on top of the Notion REST API.
type Client struct {
	db    databaseQuerier
	pages pageGetter
	opts  Options
	log   *slog.Logger
}

// New creates a Client authenticated with opts.APIKey.
func New(opts Options) *Client {
	httpClient := &http.Client{Timeout: opts.Timeout}
	api := notionapi.NewClient(notionapi.Token(opts.APIKey), notionapi.WithHTTPClient(httpClient))
	return newClient(api.Database, api.Page, opts)
}

func newClient(db databaseQuerier, pages pageGetter, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{db: db, pages: pages, opts: opts, log: logger.With("component", "notion")}
}

// Tasks returns every task matching q, in database order. Records that fail
// to decode are skipped and reported as warnings.
func (c *Client) Tasks(ctx context.Context, q Query) ([]task.Task, []task.DecodeWarning, error) {
	pages, err := c.queryAll(ctx, c.opts.TasksDB, c.filter(q))
	if err != nil {
		return nil, nil, fetchError("querying tasks database", c.opts.TasksDB, err)
	}

	tasks := make([]task.Task, 0, len(pages))
	var warnings []task.DecodeWarning
	for i := range pages {
		t, err := decodeTask(&pages[i], c.opts)
		if err != nil {
			c.log.Warn("skipping task", "id", string(pages[i].ID), "error", err)
			warnings = append(warnings, task.DecodeWarning{ID: task.NormalizeID(string(pages[i].ID)), Err: err})
			continue
		}
		tasks = append(tasks, t)
	}
	c.log.Info("fetched tasks", "count", len(tasks), "skipped", len(warnings))
	return tasks, warnings, nil
}

// Projects returns every titled project in the projects database.
func (c *Client) Projects(ctx context.Context) ([]task.Project, error) {
	pages, err := c.queryAll(ctx, c.opts.ProjectsDB, nil)
	if err != nil {
		return nil, fetchError("querying projects database", c.opts.ProjectsDB, err)
	}

	projects := make([]task.Project, 0, len(pages))
	for i := range pages {
		p, err := decodeProject(&pages[i], c.opts.Properties.Title)
		if err != nil {
			c.log.Debug("skipping project", "id", string(pages[i].ID), "error", err)
			continue
		}
		projects = append(projects, p)
	}
	c.log.Info("fetched projects", "count", len(projects))
	return projects, nil
}

// Inspect returns the raw JSON of a single page, for working out the
// property layout of a database.
func (c *Client) Inspect(ctx context.Context, pageID string) (json.RawMessage, error) {
	page, err := c.pages.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, fetchError("retrieving page", pageID, err)
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding page: %w", err)
	}
	return data, nil
}

func (c *Client) queryAll(ctx context.Context, db string, filter notionapi.Filter) ([]notionapi.Page, error) {
	var (
		pages  []notionapi.Page
		cursor notionapi.Cursor
	)
	for {
		req := &notionapi.DatabaseQueryRequest{Filter: filter, StartCursor: cursor, PageSize: pageSize}
		resp, err := c.db.Query(ctx, notionapi.DatabaseID(db), req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}

// filter translates q into a server-side filter, or nil when q is empty.
func (c *Client) filter(q Query) notionapi.Filter {
	props := c.opts.Properties
	var conds []notionapi.Filter

	if q.ExcludeStatus != "" {
		conds = append(conds, notionapi.PropertyFilter{
			Property: props.Status,
			Status:   &notionapi.StatusFilterCondition{DoesNotEqual: q.ExcludeStatus},
		})
	}
	if q.DueOnOrBefore != nil {
		d := notionapi.Date(q.DueOnOrBefore.Time)
		conds = append(conds, notionapi.PropertyFilter{
			Property: props.Due,
			Date:     &notionapi.DateFilterCondition{OnOrBefore: &d},
		})
	}
	if q.DueOnOrAfter != nil {
		d := notionapi.Date(q.DueOnOrAfter.Time)
		conds = append(conds, notionapi.PropertyFilter{
			Property: props.Due,
			Date:     &notionapi.DateFilterCondition{OnOrAfter: &d},
		})
	}
	if q.DueEmpty {
		conds = append(conds, notionapi.PropertyFilter{
			Property: props.Due,
			Date:     &notionapi.DateFilterCondition{IsEmpty: true},
		})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return notionapi.AndCompoundFilter(conds)
	}
}

func fetchError(op, id string, err error) error {
	details := map[string]any{"id": id}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		details["status"] = apiErr.Status
		details["api_code"] = string(apiErr.Code)
	}
	return clierr.Wrap(clierr.FetchFailed, err, op).WithDetails(details)
}
