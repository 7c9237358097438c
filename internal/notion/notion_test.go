package notion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
)

type fakeDB struct {
	responses []*notionapi.DatabaseQueryResponse
	err       error
	requests  []notionapi.DatabaseQueryRequest
	ids       []notionapi.DatabaseID
}

func (f *fakeDB) Query(_ context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.ids = append(f.ids, id)
	f.requests = append(f.requests, *req)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakePages struct {
	page *notionapi.Page
}

func (f *fakePages) Get(_ context.Context, _ notionapi.PageID) (*notionapi.Page, error) {
	if f.page == nil {
		return nil, errors.New("not found")
	}
	return f.page, nil
}

func testOptions() Options {
	return Options{
		TasksDB:      "tasks-db",
		ProjectsDB:   "projects-db",
		Properties:   config.DefaultProperties,
		DoneStatus:   "Done",
		HighPriority: "High",
	}
}

func title(s string) *notionapi.TitleProperty {
	return &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: s}}}
}

func due(y int, m time.Month, d int) *notionapi.DateProperty {
	nd := notionapi.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &nd}}
}

func taskPage(id, name string, extra notionapi.Properties) notionapi.Page {
	props := notionapi.Properties{"Name": title(name)}
	for k, v := range extra {
		props[k] = v
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), URL: "https://www.notion.so/" + id, Properties: props}
}

func TestTasks_DecodesProperties(t *testing.T) {
	db := &fakeDB{responses: []*notionapi.DatabaseQueryResponse{{
		Results: []notionapi.Page{
			taskPage("AAAA-1111", "Write report", notionapi.Properties{
				"Status":   &notionapi.StatusProperty{Status: notionapi.Status{Name: "In progress"}},
				"Priority": &notionapi.SelectProperty{Select: notionapi.Option{Name: "High"}},
				"Due":      due(2026, time.October, 16),
				"Project":  &notionapi.RelationProperty{Relation: []notionapi.Relation{{ID: "PROJ-0001"}}},
			}),
			taskPage("bbbb2222", "Renew passport", notionapi.Properties{
				"Status":   &notionapi.StatusProperty{Status: notionapi.Status{Name: "done"}},
				"Priority": &notionapi.CheckboxProperty{Checkbox: true},
			}),
		},
	}}}
	c := newClient(db, nil, testOptions())

	tasks, warnings, err := c.Tasks(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, tasks, 2)

	first := tasks[0]
	assert.Equal(t, "aaaa1111", first.ID)
	assert.Equal(t, "Write report", first.Title)
	assert.Equal(t, "In progress", first.Status)
	assert.Equal(t, "High", first.Priority)
	require.NotNil(t, first.Due)
	assert.True(t, first.Due.Equal(date.New(2026, time.October, 16)))
	assert.Equal(t, "proj0001", first.ProjectID)
	assert.False(t, first.Done)

	second := tasks[1]
	assert.True(t, second.Done)
	assert.Equal(t, "High", second.Priority)
	assert.Nil(t, second.Due)
	assert.Empty(t, second.ProjectID)
}

func TestTasks_SkipsUntitledRecords(t *testing.T) {
	db := &fakeDB{responses: []*notionapi.DatabaseQueryResponse{{
		Results: []notionapi.Page{
			taskPage("aaaa", "", nil),
			taskPage("bbbb", "Kept", nil),
		},
	}}}
	c := newClient(db, nil, testOptions())

	tasks, warnings, err := c.Tasks(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Kept", tasks[0].Title)
	require.Len(t, warnings, 1)
	assert.Equal(t, "aaaa", warnings[0].ID)
	assert.Contains(t, warnings[0].Err.Error(), "Title")
}

func TestTasks_FollowsCursor(t *testing.T) {
	db := &fakeDB{responses: []*notionapi.DatabaseQueryResponse{
		{Results: []notionapi.Page{taskPage("a1", "One", nil)}, HasMore: true, NextCursor: "next"},
		{Results: []notionapi.Page{taskPage("a2", "Two", nil)}},
	}}
	c := newClient(db, nil, testOptions())

	tasks, _, err := c.Tasks(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	require.Len(t, db.requests, 2)
	assert.Equal(t, notionapi.Cursor(""), db.requests[0].StartCursor)
	assert.Equal(t, notionapi.Cursor("next"), db.requests[1].StartCursor)
	assert.Equal(t, pageSize, db.requests[0].PageSize)
	assert.Equal(t, notionapi.DatabaseID("tasks-db"), db.ids[0])
}

func TestTasks_BuildsCompoundFilter(t *testing.T) {
	db := &fakeDB{responses: []*notionapi.DatabaseQueryResponse{{}}}
	c := newClient(db, nil, testOptions())
	today := date.New(2026, time.October, 16)

	_, _, err := c.Tasks(context.Background(), Query{ExcludeStatus: "Done", DueOnOrBefore: &today})
	require.NoError(t, err)

	and, ok := db.requests[0].Filter.(notionapi.AndCompoundFilter)
	require.True(t, ok, "expected compound filter, got %T", db.requests[0].Filter)
	require.Len(t, and, 2)

	status, ok := and[0].(notionapi.PropertyFilter)
	require.True(t, ok)
	assert.Equal(t, "Status", status.Property)
	assert.Equal(t, "Done", status.Status.DoesNotEqual)

	dueFilter, ok := and[1].(notionapi.PropertyFilter)
	require.True(t, ok)
	assert.Equal(t, "Due", dueFilter.Property)
	require.NotNil(t, dueFilter.Date.OnOrBefore)
	assert.Equal(t, today.Time, time.Time(*dueFilter.Date.OnOrBefore))
}

func TestTasks_EmptyQueryHasNoFilter(t *testing.T) {
	db := &fakeDB{responses: []*notionapi.DatabaseQueryResponse{{}}}
	c := newClient(db, nil, testOptions())

	_, _, err := c.Tasks(context.Background(), Query{})
	require.NoError(t, err)
	assert.Nil(t, db.requests[0].Filter)
}

func TestTasks_APIErrorIsFetchFailure(t *testing.T) {
	db := &fakeDB{err: &notionapi.Error{Status: 401, Code: "unauthorized", Message: "API token is invalid."}}
	c := newClient(db, nil, testOptions())

	_, _, err := c.Tasks(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, clierr.HasCode(err, clierr.FetchFailed))

	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 401, ce.Details["status"])
}

func TestProjects_SkipsUntitled(t *testing.T) {
	db := &fakeDB{responses: []*notionapi.DatabaseQueryResponse{{
		Results: []notionapi.Page{
			taskPage("P-1", "Home", nil),
			{ID: "p2", Properties: notionapi.Properties{}},
		},
	}}}
	c := newClient(db, nil, testOptions())

	projects, err := c.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID)
	assert.Equal(t, "Home", projects[0].Name)
	assert.Equal(t, notionapi.DatabaseID("projects-db"), db.ids[0])
}

func TestInspect(t *testing.T) {
	page := taskPage("abc", "Sample", nil)
	c := newClient(nil, &fakePages{page: &page}, testOptions())

	raw, err := c.Inspect(context.Background(), "abc")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Sample")

	c = newClient(nil, &fakePages{}, testOptions())
	_, err = c.Inspect(context.Background(), "missing")
	assert.True(t, clierr.HasCode(err, clierr.FetchFailed))
}
