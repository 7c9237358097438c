package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr string
	}{
		{name: "valid", task: Task{ID: "abc", Title: "Write report", URL: "https://www.notion.so/abc"}},
		{name: "no url is fine", task: Task{ID: "abc", Title: "Write report"}},
		{name: "missing id", task: Task{Title: "Write report"}, wantErr: "Task.ID"},
		{name: "missing title", task: Task{ID: "abc"}, wantErr: "Task.Title"},
		{name: "bad url", task: Task{ID: "abc", Title: "x", URL: "not a url"}, wantErr: "Task.URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.task)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProject(t *testing.T) {
	assert.NoError(t, ValidateProject(&Project{ID: "p1", Name: "Home"}))
	assert.Error(t, ValidateProject(&Project{ID: "p1"}))
}

func TestHasPriority(t *testing.T) {
	tk := &Task{Priority: "high"}
	assert.True(t, tk.HasPriority("High"))
	assert.False(t, tk.HasPriority("Low"))
	assert.False(t, (&Task{}).HasPriority(""))
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t,
		NormalizeID("1a2b3c4d5e6f47a8b9c0d1e2f3a4b5c6"),
		NormalizeID("1A2B3C4D-5E6F-47A8-B9C0-D1E2F3A4B5C6"))
}

func TestValidateBucket(t *testing.T) {
	allowed := []string{"high-priority", "due-today"}
	assert.NoError(t, ValidateBucket("due-today", allowed))

	err := ValidateBucket("someday", allowed)
	require.Error(t, err)
	assert.True(t, clierr.HasCode(err, clierr.InvalidBucket))
}
