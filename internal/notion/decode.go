package notion

import (
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

func decodeTask(p *notionapi.Page, opts Options) (task.Task, error) {
	props := opts.Properties
	t := task.Task{
		ID:        task.NormalizeID(string(p.ID)),
		URL:       p.URL,
		Title:     plainTitle(p.Properties[props.Title]),
		Status:    optionName(p.Properties[props.Status]),
		Priority:  priority(p.Properties[props.Priority], opts.HighPriority),
		Due:       dueDate(p.Properties[props.Due]),
		ProjectID: firstRelation(p.Properties[props.Project]),
	}
	t.Done = opts.DoneStatus != "" && strings.EqualFold(t.Status, opts.DoneStatus)

	if err := task.Validate(&t); err != nil {
		return task.Task{}, fmt.Errorf("invalid task: %w", err)
	}
	return t, nil
}

func decodeProject(p *notionapi.Page, titleProp string) (task.Project, error) {
	proj := task.Project{
		ID:   task.NormalizeID(string(p.ID)),
		Name: plainTitle(p.Properties[titleProp]),
	}
	if err := task.ValidateProject(&proj); err != nil {
		return task.Project{}, fmt.Errorf("invalid project: %w", err)
	}
	return proj, nil
}

func plainTitle(prop notionapi.Property) string {
	var parts []notionapi.RichText
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		parts = v.Title
	case *notionapi.RichTextProperty:
		parts = v.RichText
	default:
		return ""
	}
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(b.String())
}

func optionName(prop notionapi.Property) string {
	switch v := prop.(type) {
	case *notionapi.StatusProperty:
		return v.Status.Name
	case *notionapi.SelectProperty:
		return v.Select.Name
	}
	return ""
}

// priority reads a status, select or checkbox property. A checked box maps
// to the high level; an unchecked one to no priority.
func priority(prop notionapi.Property, high string) string {
	if cb, ok := prop.(*notionapi.CheckboxProperty); ok {
		if cb.Checkbox {
			return high
		}
		return ""
	}
	return optionName(prop)
}

func dueDate(prop notionapi.Property) *date.Date {
	v, ok := prop.(*notionapi.DateProperty)
	if !ok || v.Date == nil || v.Date.Start == nil {
		return nil
	}
	d := date.Of(time.Time(*v.Date.Start))
	return &d
}

// firstRelation returns the first related page id; tasks belong to at most
// one project.
func firstRelation(prop notionapi.Property) string {
	v, ok := prop.(*notionapi.RelationProperty)
	if !ok || len(v.Relation) == 0 {
		return ""
	}
	return task.NormalizeID(string(v.Relation[0].ID))
}
