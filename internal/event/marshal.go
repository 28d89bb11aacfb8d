package event

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/signet/internal/item"
)

// wireEvent is the persisted journal form of an Event. The TYPE field
// discriminates; remaining fields are present per type.
type wireEvent struct {
	Type      Type               `json:"TYPE"`
	VersionID item.VersionID     `json:"versionId,omitempty"`
	Path      string             `json:"path,omitempty"`
	Workflow  *wireWorkflow      `json:"workflow,omitempty"`
}

type wireWorkflow struct {
	Instructions []item.Instruction `json:"instructions"`
	TimeZone     string             `json:"timeZone,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{Type: e.Type}
	switch e.Type {
	case TypeVersionAdded:
		w.VersionID = e.Version
	case TypeItemAdded, TypeItemChanged:
		if e.Workflow == nil {
			return nil, fmt.Errorf("marshal %s: missing workflow content", e.Type)
		}
		w.Path = e.ID.Path.Name
		w.VersionID = e.ID.Version
		w.Workflow = &wireWorkflow{
			Instructions: e.Workflow.Instructions,
			TimeZone:     e.Workflow.TimeZone,
		}
	case TypeItemDeleted:
		w.Path = e.Path.Name
	default:
		return nil, fmt.Errorf("marshal event: unknown type %q", e.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	switch w.Type {
	case TypeVersionAdded:
		if w.VersionID == "" {
			return fmt.Errorf("unmarshal %s: missing versionId", w.Type)
		}
		*e = VersionAdded(w.VersionID)
		return nil

	case TypeItemAdded, TypeItemChanged:
		path, err := item.NewWorkflowPath(w.Path)
		if err != nil {
			return fmt.Errorf("unmarshal %s: %w", w.Type, err)
		}
		if w.VersionID == "" {
			return fmt.Errorf("unmarshal %s: missing versionId", w.Type)
		}
		if w.Workflow == nil {
			return fmt.Errorf("unmarshal %s: missing workflow content", w.Type)
		}
		wf := &item.Workflow{
			ID:           item.ID{Path: path, Version: w.VersionID},
			Instructions: w.Workflow.Instructions,
			TimeZone:     w.Workflow.TimeZone,
		}
		if w.Type == TypeItemAdded {
			*e = ItemAdded(wf)
		} else {
			*e = ItemChanged(wf)
		}
		return nil

	case TypeItemDeleted:
		path, err := item.NewWorkflowPath(w.Path)
		if err != nil {
			return fmt.Errorf("unmarshal %s: %w", w.Type, err)
		}
		*e = ItemDeleted(path)
		return nil

	default:
		return fmt.Errorf("unmarshal event: unknown type %q", w.Type)
	}
}
