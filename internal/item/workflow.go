package item

// Instruction is one step of a workflow definition. Instructions are
// carried opaquely; the orchestrator's execution semantics are outside
// this repository. The "TYPE" field names the instruction kind.
type Instruction map[string]any

// Workflow is a decoded, versioned workflow definition together with
// its revision identity. Immutable after creation: the repository and
// replicator hand out the same value to all readers.
type Workflow struct {
	ID           ID            `json:"id"`
	Instructions []Instruction `json:"instructions"`
	TimeZone     string        `json:"timeZone,omitempty"`
}

// Path returns the workflow's stable path.
func (w *Workflow) Path() Path {
	return w.ID.Path
}

// Version returns the version id the workflow was committed under.
func (w *Workflow) Version() VersionID {
	return w.ID.Version
}
