package item

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/signet/internal/problem"
)

//go:embed schema.cue
var schemaCUE string

// Decoder turns signed item payloads into decoded items. Payloads are
// JSON documents validated against the embedded CUE schema; validation
// failures carry the offending location so callers can fix input.
//
// A Decoder is not safe for concurrent use; the commit protocol is the
// single caller and is already serialized.
type Decoder struct {
	ctx      *cue.Context
	workflow cue.Value // #Workflow schema definition
}

// NewDecoder compiles the embedded schema.
// Panics if the schema itself does not compile (a build defect, not input).
func NewDecoder() *Decoder {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("item: embedded schema does not compile: %v", err))
	}
	wf := schema.LookupPath(cue.ParsePath("#Workflow"))
	if !wf.Exists() {
		panic("item: embedded schema has no #Workflow definition")
	}
	return &Decoder{ctx: ctx, workflow: wf}
}

// Decode parses a signed payload into a Workflow.
//
// Failure modes, in checking order:
//   - ParseFailure: the payload is not well-formed JSON (message carries
//     the line/column of the syntax error)
//   - DecodeFailure: the JSON is not a known item type, or does not
//     satisfy the workflow schema (message names the offending fragment)
func (d *Decoder) Decode(payload string) (*Workflow, error) {
	expr, err := cuejson.Extract("payload.json", []byte(payload))
	if err != nil {
		return nil, problem.New(problem.CodeParseFailure, "invalid JSON: %s", locatedMessage(err))
	}

	data := d.ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return nil, problem.New(problem.CodeParseFailure, "invalid JSON: %s", locatedMessage(err))
	}

	typ, err := data.LookupPath(cue.ParsePath("TYPE")).String()
	if err != nil {
		return nil, problem.New(problem.CodeDecodeFailure, "item payload has no TYPE discriminator")
	}
	if Kind(typ) != KindWorkflow {
		return nil, problem.New(problem.CodeDecodeFailure, "unknown item type %q", typ)
	}

	unified := d.workflow.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, problem.New(problem.CodeDecodeFailure, "workflow does not satisfy schema: %s", locatedMessage(err))
	}

	var raw struct {
		Path         string        `json:"path"`
		VersionID    string        `json:"versionId"`
		Instructions []Instruction `json:"instructions"`
		TimeZone     string        `json:"timeZone"`
	}
	if err := unified.Decode(&raw); err != nil {
		return nil, problem.New(problem.CodeDecodeFailure, "decode workflow: %s", locatedMessage(err))
	}

	path, err := NewWorkflowPath(raw.Path)
	if err != nil {
		return nil, problem.New(problem.CodeDecodeFailure, "%v", err)
	}

	return &Workflow{
		ID:           ID{Path: path, Version: VersionID(raw.VersionID)},
		Instructions: raw.Instructions,
		TimeZone:     raw.TimeZone,
	}, nil
}

// locatedMessage renders a CUE error with its position (line/column)
// when one is recorded, or falls back to the plain message.
func locatedMessage(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	first := errs[0]
	pos := first.Position()
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if len(first.Path()) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(first.Path(), "."), msg)
	}
	if pos.IsValid() {
		return fmt.Sprintf("%d:%d: %s", pos.Line(), pos.Column(), msg)
	}
	return msg
}
