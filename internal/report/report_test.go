package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/engine"
	"github.com/groundwork-io/groundwork/internal/publish"
)

func plainReporter(t *testing.T) (*Reporter, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	return New(&buf), &buf
}

func TestReporter_Reconciliation(t *testing.T) {
	r, buf := plainReporter(t)

	r.Reconciliation(&engine.Result{Outcomes: []engine.Outcome{
		{DescriptorID: "bucket", Status: engine.StatusCreated},
		{DescriptorID: "pool", Status: engine.StatusReused},
		{DescriptorID: "role", Status: engine.StatusFailed, Err: assert.AnError},
		{DescriptorID: "fn", Status: engine.StatusSkipped, Err: assert.AnError},
	}})

	out := buf.String()
	assert.Contains(t, out, "created  bucket")
	assert.Contains(t, out, "reused   pool")
	assert.Contains(t, out, "failed   role")
	assert.Contains(t, out, "skipped  fn")
	assert.Contains(t, out, "1 created, 1 reused, 2 failed")
}

func TestReporter_Publication(t *testing.T) {
	r, buf := plainReporter(t)

	r.Publication([]publish.EntryOutcome{
		{Entry: descriptor.ParameterEntry{Path: "/p/bucket_name", Value: "b"}},
		{Entry: descriptor.ParameterEntry{Path: "/p/pool_id"}, Err: assert.AnError},
	})

	out := buf.String()
	assert.Contains(t, out, "written  /p/bucket_name = b")
	assert.Contains(t, out, "failed   /p/pool_id")
}

func TestReporter_Conflicts(t *testing.T) {
	r, buf := plainReporter(t)

	r.Conflicts([]descriptor.ConflictRecord{{
		DescriptorID:           "userpool",
		ExpectedNameByConsumer: "MCPServerPool",
		ActualName:             "CustomerSupportGatewayPool",
	}})

	out := buf.String()
	assert.Contains(t, out, "userpool")
	assert.Contains(t, out, "MCPServerPool")
	assert.Contains(t, out, "CustomerSupportGatewayPool")
	assert.Contains(t, out, "renaming the descriptor")
}

func TestReporter_ConflictsEmpty(t *testing.T) {
	r, buf := plainReporter(t)
	r.Conflicts(nil)
	assert.Empty(t, buf.String())
}

func TestReporter_Preview(t *testing.T) {
	r, buf := plainReporter(t)

	r.Preview([]engine.PreviewEntry{
		{DescriptorID: "bucket", Name: "b", Action: engine.PreviewCreate},
		{DescriptorID: "pool", Name: "p", Action: engine.PreviewReuse},
		{DescriptorID: "fn", Name: "f", Action: engine.PreviewCreate, Detail: "pending dependency resolution"},
		{DescriptorID: "table", Name: "t", Action: engine.PreviewConflict, Detail: "candidates: t, t-old"},
	})

	out := buf.String()
	assert.Contains(t, out, "create   bucket (b)")
	assert.Contains(t, out, "reuse    pool (p)")
	assert.Contains(t, out, "pending dependency resolution")
	assert.Contains(t, out, "conflict table (t): candidates: t, t-old")
}
