// Package report renders the terminal summary of a run: every
// descriptor's outcome, every publication result, and every naming
// conflict, so the operator sees the complete picture in one pass.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/engine"
	"github.com/groundwork-io/groundwork/internal/publish"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// Reporter writes run summaries to a single destination.
type Reporter struct {
	out io.Writer
}

func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Reconciliation prints the terminal state of every descriptor.
func (r *Reporter) Reconciliation(res *engine.Result) {
	fmt.Fprintln(r.out, "\nResources:")
	var created, reused, failed int
	for _, o := range res.Outcomes {
		switch o.Status {
		case engine.StatusCreated:
			created++
			fmt.Fprintf(r.out, "  %s  %s\n", green("created"), o.DescriptorID)
		case engine.StatusReused:
			reused++
			fmt.Fprintf(r.out, "  %s   %s\n", cyan("reused"), o.DescriptorID)
		case engine.StatusSkipped:
			failed++
			fmt.Fprintf(r.out, "  %s  %s (%v)\n", yellow("skipped"), o.DescriptorID, o.Err)
		case engine.StatusFailed:
			failed++
			fmt.Fprintf(r.out, "  %s   %s (%v)\n", red("failed"), o.DescriptorID, o.Err)
		}
	}
	fmt.Fprintf(r.out, "Summary: %d created, %d reused, %d failed.\n", created, reused, failed)
}

// Preview prints what a reconcile run would do, without doing it.
func (r *Reporter) Preview(entries []engine.PreviewEntry) {
	fmt.Fprintln(r.out, "Plan:")
	for _, e := range entries {
		switch e.Action {
		case engine.PreviewReuse:
			fmt.Fprintf(r.out, "  %s    %s (%s)\n", cyan("reuse"), e.DescriptorID, e.Name)
		case engine.PreviewConflict:
			fmt.Fprintf(r.out, "  %s %s (%s): %s\n", red("conflict"), e.DescriptorID, e.Name, e.Detail)
		default:
			if e.Detail != "" {
				fmt.Fprintf(r.out, "  %s   %s (%s): %s\n", green("create"), e.DescriptorID, e.Name, e.Detail)
			} else {
				fmt.Fprintf(r.out, "  %s   %s (%s)\n", green("create"), e.DescriptorID, e.Name)
			}
		}
	}
}

// Publication prints per-entry publish outcomes.
func (r *Reporter) Publication(outcomes []publish.EntryOutcome) {
	if len(outcomes) == 0 {
		return
	}
	fmt.Fprintln(r.out, "\nParameters:")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(r.out, "  %s   %s (%v)\n", red("failed"), o.Entry.Path, o.Err)
			continue
		}
		fmt.Fprintf(r.out, "  %s  %s = %s\n", green("written"), o.Entry.Path, o.Entry.Value)
	}
}

// Conflicts prints advisory naming conflicts with the operator's
// options. The orchestrator applies none of them automatically.
func (r *Reporter) Conflicts(records []descriptor.ConflictRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintln(r.out, "\nNaming conflicts (advisory):")
	for _, c := range records {
		fmt.Fprintf(r.out, "  %s %s: resolved name %q, consumer expects %q\n",
			yellow("conflict"), c.DescriptorID, c.ActualName, c.ExpectedNameByConsumer)
	}
	fmt.Fprintln(r.out, "  Resolve by renaming the descriptor, updating the consumer, or adding an alias mapping.")
}
