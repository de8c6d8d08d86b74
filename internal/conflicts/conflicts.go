// Package conflicts detects naming mismatches between resolved
// resources and the names downstream consumers hard-code. Detection is
// purely advisory: records are reported for operator resolution and
// never mutate or fail a run.
package conflicts

import (
	"sort"

	"github.com/groundwork-io/groundwork/internal/descriptor"
)

// Detect compares every resolved resource against the consumer
// expectation for its descriptor id, returning one record per mismatch.
// Expectations for descriptors that did not resolve are ignored:
// without an actual name there is nothing to compare.
func Detect(resolved map[string]descriptor.Resolved, expectations map[string]string) []descriptor.ConflictRecord {
	var records []descriptor.ConflictRecord
	for id, expected := range expectations {
		res, ok := resolved[id]
		if !ok {
			continue
		}
		if res.Name != expected {
			records = append(records, descriptor.ConflictRecord{
				DescriptorID:           id,
				ExpectedNameByConsumer: expected,
				ActualName:             res.Name,
			})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].DescriptorID < records[j].DescriptorID })
	return records
}
