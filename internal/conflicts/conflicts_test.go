package conflicts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-io/groundwork/internal/descriptor"
)

func TestDetect_PoolNameMismatch(t *testing.T) {
	resolved := map[string]descriptor.Resolved{
		"userpool": {DescriptorID: "userpool", Name: "CustomerSupportGatewayPool"},
	}

	records := Detect(resolved, descriptor.ConsumerExpectations())
	require.Len(t, records, 1)
	assert.Equal(t, "userpool", records[0].DescriptorID)
	assert.Equal(t, "MCPServerPool", records[0].ExpectedNameByConsumer)
	assert.Equal(t, "CustomerSupportGatewayPool", records[0].ActualName)
}

func TestDetect_NoMismatch(t *testing.T) {
	resolved := map[string]descriptor.Resolved{
		"userpool": {DescriptorID: "userpool", Name: "MCPServerPool"},
	}

	assert.Empty(t, Detect(resolved, descriptor.ConsumerExpectations()))
}

func TestDetect_UnresolvedDescriptorIgnored(t *testing.T) {
	// The pool failed to resolve: no actual name, nothing to compare.
	resolved := map[string]descriptor.Resolved{
		"artifact_bucket": {DescriptorID: "artifact_bucket", Name: "acme-artifacts"},
	}

	assert.Empty(t, Detect(resolved, descriptor.ConsumerExpectations()))
}

func TestDetect_SortedByDescriptorID(t *testing.T) {
	resolved := map[string]descriptor.Resolved{
		"b": {DescriptorID: "b", Name: "actual-b"},
		"a": {DescriptorID: "a", Name: "actual-a"},
	}
	expectations := map[string]string{"a": "want-a", "b": "want-b"}

	records := Detect(resolved, expectations)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].DescriptorID)
	assert.Equal(t, "b", records[1].DescriptorID)
}
