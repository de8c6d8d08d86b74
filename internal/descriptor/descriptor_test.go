package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-io/groundwork/internal/errors"
)

func validSet() *Set {
	return &Set{Items: []*Descriptor{
		{ID: "bucket", Kind: KindBucket, Name: "b"},
		{ID: "fn", Kind: KindComputeFunction, Name: "f", DependsOn: []string{"bucket"}},
	}}
}

func TestSet_Validate(t *testing.T) {
	require.NoError(t, validSet().Validate())
}

func TestSet_ValidateRejectsDuplicates(t *testing.T) {
	set := validSet()
	set.Items = append(set.Items, &Descriptor{ID: "bucket", Kind: KindBucket, Name: "other"})

	err := set.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfiguration))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSet_ValidateRejectsEmptyFields(t *testing.T) {
	for _, tc := range []struct {
		name string
		d    *Descriptor
	}{
		{"empty id", &Descriptor{Kind: KindBucket, Name: "x"}},
		{"empty name", &Descriptor{ID: "x", Kind: KindBucket}},
		{"empty kind", &Descriptor{ID: "x", Name: "x"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			set := &Set{Items: []*Descriptor{tc.d}}
			err := set.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeConfiguration))
		})
	}
}

func TestSet_ValidateRejectsBadDependencies(t *testing.T) {
	set := &Set{Items: []*Descriptor{
		{ID: "a", Kind: KindBucket, Name: "a", DependsOn: []string{"ghost"}},
	}}
	err := set.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")

	set = &Set{Items: []*Descriptor{
		{ID: "a", Kind: KindBucket, Name: "a", DependsOn: []string{"a"}},
	}}
	err = set.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "itself")
}

func TestSet_ByID(t *testing.T) {
	set := validSet()
	require.NotNil(t, set.ByID("bucket"))
	assert.Equal(t, KindBucket, set.ByID("bucket").Kind)
	assert.Nil(t, set.ByID("missing"))
}

func TestResolved_Attribute(t *testing.T) {
	r := Resolved{
		Name:  "pool",
		ID:    "us-east-1_abc",
		ARN:   "arn:aws:cognito-idp:us-east-1:123456789012:userpool/us-east-1_abc",
		Extra: map[string]string{"client_secret": "s"},
	}

	for key, want := range map[string]string{
		"name":          "pool",
		"id":            "us-east-1_abc",
		"arn":           r.ARN,
		"client_secret": "s",
	} {
		v, ok := r.Attribute(key)
		require.True(t, ok, "attribute %s", key)
		assert.Equal(t, want, v)
	}

	_, ok := r.Attribute("nope")
	assert.False(t, ok)
}
