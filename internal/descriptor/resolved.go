package descriptor

// Resolved is the identity of a reconciled resource. It is produced once
// per descriptor per run and never mutated afterwards. Identities are
// re-derived from the environment on every invocation; nothing is
// persisted locally between runs.
type Resolved struct {
	DescriptorID string
	Name         string // actual name in the environment
	ID           string // provider-assigned identifier (pool id, object key, ...)
	ARN          string // ARN or URL when the service issues one
	CreatedNow   bool
	Extra        map[string]string // kind-specific identities (discovery URL, ...)
}

// Attribute returns a resolved attribute by the names used in config
// references: "name", "id", "arn", or any Extra key.
func (r Resolved) Attribute(key string) (string, bool) {
	switch key {
	case "name":
		return r.Name, true
	case "id":
		return r.ID, true
	case "arn":
		return r.ARN, true
	}
	v, ok := r.Extra[key]
	return v, ok
}

// ParameterEntry is a single value published to the parameter store.
// Entries are overwritten on every successful run; last writer wins.
type ParameterEntry struct {
	Path  string
	Value string
}

// ConflictRecord reports a resolved name diverging from the name a
// downstream consumer hard-codes. Advisory only; it never blocks a run.
type ConflictRecord struct {
	DescriptorID           string
	ExpectedNameByConsumer string
	ActualName             string
}
