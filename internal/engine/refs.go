package engine

import (
	"strings"

	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/errors"
)

// resolveRefs returns a copy of a descriptor config with every ref://
// reference replaced by the referenced resolved attribute. Every target
// is guaranteed to precede the descriptor in the execution order; a
// missing attribute is a configuration error.
func resolveRefs(id string, cfg map[string]any, resolved map[string]descriptor.Resolved) (map[string]any, error) {
	out, err := resolveValue(id, cfg, resolved)
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

func resolveValue(id string, v any, resolved map[string]descriptor.Resolved) (any, error) {
	switch val := v.(type) {
	case string:
		if !strings.HasPrefix(val, "ref://") {
			return val, nil
		}
		path := strings.TrimPrefix(val, "ref://")
		parts := strings.SplitN(path, "/", 2)
		if len(parts) != 2 {
			return nil, errors.ForDescriptor(errors.CodeConfiguration, id, "malformed reference "+val)
		}
		target, attr := parts[0], parts[1]
		res, ok := resolved[target]
		if !ok {
			return nil, errors.ForDescriptor(errors.CodeConfiguration, id,
				"reference to unresolved descriptor "+target)
		}
		attrVal, ok := res.Attribute(attr)
		if !ok {
			return nil, errors.ForDescriptor(errors.CodeConfiguration, id,
				"descriptor "+target+" has no attribute "+attr)
		}
		return attrVal, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			rv, err := resolveValue(id, v, resolved)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			rv, err := resolveValue(id, v, resolved)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return val, nil
	}
}
