package aws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

func boolPtr(b bool) *bool {
	return &b
}

func int32Ptr(n int32) *int32 {
	return &n
}

// decodeConfig round-trips a resolved config map into a typed config
// struct via its json tags.
func decodeConfig(cfg map[string]any, out any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// isAPIErrorCode reports whether err is a smithy API error with one of
// the given codes.
func isAPIErrorCode(err error, codes ...string) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	for _, code := range codes {
		if ae.ErrorCode() == code {
			return true
		}
	}
	return false
}
