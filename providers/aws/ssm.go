package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ParameterStore writes resolved resource identifiers to SSM so other
// tooling can discover them by well-known path.
type ParameterStore struct {
	env *Environment
}

func (s *ParameterStore) Put(ctx context.Context, name, value string) error {
	if err := s.env.wait(ctx); err != nil {
		return err
	}

	_, err := s.env.ssmClient.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      &name,
		Value:     &value,
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", name, err)
	}
	return nil
}
