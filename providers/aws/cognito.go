package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

type userPoolConfig struct {
	PasswordMinLength int32 `json:"password_min_length"`
}

type userPoolClientConfig struct {
	UserPoolID        string   `json:"user_pool_id"`
	GenerateSecret    bool     `json:"generate_secret"`
	ExplicitAuthFlows []string `json:"explicit_auth_flows"`
}

// describeUserPool lists pools and keeps every one whose name equals or
// starts with the descriptor name. Pool names are not unique, so
// multiple candidates are possible and the caller decides what a
// non-singular result means.
func (e *Environment) describeUserPool(ctx context.Context, d *descriptor.Descriptor) ([]cloud.Identity, error) {
	var identities []cloud.Identity

	paginator := cognitoidentityprovider.NewListUserPoolsPaginator(e.cognitoIdpClient, &cognitoidentityprovider.ListUserPoolsInput{
		MaxResults: int32Ptr(60),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list user pools: %w", err)
		}
		for _, pool := range page.UserPools {
			if pool.Name == nil || !poolNameMatches(*pool.Name, d.Name) {
				continue
			}
			arn, err := e.userPoolARN(ctx, *pool.Id)
			if err != nil {
				return nil, err
			}
			identities = append(identities, cloud.Identity{
				Name: *pool.Name,
				ID:   *pool.Id,
				ARN:  arn,
			})
		}
	}
	return identities, nil
}

func (e *Environment) createUserPool(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	var pc userPoolConfig
	if err := decodeConfig(cfg, &pc); err != nil {
		return cloud.Identity{}, err
	}
	if pc.PasswordMinLength == 0 {
		pc.PasswordMinLength = 8
	}

	resp, err := e.cognitoIdpClient.CreateUserPool(ctx, &cognitoidentityprovider.CreateUserPoolInput{
		PoolName: &d.Name,
		Policies: &cognitotypes.UserPoolPolicyType{
			PasswordPolicy: &cognitotypes.PasswordPolicyType{
				MinimumLength: &pc.PasswordMinLength,
			},
		},
	})
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to create user pool: %w", err)
	}

	return cloud.Identity{
		Name: *resp.UserPool.Name,
		ID:   *resp.UserPool.Id,
		ARN:  *resp.UserPool.Arn,
	}, nil
}

func (e *Environment) describeUserPoolClient(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) ([]cloud.Identity, error) {
	var cc userPoolClientConfig
	if err := decodeConfig(cfg, &cc); err != nil {
		return nil, err
	}
	if cc.UserPoolID == "" {
		return nil, nil
	}

	var identities []cloud.Identity
	paginator := cognitoidentityprovider.NewListUserPoolClientsPaginator(e.cognitoIdpClient, &cognitoidentityprovider.ListUserPoolClientsInput{
		UserPoolId: &cc.UserPoolID,
		MaxResults: int32Ptr(60),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list user pool clients: %w", err)
		}
		for _, client := range page.UserPoolClients {
			if client.ClientName == nil || *client.ClientName != d.Name {
				continue
			}
			identities = append(identities, cloud.Identity{
				Name: *client.ClientName,
				ID:   *client.ClientId,
				Extra: map[string]string{
					"user_pool_id": cc.UserPoolID,
				},
			})
		}
	}
	return identities, nil
}

func (e *Environment) createUserPoolClient(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	var cc userPoolClientConfig
	if err := decodeConfig(cfg, &cc); err != nil {
		return cloud.Identity{}, err
	}

	flows := make([]cognitotypes.ExplicitAuthFlowsType, 0, len(cc.ExplicitAuthFlows))
	for _, f := range cc.ExplicitAuthFlows {
		flows = append(flows, cognitotypes.ExplicitAuthFlowsType(f))
	}

	resp, err := e.cognitoIdpClient.CreateUserPoolClient(ctx, &cognitoidentityprovider.CreateUserPoolClientInput{
		UserPoolId:        &cc.UserPoolID,
		ClientName:        &d.Name,
		GenerateSecret:    cc.GenerateSecret,
		ExplicitAuthFlows: flows,
	})
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to create user pool client: %w", err)
	}

	client := resp.UserPoolClient
	identity := cloud.Identity{
		Name: *client.ClientName,
		ID:   *client.ClientId,
		Extra: map[string]string{
			"user_pool_id": cc.UserPoolID,
		},
	}
	if client.ClientSecret != nil {
		identity.Extra["client_secret"] = *client.ClientSecret
	}
	return identity, nil
}

// poolNameMatches is the relaxed candidate filter: case-insensitive
// equality or a shared prefix. Relaxed-only matches are surfaced to the
// caller as candidates rather than skipped.
func poolNameMatches(candidate, desired string) bool {
	return strings.EqualFold(candidate, desired) || strings.HasPrefix(candidate, desired)
}

func (e *Environment) userPoolARN(ctx context.Context, poolID string) (string, error) {
	account, err := e.Account(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("arn:aws:cognito-idp:%s:%s:userpool/%s", e.region, account, poolID), nil
}
