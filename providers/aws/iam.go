package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

type roleConfig struct {
	TrustPolicy    string `json:"trust_policy"`
	PolicyName     string `json:"policy_name"`
	PolicyDocument string `json:"policy_document"`
	Stack          string `json:"stack"`
}

func (e *Environment) describeRole(ctx context.Context, d *descriptor.Descriptor) ([]cloud.Identity, error) {
	resp, err := e.iamClient.GetRole(ctx, &iam.GetRoleInput{RoleName: &d.Name})
	if err != nil {
		if isAPIErrorCode(err, "NoSuchEntity", "NoSuchEntityException") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check role existence: %w", err)
	}

	role := resp.Role
	identity := cloud.Identity{Name: *role.RoleName, ID: *role.RoleId, ARN: *role.Arn}
	return []cloud.Identity{identity}, nil
}

// createRole creates the execution role with its inline trust policy,
// then ensures the managed permissions policy exists and is attached.
// Each step tolerates the entity already existing so a partially
// created role from an earlier run converges instead of failing.
func (e *Environment) createRole(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	var rc roleConfig
	if err := decodeConfig(cfg, &rc); err != nil {
		return cloud.Identity{}, err
	}

	resp, err := e.iamClient.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 &d.Name,
		AssumeRolePolicyDocument: &rc.TrustPolicy,
	})
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to create role: %w", err)
	}
	identity := cloud.Identity{
		Name: *resp.Role.RoleName,
		ID:   *resp.Role.RoleId,
		ARN:  *resp.Role.Arn,
	}

	if rc.PolicyName != "" {
		policyARN, err := e.ensurePolicy(ctx, rc.PolicyName, rc.PolicyDocument)
		if err != nil {
			return cloud.Identity{}, err
		}
		_, err = e.iamClient.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  &d.Name,
			PolicyArn: &policyARN,
		})
		if err != nil {
			return cloud.Identity{}, fmt.Errorf("failed to attach policy %s: %w", rc.PolicyName, err)
		}
	}

	return identity, nil
}

func (e *Environment) ensurePolicy(ctx context.Context, name, document string) (string, error) {
	account, err := e.Account(ctx)
	if err != nil {
		return "", err
	}
	policyARN := fmt.Sprintf("arn:aws:iam::%s:policy/%s", account, name)

	_, err = e.iamClient.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: &policyARN})
	if err == nil {
		return policyARN, nil
	}
	if !isAPIErrorCode(err, "NoSuchEntity", "NoSuchEntityException") {
		return "", fmt.Errorf("failed to check policy existence: %w", err)
	}

	resp, err := e.iamClient.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     &name,
		PolicyDocument: &document,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create policy %s: %w", name, err)
	}
	return *resp.Policy.Arn, nil
}
