package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

type functionConfig struct {
	Runtime        string `json:"runtime"`
	Handler        string `json:"handler"`
	RoleARN        string `json:"role"`
	CodeBucket     string `json:"bucket"`
	CodeKey        string `json:"key"`
	TimeoutSeconds int32  `json:"timeout_seconds"`
	MemoryMB       int32  `json:"memory_mb"`
}

func (e *Environment) describeFunction(ctx context.Context, d *descriptor.Descriptor) ([]cloud.Identity, error) {
	resp, err := e.lambdaClient.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: &d.Name})
	if err != nil {
		if isAPIErrorCode(err, "ResourceNotFoundException") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check function existence: %w", err)
	}

	conf := resp.Configuration
	identity := cloud.Identity{
		Name: *conf.FunctionName,
		ID:   *conf.FunctionName,
		ARN:  *conf.FunctionArn,
	}
	return []cloud.Identity{identity}, nil
}

func (e *Environment) createFunction(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	var fc functionConfig
	if err := decodeConfig(cfg, &fc); err != nil {
		return cloud.Identity{}, err
	}
	if fc.TimeoutSeconds == 0 {
		fc.TimeoutSeconds = 30
	}
	if fc.MemoryMB == 0 {
		fc.MemoryMB = 256
	}

	resp, err := e.lambdaClient.CreateFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: &d.Name,
		Runtime:      lambdatypes.Runtime(fc.Runtime),
		Handler:      &fc.Handler,
		Role:         &fc.RoleARN,
		Code: &lambdatypes.FunctionCode{
			S3Bucket: &fc.CodeBucket,
			S3Key:    &fc.CodeKey,
		},
		Timeout:    &fc.TimeoutSeconds,
		MemorySize: &fc.MemoryMB,
	})
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to create function: %w", err)
	}

	return cloud.Identity{
		Name: *resp.FunctionName,
		ID:   *resp.FunctionName,
		ARN:  *resp.FunctionArn,
	}, nil
}
