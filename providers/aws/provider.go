// Package aws implements the environment ports against the AWS control
// plane. Describe calls are read-only; Create calls are additive only.
// Every call passes through a shared rate limiter to stay under
// control-plane throttling limits.
package aws

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"golang.org/x/time/rate"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

const defaultRateRPS = 20

// Environment is the live AWS implementation of cloud.Environment.
type Environment struct {
	region  string
	limiter *rate.Limiter

	s3Client         *s3.Client
	iamClient        *iam.Client
	lambdaClient     *lambda.Client
	cognitoIdpClient *cognitoidentityprovider.Client
	dynamodbClient   *dynamodb.Client
	ssmClient        *ssm.Client
	stsClient        *sts.Client

	accountOnce sync.Once
	accountID   string
	accountErr  error
}

// New loads the default AWS configuration and builds service clients.
// region may be empty, in which case the SDK's resolved region is used.
// rps caps control-plane calls per second across all services.
func New(ctx context.Context, region string, rps int) (*Environment, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	if region == "" {
		region = cfg.Region
	}
	if rps <= 0 {
		rps = defaultRateRPS
	}

	return &Environment{
		region:           region,
		limiter:          rate.NewLimiter(rate.Limit(rps), rps),
		s3Client:         s3.NewFromConfig(cfg),
		iamClient:        iam.NewFromConfig(cfg),
		lambdaClient:     lambda.NewFromConfig(cfg),
		cognitoIdpClient: cognitoidentityprovider.NewFromConfig(cfg),
		dynamodbClient:   dynamodb.NewFromConfig(cfg),
		ssmClient:        ssm.NewFromConfig(cfg),
		stsClient:        sts.NewFromConfig(cfg),
	}, nil
}

func (e *Environment) Region() string {
	return e.region
}

// Account resolves the caller's account id once per process.
func (e *Environment) Account(ctx context.Context) (string, error) {
	e.accountOnce.Do(func() {
		if err := e.wait(ctx); err != nil {
			e.accountErr = err
			return
		}
		resp, err := e.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			e.accountErr = fmt.Errorf("get caller identity: %w", err)
			return
		}
		e.accountID = *resp.Account
	})
	return e.accountID, e.accountErr
}

// Describe dispatches the kind-specific existence query.
func (e *Environment) Describe(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) ([]cloud.Identity, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}

	switch d.Kind {
	case descriptor.KindBucket:
		return e.describeBucket(ctx, d)
	case descriptor.KindCodeArtifact:
		return e.describeArtifact(ctx, d, cfg)
	case descriptor.KindComputeFunction:
		return e.describeFunction(ctx, d)
	case descriptor.KindRole:
		return e.describeRole(ctx, d)
	case descriptor.KindAuthPool:
		return e.describeUserPool(ctx, d)
	case descriptor.KindAuthClient:
		return e.describeUserPoolClient(ctx, d, cfg)
	case descriptor.KindTable:
		return e.describeTable(ctx, d, cfg)
	}
	return nil, fmt.Errorf("unknown resource kind: %s", d.Kind)
}

// Create dispatches the kind-specific creation call.
func (e *Environment) Create(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	if err := e.wait(ctx); err != nil {
		return cloud.Identity{}, err
	}

	switch d.Kind {
	case descriptor.KindBucket:
		return e.createBucket(ctx, d, cfg)
	case descriptor.KindCodeArtifact:
		return e.createArtifact(ctx, d, cfg)
	case descriptor.KindComputeFunction:
		return e.createFunction(ctx, d, cfg)
	case descriptor.KindRole:
		return e.createRole(ctx, d, cfg)
	case descriptor.KindAuthPool:
		return e.createUserPool(ctx, d, cfg)
	case descriptor.KindAuthClient:
		return e.createUserPoolClient(ctx, d, cfg)
	case descriptor.KindTable:
		return e.createTable(ctx, d, cfg)
	}
	return cloud.Identity{}, fmt.Errorf("unknown resource kind: %s", d.Kind)
}

// Parameters returns the SSM-backed parameter store.
func (e *Environment) Parameters() cloud.ParameterStore {
	return &ParameterStore{env: e}
}

func (e *Environment) wait(ctx context.Context) error {
	return e.limiter.Wait(ctx)
}
