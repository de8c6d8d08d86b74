package descriptor

import "fmt"

// CatalogParams scope the default catalog to one environment.
type CatalogParams struct {
	NamePrefix string // resource-name prefix, e.g. "agentcore"
	InfraStack string // logical stack id for infra resources
	AuthStack  string // logical stack id for auth resources
	Region     string
	Account    string
	SourceDir  string // tool bundle source tree
}

// Catalog returns the descriptor set for the multi-agent substrate: the
// artifact bucket, the packaged tool bundle, the runtime execution role,
// the tool Lambda, the gateway auth pool and its machine client, and the
// support-tickets table.
func Catalog(p CatalogParams) *Set {
	return &Set{Items: []*Descriptor{
		{
			ID:   "artifact_bucket",
			Kind: KindBucket,
			Name: fmt.Sprintf("%s-artifacts-%s-%s", p.NamePrefix, p.Region, p.Account),
			Config: map[string]any{
				"stack": p.InfraStack,
			},
		},
		{
			ID:        "tool_bundle",
			Kind:      KindCodeArtifact,
			Name:      fmt.Sprintf("%s-tool-bundle", p.NamePrefix),
			DependsOn: []string{"artifact_bucket"},
			Config: map[string]any{
				"stack":      p.InfraStack,
				"source_dir": p.SourceDir,
				"bucket":     "ref://artifact_bucket/name",
				"key_prefix": "bundles/",
			},
		},
		{
			ID:   "runtime_execution_role",
			Kind: KindRole,
			Name: fmt.Sprintf("AgentCoreRole-%s", p.Region),
			Config: map[string]any{
				"stack":           p.InfraStack,
				"trust_policy":    runtimeTrustPolicy(p.Region, p.Account),
				"policy_name":     fmt.Sprintf("AgentCorePolicy-%s", p.Region),
				"policy_document": runtimePermissionsPolicy(p.Region, p.Account),
			},
		},
		{
			ID:        "tool_function",
			Kind:      KindComputeFunction,
			Name:      fmt.Sprintf("%s-customer-support-tools", p.NamePrefix),
			DependsOn: []string{"tool_bundle", "runtime_execution_role"},
			Config: map[string]any{
				"stack":   p.InfraStack,
				"runtime": "python3.12",
				"handler": "lambda_function.lambda_handler",
				"role":    "ref://runtime_execution_role/arn",
				"bucket":  "ref://artifact_bucket/name",
				"key":     "ref://tool_bundle/id",
			},
		},
		{
			ID:   "userpool",
			Kind: KindAuthPool,
			Name: "CustomerSupportGatewayPool",
			Config: map[string]any{
				"stack":               p.AuthStack,
				"password_min_length": 8,
			},
		},
		{
			ID:        "machine_client",
			Kind:      KindAuthClient,
			Name:      "CustomerSupportGatewayClient",
			DependsOn: []string{"userpool"},
			Config: map[string]any{
				"stack":           p.AuthStack,
				"user_pool_id":    "ref://userpool/id",
				"generate_secret": true,
				"explicit_auth_flows": []any{
					"ALLOW_USER_PASSWORD_AUTH",
					"ALLOW_REFRESH_TOKEN_AUTH",
					"ALLOW_USER_SRP_AUTH",
				},
			},
		},
		{
			ID:   "support_table",
			Kind: KindTable,
			Name: fmt.Sprintf("%s-support-tickets", p.NamePrefix),
			Config: map[string]any{
				"stack":        p.InfraStack,
				"hash_key":     "ticket_id",
				"hash_type":    "S",
				"billing_mode": "PAY_PER_REQUEST",
			},
		},
	}}
}

// ConsumerExpectations maps descriptor ids to the names downstream
// artifacts hard-code. The gateway tooling still expects the original
// pool name; the mismatch is reported, never repaired automatically.
func ConsumerExpectations() map[string]string {
	return map[string]string{
		"userpool": "MCPServerPool",
	}
}

func runtimeTrustPolicy(region, account string) string {
	return fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "AssumeRolePolicy",
      "Effect": "Allow",
      "Principal": {"Service": "bedrock-agentcore.amazonaws.com"},
      "Action": "sts:AssumeRole",
      "Condition": {
        "StringEquals": {"aws:SourceAccount": "%[2]s"},
        "ArnLike": {"aws:SourceArn": "arn:aws:bedrock-agentcore:%[1]s:%[2]s:*"}
      }
    }
  ]
}`, region, account)
}

func runtimePermissionsPolicy(region, account string) string {
	return fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "ECRImageAccess",
      "Effect": "Allow",
      "Action": ["ecr:BatchGetImage", "ecr:GetDownloadUrlForLayer"],
      "Resource": ["arn:aws:ecr:%[1]s:%[2]s:repository/*"]
    },
    {
      "Effect": "Allow",
      "Action": ["logs:DescribeLogStreams", "logs:CreateLogGroup", "logs:DescribeLogGroups", "logs:CreateLogStream", "logs:PutLogEvents"],
      "Resource": ["arn:aws:logs:%[1]s:%[2]s:log-group:*"]
    },
    {
      "Sid": "ECRTokenAccess",
      "Effect": "Allow",
      "Action": ["ecr:GetAuthorizationToken"],
      "Resource": "*"
    },
    {
      "Effect": "Allow",
      "Action": ["xray:PutTraceSegments", "xray:PutTelemetryRecords", "xray:GetSamplingRules", "xray:GetSamplingTargets"],
      "Resource": ["*"]
    },
    {
      "Effect": "Allow",
      "Resource": "*",
      "Action": "cloudwatch:PutMetricData",
      "Condition": {"StringEquals": {"cloudwatch:namespace": "bedrock-agentcore"}}
    },
    {
      "Sid": "GetAgentAccessToken",
      "Effect": "Allow",
      "Action": [
        "bedrock-agentcore:GetWorkloadAccessToken",
        "bedrock-agentcore:GetWorkloadAccessTokenForJWT",
        "bedrock-agentcore:GetWorkloadAccessTokenForUserId"
      ],
      "Resource": ["arn:aws:bedrock-agentcore:%[1]s:%[2]s:workload-identity-directory/default"]
    },
    {
      "Sid": "BedrockModelInvocation",
      "Effect": "Allow",
      "Action": ["bedrock:InvokeModel", "bedrock:InvokeModelWithResponseStream", "bedrock:ApplyGuardrail", "bedrock:Retrieve"],
      "Resource": ["arn:aws:bedrock:*::foundation-model/*", "arn:aws:bedrock:%[1]s:%[2]s:*"]
    },
    {
      "Sid": "AllowAgentToUseMemory",
      "Effect": "Allow",
      "Action": [
        "bedrock-agentcore:CreateEvent",
        "bedrock-agentcore:GetMemoryRecord",
        "bedrock-agentcore:GetMemory",
        "bedrock-agentcore:RetrieveMemoryRecords",
        "bedrock-agentcore:ListMemoryRecords"
      ],
      "Resource": ["arn:aws:bedrock-agentcore:%[1]s:%[2]s:*"]
    },
    {
      "Sid": "ReadPublishedParameters",
      "Effect": "Allow",
      "Action": ["ssm:GetParameter"],
      "Resource": ["arn:aws:ssm:%[1]s:%[2]s:parameter/app/*"]
    }
  ]
}`, region, account)
}
