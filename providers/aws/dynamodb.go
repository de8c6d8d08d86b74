package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

type tableConfig struct {
	HashKey     string `json:"hash_key"`
	HashType    string `json:"hash_type"`
	BillingMode string `json:"billing_mode"`
}

// describeTable probes the table by name and compares its key schema
// against the descriptor. A name match with a different hash key is
// still a candidate, flagged so the caller does not treat it as the
// described table.
func (e *Environment) describeTable(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) ([]cloud.Identity, error) {
	var tc tableConfig
	if err := decodeConfig(cfg, &tc); err != nil {
		return nil, err
	}

	resp, err := e.dynamodbClient.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &d.Name})
	if err != nil {
		if isAPIErrorCode(err, "ResourceNotFoundException") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check table existence: %w", err)
	}

	table := resp.Table
	identity := cloud.Identity{
		Name: *table.TableName,
		ID:   *table.TableName,
		ARN:  *table.TableArn,
	}
	if !hashKeyMatches(table.KeySchema, tc.HashKey) {
		identity.Extra = map[string]string{"key_mismatch": "true"}
	}
	return []cloud.Identity{identity}, nil
}

func (e *Environment) createTable(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	var tc tableConfig
	if err := decodeConfig(cfg, &tc); err != nil {
		return cloud.Identity{}, err
	}

	resp, err := e.dynamodbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &d.Name,
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{
				AttributeName: &tc.HashKey,
				AttributeType: ddbtypes.ScalarAttributeType(tc.HashType),
			},
		},
		KeySchema: []ddbtypes.KeySchemaElement{
			{
				AttributeName: &tc.HashKey,
				KeyType:       ddbtypes.KeyTypeHash,
			},
		},
		BillingMode: ddbtypes.BillingMode(tc.BillingMode),
	})
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to create table: %w", err)
	}

	table := resp.TableDescription
	return cloud.Identity{
		Name: *table.TableName,
		ID:   *table.TableName,
		ARN:  *table.TableArn,
	}, nil
}

func hashKeyMatches(schema []ddbtypes.KeySchemaElement, hashKey string) bool {
	for _, elem := range schema {
		if elem.KeyType == ddbtypes.KeyTypeHash {
			return elem.AttributeName != nil && *elem.AttributeName == hashKey
		}
	}
	return false
}
