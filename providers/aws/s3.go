package aws

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

type artifactConfig struct {
	Bucket         string `json:"bucket"`
	KeyPrefix      string `json:"key_prefix"`
	ArtifactPath   string `json:"artifact_path"`
	ArtifactDigest string `json:"artifact_digest"`
}

// describeBucket probes bucket existence by name. Bucket names are
// globally unique, so at most one candidate exists.
func (e *Environment) describeBucket(ctx context.Context, d *descriptor.Descriptor) ([]cloud.Identity, error) {
	_, err := e.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &d.Name})
	if err != nil {
		if isAPIErrorCode(err, "NotFound", "NoSuchBucket") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	return []cloud.Identity{bucketIdentity(d.Name)}, nil
}

func (e *Environment) createBucket(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	input := &s3.CreateBucketInput{Bucket: &d.Name}
	if e.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(e.region),
		}
	}

	_, err := e.s3Client.CreateBucket(ctx, input)
	if err != nil {
		// A bucket owned by this account appearing between the probe
		// and the create is the known race window; reuse it.
		if !isAPIErrorCode(err, "BucketAlreadyOwnedByYou") {
			return cloud.Identity{}, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return bucketIdentity(d.Name), nil
}

// describeArtifact probes for a previously uploaded bundle under its
// content-addressed key.
func (e *Environment) describeArtifact(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) ([]cloud.Identity, error) {
	var ac artifactConfig
	if err := decodeConfig(cfg, &ac); err != nil {
		return nil, err
	}
	if ac.Bucket == "" || ac.ArtifactDigest == "" {
		return nil, nil
	}
	key := cloud.ArtifactObjectKey(ac.KeyPrefix, d.Name, ac.ArtifactDigest)

	_, err := e.s3Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &ac.Bucket, Key: &key})
	if err != nil {
		if isAPIErrorCode(err, "NotFound", "NoSuchKey") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check artifact existence: %w", err)
	}
	return []cloud.Identity{artifactIdentity(d.Name, ac.Bucket, key)}, nil
}

func (e *Environment) createArtifact(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	var ac artifactConfig
	if err := decodeConfig(cfg, &ac); err != nil {
		return cloud.Identity{}, err
	}
	key := cloud.ArtifactObjectKey(ac.KeyPrefix, d.Name, ac.ArtifactDigest)

	body, err := os.Open(ac.ArtifactPath)
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer body.Close()

	_, err = e.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &ac.Bucket,
		Key:    &key,
		Body:   body,
	})
	if err != nil {
		return cloud.Identity{}, fmt.Errorf("failed to upload bundle: %w", err)
	}

	return artifactIdentity(d.Name, ac.Bucket, key), nil
}

func bucketIdentity(name string) cloud.Identity {
	return cloud.Identity{
		Name: name,
		ID:   name,
		ARN:  "arn:aws:s3:::" + name,
	}
}

func artifactIdentity(name, bucket, key string) cloud.Identity {
	return cloud.Identity{
		Name: name,
		ID:   key,
		ARN:  fmt.Sprintf("arn:aws:s3:::%s/%s", bucket, key),
	}
}
