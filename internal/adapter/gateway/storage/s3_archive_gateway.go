package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
	"github.com/Hell1213/Oss-Dev/internal/pkg/slug"
)

// S3ArchiveGateway uploads finished-run snapshots to S3 for audit.
// Key layout: <prefix><unit-slug>/<snapshotID>.json. Snapshot IDs are
// ULIDs, so lexicographic key order is chronological order.
type S3ArchiveGateway struct {
	client S3API
	bucket string
	prefix string
}

// S3Config holds archive gateway configuration
type S3Config struct {
	Bucket string // S3 bucket name
	Prefix string // Key prefix, e.g. "snapshots/"
	Region string // AWS region (optional, uses default if empty)
}

// NewS3ArchiveGateway creates an archive gateway using the ambient AWS
// credential chain.
func NewS3ArchiveGateway(ctx context.Context, cfg S3Config) (*S3ArchiveGateway, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	return NewS3ArchiveGatewayWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewS3ArchiveGatewayWithClient wires a custom S3 client (tests)
func NewS3ArchiveGatewayWithClient(client S3API, bucket, prefix string) *S3ArchiveGateway {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3ArchiveGateway{client: client, bucket: bucket, prefix: prefix}
}

// ArchiveSnapshot uploads the snapshot as a JSON object
func (g *S3ArchiveGateway) ArchiveSnapshot(ctx context.Context, snap *memory.Snapshot) (*output.ArchiveInfo, error) {
	if snap.UnitID() == "" {
		return nil, fmt.Errorf("archive snapshot: snapshot has no unit ID")
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.SnapshotID, err)
	}

	key := g.keyFor(snap.UnitID(), snap.SnapshotID)
	_, err = g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"unit-id":     snap.UnitID(),
			"snapshot-id": snap.SnapshotID,
			"phase":       string(snap.State.CurrentPhase),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot %s: %w", snap.SnapshotID, err)
	}

	return &output.ArchiveInfo{
		UnitID:      snap.UnitID(),
		SnapshotID:  snap.SnapshotID,
		StoragePath: fmt.Sprintf("s3://%s/%s", g.bucket, key),
		Size:        int64(len(body)),
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// ListArchives lists archived snapshots for a unit, newest first
func (g *S3ArchiveGateway) ListArchives(ctx context.Context, unitID string) ([]*output.ArchiveInfo, error) {
	prefix := g.prefix + slug.Make(unitID) + "/"

	listOutput, err := g.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list archives for %s: %w", unitID, err)
	}

	var out []*output.ArchiveInfo
	for _, obj := range listOutput.Contents {
		key := aws.ToString(obj.Key)
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		info := &output.ArchiveInfo{
			UnitID:      unitID,
			SnapshotID:  strings.TrimSuffix(key[len(prefix):], ".json"),
			StoragePath: fmt.Sprintf("s3://%s/%s", g.bucket, key),
		}
		if obj.Size != nil {
			info.Size = *obj.Size
		}
		if obj.LastModified != nil {
			info.UploadedAt = *obj.LastModified
		}
		out = append(out, info)
	}

	// ULID snapshot IDs sort chronologically; reverse for newest first
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotID > out[j].SnapshotID })
	return out, nil
}

func (g *S3ArchiveGateway) keyFor(unitID, snapshotID string) string {
	return g.prefix + slug.Make(unitID) + "/" + snapshotID + ".json"
}
