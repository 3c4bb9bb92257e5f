// Package blob stores uploaded files in S3, or fabricates plausible keys
// when no bucket is reachable so the rest of the app works offline.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Kind selects the key prefix for an upload.
type Kind string

const (
	KindResume      Kind = "resumes"
	KindCoverLetter Kind = "cover_letters"
	KindScreenshot  Kind = "job_screenshots"
)

const keyRoot = "jobtrack"

// Config carries the bucket coordinates. Any blank field forces stub mode.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Info describes the adapter state for health and status output.
type Info struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Mode   string `json:"mode"`
}

// ObjectInfo is one stored file.
type ObjectInfo struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

// Bucket uploads and serves files. When S3 is unreachable it degrades to a
// stub that fabricates keys and URLs instead of failing requests.
type Bucket struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	stub    bool
	client  *s3.Client
	presign *s3.PresignClient
}

// Open probes the bucket and returns an adapter in live or stub mode. It
// never fails; a missing or unreachable bucket just means stub mode.
func Open(ctx context.Context, cfg Config, log *slog.Logger) *Bucket {
	b := &Bucket{cfg: cfg, log: log}

	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		log.Info("blob storage in stub mode", "reason", "credentials not configured")
		b.stub = true
		return b
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		log.Warn("blob storage in stub mode", "reason", "aws config", "error", err)
		b.stub = true
		return b
	}

	b.client = s3.NewFromConfig(awsCfg)
	b.presign = s3.NewPresignClient(b.client)

	probe, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := b.client.HeadBucket(probe, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		log.Warn("blob storage in stub mode", "reason", "bucket unreachable", "bucket", cfg.Bucket, "error", err)
		b.stub = true
		return b
	}

	log.Info("blob storage connected", "bucket", cfg.Bucket, "region", cfg.Region)
	return b
}

// Info reports the current mode without touching the network.
func (b *Bucket) Info() Info {
	b.mu.Lock()
	defer b.mu.Unlock()
	mode := "live"
	if b.stub {
		mode = "stub"
	}
	bucket := b.cfg.Bucket
	if bucket == "" {
		bucket = "(none)"
	}
	return Info{Bucket: bucket, Region: b.cfg.Region, Mode: mode}
}

func (b *Bucket) isStub() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stub
}

// degrade flips the adapter to stub after a live call fails, so one outage
// does not fail every later request.
func (b *Bucket) degrade(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stub {
		b.log.Warn("blob storage degraded to stub mode", "op", op, "error", err)
		b.stub = true
	}
}

// Key builds the object key for a logical filename: the original base name,
// a timestamp, and a short unique suffix under the kind's prefix.
func Key(kind Kind, filename string) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(path.Base(filename), ext)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	stamp := time.Now().Format("20060102_150405")
	short := uuid.NewString()[:8]
	return fmt.Sprintf("%s/%s/%s_%s_%s%s", keyRoot, kind, base, stamp, short, ext)
}

// Upload stores the reader's content and returns the object key. In stub
// mode the content is drained and a key fabricated.
func (b *Bucket) Upload(ctx context.Context, r io.Reader, filename string, kind Kind) (string, error) {
	key := Key(kind, filename)
	if b.isStub() {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return "", fmt.Errorf("reading upload: %w", err)
		}
		b.log.Debug("stub upload", "key", key)
		return key, nil
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		b.degrade("upload", err)
		return key, nil
	}
	return key, nil
}

// DownloadURL returns a presigned GET URL for the key, or a fabricated URL
// in stub mode.
func (b *Bucket) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if b.isStub() {
		return b.stubURL(key, ttl), nil
	}

	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		b.degrade("download-url", err)
		return b.stubURL(key, ttl), nil
	}
	return req.URL, nil
}

func (b *Bucket) stubURL(key string, ttl time.Duration) string {
	bucket := b.cfg.Bucket
	if bucket == "" {
		bucket = "local-stub"
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Stub-Expires=%d", bucket, key, int(ttl.Seconds()))
}

// List returns objects under the prefix. Stub mode has nothing to list.
func (b *Bucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if b.isStub() {
		return nil, nil
	}
	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		b.degrade("list", err)
		return nil, nil
	}
	var infos []ObjectInfo
	for _, obj := range out.Contents {
		info := ObjectInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
		if obj.LastModified != nil {
			info.LastModified = obj.LastModified.UTC().Format(time.RFC3339)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Delete removes an object. Stub mode reports success.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if b.isStub() {
		b.log.Debug("stub delete", "key", key)
		return nil
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		b.degrade("delete", err)
	}
	return nil
}
