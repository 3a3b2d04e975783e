package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultS3Region = "us-east-1"

var errNilS3Store = errors.New("artifact: s3 store is not initialised")

// S3Config describes the bucket generated files are uploaded to.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3ConfigFromEnv reads DRACO_S3_* variables, falling back to the MinIO root
// credentials. Callers load `.env` first.
func S3ConfigFromEnv() S3Config {
	useSSL := true
	if v, err := strconv.ParseBool(env("DRACO_S3_USE_SSL")); err == nil {
		useSSL = v
	}
	return S3Config{
		Endpoint:  env("DRACO_S3_ENDPOINT"),
		Region:    envOr(defaultS3Region, "DRACO_S3_REGION"),
		AccessKey: env("DRACO_S3_ACCESS_KEY", "MINIO_ROOT_USER"),
		SecretKey: env("DRACO_S3_SECRET_KEY", "MINIO_ROOT_PASSWORD"),
		Bucket:    envOr("draco-artifacts", "DRACO_S3_BUCKET"),
		Prefix:    env("DRACO_S3_PREFIX"),
		UseSSL:    useSSL,
	}
}

// env returns the first non-blank variable among keys, trimmed.
func env(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envOr(fallback string, keys ...string) string {
	if v := env(keys...); v != "" {
		return v
	}
	return fallback
}

// S3Store keeps each artifact as one object, keyed by its path below an
// optional prefix. The bucket is created on first use.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	prefix string

	once      sync.Once
	bucketErr error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"endpoint", cfg.Endpoint},
		{"access key", cfg.AccessKey},
		{"secret key", cfg.SecretKey},
		{"bucket", cfg.Bucket},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("artifact: s3 %s not configured", strings.Join(missing, ", "))
	}

	s := &S3Store{
		bucket: strings.TrimSpace(cfg.Bucket),
		region: strings.TrimSpace(cfg.Region),
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}
	if s.region == "" {
		s.region = defaultS3Region
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: s.region,
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: s3 client for %s: %w", cfg.Endpoint, err)
	}
	s.client = client
	return s, nil
}

func (s *S3Store) bucketReady(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errNilS3Store
	}
	s.once.Do(func() {
		ok, err := s.client.BucketExists(ctx, s.bucket)
		switch {
		case err != nil:
			s.bucketErr = err
		case !ok:
			s.bucketErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
		}
		if s.bucketErr != nil {
			s.bucketErr = fmt.Errorf("artifact: s3 bucket %s: %w", s.bucket, s.bucketErr)
		}
	})
	return s.bucketErr
}

func (s *S3Store) Put(ctx context.Context, p string, content []byte) error {
	rel, err := cleanPath(p)
	if err != nil {
		return err
	}
	if err := s.bucketReady(ctx); err != nil {
		return err
	}
	opts := minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"}
	if _, err := s.client.PutObject(ctx, s.bucket, s.objectKey(rel), bytes.NewReader(content), int64(len(content)), opts); err != nil {
		return fmt.Errorf("artifact: upload %s: %w", rel, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, p string) ([]byte, error) {
	rel, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if err := s.bucketReady(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(rel), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("artifact: download %s: %w", rel, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("artifact: download %s: %w", rel, err)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	if err := s.bucketReady(ctx); err != nil {
		return nil, err
	}
	listPrefix := s.objectKey("")
	var out []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: listPrefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("artifact: list %s: %w", s.bucket, info.Err)
		}
		if rel := strings.TrimPrefix(info.Key, listPrefix); rel != "" {
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

// objectKey maps an artifact path to its key. objectKey("") is the listing
// prefix.
func (s *S3Store) objectKey(rel string) string {
	if s.prefix == "" {
		return rel
	}
	return s.prefix + "/" + rel
}
