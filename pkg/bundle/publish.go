package bundle

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"path/filepath"

	"github.com/LENAX/saucer/pkg/config"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const PublishPrefix = "📦 "

// ObjectStore 发布任务依赖的对象存储操作，*minio.Client 满足此接口
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// PublishTask 将 public 目录上传到 S3 兼容存储（对外导出）
type PublishTask struct {
	cfg       config.PublishConfig
	publicDir string
	store     ObjectStore
}

// PublishOption 发布任务选项
type PublishOption func(*PublishTask)

// WithObjectStore 使用指定的对象存储客户端
func WithObjectStore(store ObjectStore) PublishOption {
	return func(t *PublishTask) {
		t.store = store
	}
}

// NewPublishTask 创建发布任务
func NewPublishTask(cfg config.PublishConfig, publicDir string, opts ...PublishOption) *PublishTask {
	t := &PublishTask{cfg: cfg, publicDir: publicDir}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *PublishTask) Description() string { return "publish to bucket" }

func (t *PublishTask) Prefix() string { return PublishPrefix }

// NewMinioStore 根据配置创建 minio 客户端
func NewMinioStore(cfg config.PublishConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return client, nil
}

// Run 确保 bucket 存在后逐个上传文件，每个文件按指数退避重试
func (t *PublishTask) Run(ctx context.Context) error {
	store := t.store
	if store == nil {
		client, err := NewMinioStore(t.cfg)
		if err != nil {
			return err
		}
		store = client
	}

	exists, err := store.BucketExists(ctx, t.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket %s: %w", t.cfg.Bucket, err)
	}
	if !exists {
		task.Logf("%screating bucket %s", PublishPrefix, t.cfg.Bucket)
		if err := store.MakeBucket(ctx, t.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("could not create bucket %s: %w", t.cfg.Bucket, err)
		}
	}

	uploaded := 0
	err = filepath.WalkDir(t.publicDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(t.publicDir, p)
		if err != nil {
			return err
		}
		object := path.Join(t.cfg.ObjectPrefix, filepath.ToSlash(rel))
		if err := t.upload(ctx, store, object, p); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("%spublishing %s failed: %w", PublishPrefix, t.publicDir, err)
	}
	task.Logf("%suploaded %d files to %s", PublishPrefix, uploaded, t.cfg.Bucket)
	return nil
}

func (t *PublishTask) upload(ctx context.Context, store ObjectStore, object, file string) error {
	opts := minio.PutObjectOptions{ContentType: contentType(file)}
	operation := func() error {
		_, err := store.FPutObject(ctx, t.cfg.Bucket, object, file, opts)
		return err
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.cfg.MaxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("could not upload %s: %w", object, err)
	}
	task.Logf("%suploaded %s", PublishPrefix, object)
	return nil
}

func contentType(file string) string {
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
