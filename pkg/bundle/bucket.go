package bundle

import (
	"context"

	"github.com/LENAX/saucer/pkg/fsutil"
)

const BucketPrefix = "🪣  "

// BucketTask 将 bucket 目录的静态资源复制到 public 目录，跳过 README.md（对外导出）
type BucketTask struct {
	bucketDir string
	publicDir string
}

// NewBucketTask 创建复制任务
func NewBucketTask(bucketDir, publicDir string) *BucketTask {
	return &BucketTask{bucketDir: bucketDir, publicDir: publicDir}
}

func (t *BucketTask) Description() string { return "bucket copy" }

func (t *BucketTask) Prefix() string { return BucketPrefix }

func (t *BucketTask) Run(ctx context.Context) error {
	return fsutil.CopyDir(t.bucketDir, t.publicDir, BucketPrefix)
}
