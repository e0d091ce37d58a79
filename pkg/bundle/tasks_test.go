package bundle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLTask_RendersTemplate(t *testing.T) {
	s := newSite(t)
	htmlTask := NewHTMLTask(s.cfg.AwcConfigPath(), s.cfg.Saucer.Bundle.HTML.TemplateFile, s.cfg.Saucer.Bundle.HTML.PublicFile)

	assert.Equal(t, "🛵 handlebars", htmlTask.Prefix()+htmlTask.Description())
	require.NoError(t, htmlTask.Run(context.Background()))

	data, err := os.ReadFile(s.cfg.Saucer.Bundle.HTML.PublicFile)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, `data-base="https://dev.example.com"`)
	assert.Contains(t, html, `type Query { hello: String }`)
	assert.NotContains(t, html, "{{")
}

func TestHTMLTask_ProductionConfig(t *testing.T) {
	s := newSite(t)
	s.cfg.Saucer.General.Env = "production"
	htmlTask := NewHTMLTask(s.cfg.AwcConfigPath(), s.cfg.Saucer.Bundle.HTML.TemplateFile, s.cfg.Saucer.Bundle.HTML.PublicFile)

	require.NoError(t, htmlTask.Run(context.Background()))

	data, err := os.ReadFile(s.cfg.Saucer.Bundle.HTML.PublicFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `data-base="https://example.com"`)
}

func TestHTMLTask_MissingConfig(t *testing.T) {
	s := newSite(t)
	htmlTask := NewHTMLTask(filepath.Join(s.root, "nope.json"), s.cfg.Saucer.Bundle.HTML.TemplateFile, s.cfg.Saucer.Bundle.HTML.PublicFile)

	err := htmlTask.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.json")
}

func TestHTMLTask_InvalidConfig(t *testing.T) {
	s := newSite(t)
	bad := filepath.Join(s.root, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	htmlTask := NewHTMLTask(bad, s.cfg.Saucer.Bundle.HTML.TemplateFile, s.cfg.Saucer.Bundle.HTML.PublicFile)

	err := htmlTask.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestBucketTask_CopiesAssets(t *testing.T) {
	s := newSite(t)
	b := s.cfg.Saucer.Bundle.Bucket
	bucketTask := NewBucketTask(b.BucketDir, b.PublicDir)

	require.NoError(t, bucketTask.Run(context.Background()))

	assert.FileExists(t, filepath.Join(b.PublicDir, "logo.png"))
	assert.FileExists(t, filepath.Join(b.PublicDir, "fonts", "a.woff2"))
	assert.NoFileExists(t, filepath.Join(b.PublicDir, "README.md"))
}

func TestNpmTask_Commands(t *testing.T) {
	assert.Equal(t, "$ npm install", NewDepsTask("npm", "").Command())
	assert.Equal(t, "$ npm run build:css", NewCSSTask("npm", "", "build:css").Command())
	assert.Equal(t, "$ npm run build:js", NewJSTask("npm", "", "build:js").Command())
	assert.Equal(t, "installing npm dependencies", NewDepsTask("npm", "").Description())
}

func TestNpmTask_MissingBinary(t *testing.T) {
	err := NewCSSTask("not-a-real-npm-binary", "", "build:css").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find not-a-real-npm-binary")
}

func TestNpmTask_FailureNamesCommand(t *testing.T) {
	s := newSite(t)
	npm := s.fakeNpm(t, "build:css")

	err := NewCSSTask(npm, "", "build:css").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run build:css failed with exit status 1")
}

func TestVerifyTask(t *testing.T) {
	s := newSite(t)
	publicDir := s.cfg.Saucer.Bundle.Bucket.PublicDir
	publicFile := s.cfg.Saucer.Bundle.HTML.PublicFile
	require.NoError(t, NewHTMLTask(s.cfg.AwcConfigPath(), s.cfg.Saucer.Bundle.HTML.TemplateFile, publicFile).Run(context.Background()))
	require.NoError(t, NewBucketTask(s.cfg.Saucer.Bundle.Bucket.BucketDir, publicDir).Run(context.Background()))

	verify := NewVerifyTask(publicFile, publicDir)
	refs, err := verify.References()
	require.NoError(t, err)
	assert.Equal(t, []string{"/logo.png", "/main.js", "/styles.css"}, refs)

	err = verify.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 missing assets")
	assert.Contains(t, err.Error(), "/main.js")
	assert.Contains(t, err.Error(), "/styles.css")

	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "main.js"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "styles.css"), []byte("x"), 0644))
	assert.NoError(t, verify.Run(context.Background()))
}

func TestLocalReference(t *testing.T) {
	tests := map[string]struct {
		want string
		ok   bool
	}{
		"/main.js":                 {"/main.js", true},
		"img/a.png#frag":           {"img/a.png", true},
		"https://cdn.example/x.js": {"", false},
		"//cdn.example/x.js":       {"", false},
		"data:image/png;base64,AA": {"", false},
		"{{BASE_URL}}/x.js":        {"", false},
		"":                         {"", false},
	}
	for raw, tt := range tests {
		got, ok := localReference(raw)
		assert.Equal(t, tt.ok, ok, raw)
		assert.Equal(t, tt.want, got, raw)
	}
}

// fakeStore 记录上传的对象存储
type fakeStore struct {
	mu       sync.Mutex
	exists   bool
	made     bool
	failOnce map[string]bool
	objects  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{failOnce: map[string]bool{}, objects: map[string]string{}}
}

func (f *fakeStore) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.exists, nil
}

func (f *fakeStore) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	f.made = true
	return nil
}

func (f *fakeStore) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnce[objectName] {
		delete(f.failOnce, objectName)
		return minio.UploadInfo{}, errors.New("connection reset")
	}
	f.objects[objectName] = opts.ContentType
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func TestPublishTask_UploadsPublicDir(t *testing.T) {
	s := newSite(t)
	publicDir := s.cfg.Saucer.Bundle.Bucket.PublicDir
	require.NoError(t, NewBucketTask(s.cfg.Saucer.Bundle.Bucket.BucketDir, publicDir).Run(context.Background()))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "main.js"), []byte("x"), 0644))

	store := newFakeStore()
	store.failOnce["site/main.js"] = true
	cfg := s.cfg.Saucer.Publish
	cfg.Bucket = "web"
	cfg.ObjectPrefix = "site"

	publish := NewPublishTask(cfg, publicDir, WithObjectStore(store))
	assert.Equal(t, "📦 publish to bucket", publish.Prefix()+publish.Description())
	require.NoError(t, publish.Run(context.Background()))

	assert.True(t, store.made)
	assert.Len(t, store.objects, 3)
	assert.Contains(t, store.objects, "site/logo.png")
	assert.Contains(t, store.objects, "site/fonts/a.woff2")
	assert.True(t, strings.Contains(store.objects["site/main.js"], "javascript"))
}

func TestPublishTask_MissingDir(t *testing.T) {
	cfg := newSite(t).cfg.Saucer.Publish
	cfg.Bucket = "web"
	store := newFakeStore()
	store.exists = true

	err := NewPublishTask(cfg, filepath.Join(t.TempDir(), "missing"), WithObjectStore(store)).Run(context.Background())
	require.Error(t, err)
	assert.False(t, store.made)
}
