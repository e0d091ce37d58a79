package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/LENAX/saucer/pkg/config"
	"github.com/stretchr/testify/require"
)

// site 测试用的前端项目目录
type site struct {
	root string
	cfg  *config.Config
}

const testTemplate = `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="/styles.css">
  <link rel="canonical" href="https://example.com/">
  <script>window.SCHEMA = {{{PLACEHOLDER_SCHEMA}}};</script>
</head>
<body data-base="{{BASE_URL}}">
  <img src="/logo.png?v=2">
  <script src="/main.js"></script>
  <script src="https://cdn.example.com/lib.js"></script>
</body>
</html>
`

// newSite 创建 awc.json、schema、模板与 bucket 目录
func newSite(t *testing.T) *site {
	t.Helper()
	root := t.TempDir()

	write := func(rel, contents string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0644))
	}

	schemaPath := filepath.Join(root, "schema.graphql")
	write("schema.graphql", `{"query": "type Query { hello: String }"}`)
	write("awc.dev.json", fmt.Sprintf(`{"base_url": "https://dev.example.com", "placeholder_schema_path": %q}`, schemaPath))
	write("awc.prod.json", fmt.Sprintf(`{"base_url": "https://example.com", "placeholder_schema_path": %q}`, schemaPath))
	write("src/browser/template.html", testTemplate)
	write("src/browser/bucket/logo.png", "png")
	write("src/browser/bucket/README.md", "bucket docs")
	write("src/browser/bucket/fonts/a.woff2", "font")

	cfg := &config.Config{}
	cfg.Saucer.Bundle.WorkDir = root
	cfg.ApplyDefaults()
	// 两个输出指向同一个目录，便于资源校验
	cfg.Saucer.Bundle.HTML.PublicFile = filepath.Join(root, "src/server/public/index.html")

	return &site{root: root, cfg: cfg}
}

// fakeNpm 写入一个模拟 npm 的脚本：按脚本名休眠或失败
func (s *site) fakeNpm(t *testing.T, failScript string) string {
	t.Helper()
	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "install" ]; then
  sleep 0.05
  echo "added 0 packages"
  exit 0
fi
if [ "$2" = "%s" ]; then
  echo "boom" 1>&2
  exit 1
fi
case "$2" in
  build:css) echo "body{}" > "%s/src/server/public/styles.css" ;;
  build:js) echo "console.log(1)" > "%s/src/server/public/main.js" ;;
esac
sleep 0.05
exit 0
`, failScript, s.root, s.root)
	p := filepath.Join(s.root, "npm")
	require.NoError(t, os.WriteFile(p, []byte(script), 0755))
	s.cfg.Saucer.Bundle.NpmBin = p
	return p
}
