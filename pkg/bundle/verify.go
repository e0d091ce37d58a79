package bundle

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/PuerkitoBio/goquery"
)

const VerifyPrefix = "🔎 "

// 需要校验的 <link rel> 取值
var checkedLinkRels = []string{"stylesheet", "icon", "manifest", "preload"}

// VerifyTask 检查渲染后的 HTML 引用的本地资源是否都存在（对外导出）
type VerifyTask struct {
	htmlFile string
	assetDir string
}

// NewVerifyTask 创建资源校验任务，assetDir 对应站点根路径 "/"
func NewVerifyTask(htmlFile, assetDir string) *VerifyTask {
	return &VerifyTask{htmlFile: htmlFile, assetDir: assetDir}
}

func (t *VerifyTask) Description() string { return "asset check" }

func (t *VerifyTask) Prefix() string { return VerifyPrefix }

// Run 解析 HTML 并校验资源
func (t *VerifyTask) Run(ctx context.Context) error {
	refs, err := t.References()
	if err != nil {
		return err
	}

	var missing []string
	for _, ref := range refs {
		path := filepath.Join(t.assetDir, filepath.FromSlash(strings.TrimPrefix(ref, "/")))
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, ref)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s%d missing assets referenced by %s: %s",
			VerifyPrefix, len(missing), t.htmlFile, strings.Join(missing, ", "))
	}
	task.Logf("%sverified %d assets referenced by %s", VerifyPrefix, len(refs), t.htmlFile)
	return nil
}

// References 返回 HTML 中引用的本地资源路径（去重、排序，不含查询串与锚点）
func (t *VerifyTask) References() ([]string, error) {
	f, err := os.Open(t.htmlFile)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", t.htmlFile, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", t.htmlFile, err)
	}

	seen := map[string]bool{}
	add := func(raw string) {
		if ref, ok := localReference(raw); ok {
			seen[ref] = true
		}
	}
	doc.Find("script[src], img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src)
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		for _, r := range checkedLinkRels {
			if strings.Contains(rel, r) {
				add(s.AttrOr("href", ""))
				return
			}
		}
	})

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}

// localReference 过滤掉外部链接、data URI 与模板占位符
func localReference(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "#") || strings.Contains(raw, "{{") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}
