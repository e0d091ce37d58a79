// Package dag 将执行树转换为有向无环图，用于展示执行计划
package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LENAX/saucer/pkg/core/parallel"
	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/stage"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/begmaroman/go-dag"
)

// 节点类型
const (
	KindPipeline = "pipeline"
	KindStage    = "stage"
	KindGroup    = "group"
	KindTask     = "task"
)

// PlanNode 执行计划中的一个节点（对外导出）
type PlanNode struct {
	NodeID   string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Order    int    `json:"order"`
	Depth    int    `json:"depth"`
}

// ID 实现 go-dag 的顶点标识
func (n *PlanNode) ID() string {
	return n.NodeID
}

// Plan 执行计划（对外导出）
type Plan struct {
	graph  *dag.DAG[*PlanNode]
	rootID string
	size   int
}

// BuildPlan 深度优先遍历执行树，构建执行计划
// 空任务不进入计划
func BuildPlan(root task.Task) (*Plan, error) {
	if root == nil {
		return nil, fmt.Errorf("执行树不能为空")
	}
	p := &Plan{graph: dag.NewDAG[*PlanNode]()}

	var visit func(t task.Task, parentID string, depth int) error
	visit = func(t task.Task, parentID string, depth int) error {
		node := &PlanNode{
			NodeID:   fmt.Sprintf("n%d", p.size),
			ParentID: parentID,
			Label:    label(t),
			Kind:     kindOf(t),
			Order:    p.size,
			Depth:    depth,
		}
		if _, err := p.graph.AddVertex(node); err != nil {
			return fmt.Errorf("添加节点 %s 失败: %w", node.NodeID, err)
		}
		p.size++
		if parentID == "" {
			p.rootID = node.NodeID
		} else if err := p.graph.AddEdge(parentID, node.NodeID); err != nil {
			return fmt.Errorf("添加边 %s -> %s 失败: %w", parentID, node.NodeID, err)
		}

		parent, ok := t.(task.Parent)
		if !ok {
			return nil
		}
		for _, child := range parent.Children() {
			if _, empty := child.(task.EmptyTask); empty {
				continue
			}
			if err := visit(child, node.NodeID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root, "", 0); err != nil {
		return nil, err
	}
	return p, nil
}

// Len 节点数量
func (p *Plan) Len() int {
	return p.size
}

// Root 根节点
func (p *Plan) Root() (*PlanNode, error) {
	return p.graph.GetVertex(p.rootID)
}

// Nodes 按遍历顺序返回全部节点
func (p *Plan) Nodes() []*PlanNode {
	vertices := p.graph.GetVertices()
	nodes := make([]*PlanNode, 0, len(vertices))
	for _, v := range vertices {
		nodes = append(nodes, v)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })
	return nodes
}

// Children 按遍历顺序返回子节点
func (p *Plan) Children(nodeID string) ([]*PlanNode, error) {
	children, err := p.graph.GetChildren(nodeID)
	if err != nil {
		return nil, err
	}
	nodes := make([]*PlanNode, 0, len(children))
	for id := range children {
		c, err := p.graph.GetVertex(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, c)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })
	return nodes, nil
}

// Leaves 返回所有叶子任务
func (p *Plan) Leaves() []*PlanNode {
	var leaves []*PlanNode
	for _, n := range p.Nodes() {
		if n.Kind == KindTask {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Render 渲染为缩进树文本
func (p *Plan) Render() string {
	var b strings.Builder
	var walk func(id string) error
	walk = func(id string) error {
		node, err := p.graph.GetVertex(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", node.Depth), node.Label)
		children, err := p.Children(id)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := walk(c.NodeID); err != nil {
				return err
			}
		}
		return nil
	}
	// 顶点都由 BuildPlan 添加，遍历不会失败
	_ = walk(p.rootID)
	return b.String()
}

func kindOf(t task.Task) string {
	switch t.(type) {
	case *pipeline.Pipeline:
		return KindPipeline
	case *stage.Stage:
		return KindStage
	case *parallel.Group:
		return KindGroup
	default:
		return KindTask
	}
}

// label 并行组显示为 "位置标签 parallel"，其余显示 prefix + description
func label(t task.Task) string {
	if g, ok := t.(*parallel.Group); ok {
		return g.Prefix() + "parallel"
	}
	return task.Rendered(t)
}
