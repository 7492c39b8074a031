package catalog

import "sort"

type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// BuildTree groups categories by parent. Categories whose parent is missing
// from the input, or whose parent chain loops back to them, are promoted to roots.
func BuildTree(cats []Category) []*CategoryNode {
	nodes := make(map[string]*CategoryNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}

	var roots []*CategoryNode
	for _, c := range cats {
		n := nodes[c.ID]
		if c.ParentID != nil && !inCycle(c.ID, nodes) {
			if parent, ok := nodes[*c.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortNodes(roots)
	return roots
}

func inCycle(id string, nodes map[string]*CategoryNode) bool {
	seen := map[string]bool{}
	for cur := id; ; {
		n, ok := nodes[cur]
		if !ok || n.ParentID == nil {
			return false
		}
		cur = *n.ParentID
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
}

func sortNodes(ns []*CategoryNode) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].DisplayOrder != ns[j].DisplayOrder {
			return ns[i].DisplayOrder < ns[j].DisplayOrder
		}
		return ns[i].Name < ns[j].Name
	})
	for _, n := range ns {
		sortNodes(n.Children)
	}
}
