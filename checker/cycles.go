package checker

import "github.com/bismut-lang/bismut/types"

// checkClassCycles looks for a cycle in the class reference graph (a field
// of type Class, or of List/Dict reaching a Class, counts as an edge).
// Self-references (Node.next: Node) are not an edge -- only cycles through
// two or more distinct classes are reported. A cycle is reported as a
// warning rather than a hard error: the runtime's debug leak detector is
// relied on to surface any resulting retain cycle at runtime.
func (c *Checker) checkClassCycles() {
	adj := map[string][]string{}
	for name, ci := range c.classes {
		seen := map[string]bool{}
		for _, ft := range ci.Fields {
			for _, target := range classRefsIn(ft) {
				if target == name || seen[target] {
					continue
				}
				seen[target] = true
				adj[name] = append(adj[name], target)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var path []string

	var dfs func(u string) []string
	dfs = func(u string) []string {
		color[u] = gray
		path = append(path, u)
		for _, v := range adj[u] {
			if color[v] == gray {
				// found the cycle: path from v's first occurrence to here
				start := 0
				for i, n := range path {
					if n == v {
						start = i
						break
					}
				}
				return append(append([]string{}, path[start:]...), v)
			}
			if color[v] == white {
				if cyc := dfs(v); cyc != nil {
					return cyc
				}
			}
		}
		path = path[:len(path)-1]
		color[u] = black
		return nil
	}

	for name := range c.classes {
		if color[name] != white {
			continue
		}
		if cyc := dfs(name); cyc != nil {
			c.bag.Warning(c.prog.Pos, "circular class reference detected: %s -- runtime cycles through these fields will leak until the debug leak detector flags them", joinArrow(cyc))
		}
	}
}

func joinArrow(names []string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += " -> "
		}
		s += n
	}
	return s
}

// classRefsIn reports every class name t reaches as a reference-kind edge:
// itself if t is a Class, or recursively through List/Dict element types.
func classRefsIn(t types.Type) []string {
	switch v := t.(type) {
	case types.Class:
		return []string{v.Name}
	case types.List:
		return classRefsIn(v.Elem)
	case types.Dict:
		return classRefsIn(v.Val)
	default:
		return nil
	}
}
