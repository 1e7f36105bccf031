package domain

import "strings"

// Path представляет увеличивающий путь и протолкнутый по нему поток
type Path struct {
	Nodes []*Node
	Flow  float64
}

// Names возвращает имена узлов пути
func (p *Path) Names() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name
	}
	return names
}

// String возвращает путь в виде "source -> kate -> john -> sink"
func (p *Path) String() string {
	return strings.Join(p.Names(), " -> ")
}

// ReconstructPath восстанавливает путь из parent map.
// Возвращает nil, если цепочка родителей не доходит до source.
func ReconstructPath(parent map[*Node]*Node, source, sink *Node) []*Node {
	if source == nil || sink == nil {
		return nil
	}
	if source == sink {
		return []*Node{source}
	}

	path := []*Node{sink}
	current := sink
	for current != source {
		p, ok := parent[current]
		if !ok || p == nil {
			return nil
		}
		// Защита от циклов в parent map
		if len(path) > len(parent)+1 {
			return nil
		}
		path = append(path, p)
		current = p
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
