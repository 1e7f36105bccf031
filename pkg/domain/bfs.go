package domain

// BFSResult результат BFS обхода. Состояние живёт только в рамках одного поиска.
type BFSResult struct {
	Found   bool
	Parent  map[*Node]*Node
	Visited map[*Node]bool
}

// NewBFSResult создаёт пустой результат
func NewBFSResult() *BFSResult {
	return &BFSResult{
		Parent:  make(map[*Node]*Node),
		Visited: make(map[*Node]bool),
	}
}

// Visit отмечает узел посещённым и запоминает родителя
func (r *BFSResult) Visit(node, parent *Node) {
	r.Visited[node] = true
	if parent != nil {
		r.Parent[node] = parent
	}
}
