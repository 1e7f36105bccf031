package domain

// NodeRole роль узла в сети расчёта
type NodeRole int

const (
	RoleUnspecified NodeRole = iota
	RoleDebtor
	RoleCreditor
	RoleSettled
	RoleSource
	RoleSink
)

// String возвращает строковое представление роли
func (r NodeRole) String() string {
	switch r {
	case RoleDebtor:
		return "debtor"
	case RoleCreditor:
		return "creditor"
	case RoleSettled:
		return "settled"
	case RoleSource:
		return "source"
	case RoleSink:
		return "sink"
	default:
		return "unspecified"
	}
}

// IsSynthetic проверяет, является ли роль синтетической (source или sink)
func (r NodeRole) IsSynthetic() bool {
	return r == RoleSource || r == RoleSink
}

// RoleForBalance определяет роль участника по знаку баланса
func RoleForBalance(balance float64) NodeRole {
	switch {
	case balance < 0:
		return RoleDebtor
	case balance > 0:
		return RoleCreditor
	default:
		return RoleSettled
	}
}

// Balance чистый баланс участника: отрицательный у должника, положительный у кредитора
type Balance struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// Node узел сети расчёта
type Node struct {
	Name     string
	Role     NodeRole
	Balance  float64
	Capacity float64
	Flow     float64
	Children []*Node
	FlowLog  *FlowLog
}

// NewNode создаёт узел с пустым журналом потока
func NewNode(name string, role NodeRole, balance, capacity float64) *Node {
	return &Node{
		Name:     name,
		Role:     role,
		Balance:  balance,
		Capacity: capacity,
		FlowLog:  NewFlowLog(),
	}
}

// ResidualCapacity возвращает остаточную пропускную способность узла
func (n *Node) ResidualCapacity() float64 {
	if IsInfinite(n.Capacity) {
		return Infinity
	}
	return n.Capacity - n.Flow
}

// AddChild добавляет исходящее ребро
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// IsSource проверяет, является ли узел синтетическим источником
func (n *Node) IsSource() bool {
	return n.Role == RoleSource
}

// IsSink проверяет, является ли узел синтетическим стоком
func (n *Node) IsSink() bool {
	return n.Role == RoleSink
}

// String возвращает имя узла
func (n *Node) String() string {
	return n.Name
}

// FlowEntry запись журнала потока
type FlowEntry struct {
	To     *Node
	Amount float64
}

// FlowLog накопленный поток от узла к каждому следующему узлу.
// Порядок вставки сохраняется, чтобы отчёты были детерминированы.
type FlowLog struct {
	order   []*Node
	amounts map[*Node]float64
}

// NewFlowLog создаёт пустой журнал
func NewFlowLog() *FlowLog {
	return &FlowLog{amounts: make(map[*Node]float64)}
}

// Add прибавляет amount к потоку в сторону to
func (l *FlowLog) Add(to *Node, amount float64) {
	if _, ok := l.amounts[to]; !ok {
		l.order = append(l.order, to)
	}
	l.amounts[to] += amount
}

// Amount возвращает накопленный поток в сторону to
func (l *FlowLog) Amount(to *Node) float64 {
	return l.amounts[to]
}

// Entries возвращает записи в порядке первой вставки
func (l *FlowLog) Entries() []FlowEntry {
	entries := make([]FlowEntry, 0, len(l.order))
	for _, to := range l.order {
		entries = append(entries, FlowEntry{To: to, Amount: l.amounts[to]})
	}
	return entries
}

// Len возвращает количество адресатов
func (l *FlowLog) Len() int {
	return len(l.order)
}

// Total возвращает суммарный исходящий поток
func (l *FlowLog) Total() float64 {
	var total float64
	for _, v := range l.amounts {
		total += v
	}
	return total
}

// SourceEdge ребро от синтетического источника к должнику
type SourceEdge struct {
	Debtor   *Node
	Capacity float64
	Flow     float64
}

// Residual возвращает остаточную пропускную способность ребра
func (e *SourceEdge) Residual() float64 {
	return e.Capacity - e.Flow
}

// IsSaturated проверяет, насыщено ли ребро
func (e *SourceEdge) IsSaturated() bool {
	return !IsPositive(e.Residual())
}

// Network сеть расчёта: участники, синтетические source и sink
type Network struct {
	Nodes       []*Node
	Source      *Node
	Sink        *Node
	SourceEdges []*SourceEdge

	sourceIndex map[*Node]*SourceEdge
	members     map[*Node]struct{}
}

// NewNetwork создаёт пустую сеть
func NewNetwork() *Network {
	return &Network{
		sourceIndex: make(map[*Node]*SourceEdge),
		members:     make(map[*Node]struct{}),
	}
}

// AddNode добавляет узел в сеть. Source и sink запоминаются по роли.
func (n *Network) AddNode(node *Node) {
	if _, ok := n.members[node]; ok {
		return
	}
	n.members[node] = struct{}{}
	n.Nodes = append(n.Nodes, node)

	switch node.Role {
	case RoleSource:
		n.Source = node
	case RoleSink:
		n.Sink = node
	}
}

// AddSourceEdge подключает должника к источнику. Источник должен быть уже задан.
func (n *Network) AddSourceEdge(debtor *Node, capacity float64) *SourceEdge {
	edge := &SourceEdge{Debtor: debtor, Capacity: capacity}
	n.SourceEdges = append(n.SourceEdges, edge)
	n.sourceIndex[debtor] = edge
	if n.Source != nil {
		n.Source.AddChild(debtor)
	}
	return edge
}

// SourceEdge возвращает ребро источника к должнику
func (n *Network) SourceEdge(debtor *Node) (*SourceEdge, bool) {
	edge, ok := n.sourceIndex[debtor]
	return edge, ok
}

// Contains проверяет принадлежность узла сети
func (n *Network) Contains(node *Node) bool {
	if node == nil {
		return false
	}
	_, ok := n.members[node]
	return ok
}

// Participants возвращает несинтетические узлы в порядке ввода
func (n *Network) Participants() []*Node {
	result := make([]*Node, 0, len(n.Nodes))
	for _, node := range n.Nodes {
		if !node.Role.IsSynthetic() {
			result = append(result, node)
		}
	}
	return result
}

// NodesByRole возвращает узлы с заданной ролью
func (n *Network) NodesByRole(role NodeRole) []*Node {
	var result []*Node
	for _, node := range n.Nodes {
		if node.Role == role {
			result = append(result, node)
		}
	}
	return result
}

// Lookup ищет участника по имени
func (n *Network) Lookup(name string) (*Node, bool) {
	for _, node := range n.Nodes {
		if node.Name == name && !node.Role.IsSynthetic() {
			return node, true
		}
	}
	return nil, false
}

// NodeCount возвращает количество узлов
func (n *Network) NodeCount() int {
	return len(n.Nodes)
}

// EdgeCount возвращает количество рёбер, включая рёбра источника
func (n *Network) EdgeCount() int {
	count := 0
	for _, node := range n.Nodes {
		count += len(node.Children)
	}
	return count
}

// SourceCapacity возвращает суммарную ёмкость рёбер источника
func (n *Network) SourceCapacity() float64 {
	var total float64
	for _, e := range n.SourceEdges {
		total += e.Capacity
	}
	return total
}

// SinkCapacity возвращает суммарную ёмкость кредиторов
func (n *Network) SinkCapacity() float64 {
	var total float64
	for _, node := range n.Nodes {
		if node.Role == RoleCreditor {
			total += node.Capacity
		}
	}
	return total
}
