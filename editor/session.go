// Package editor holds the per-editor graph state and the operations that
// move it to and from the remote workflow service.
package editor

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/meikuraledutech/workflow"
	"go.uber.org/zap"
)

// Session is the canonical state of one open editor: the active workflow id,
// its metadata, nodes, edges and the derived overall config.
//
// Every mutation goes through a Session method. Slices handed out by Nodes and
// Edges are copies, but the entries they point to are shared and must be
// treated as read-only. Entries a mutation does not touch keep their identity.
type Session struct {
	mu  sync.RWMutex
	log *zap.Logger
	now func() time.Time

	id          string
	name        string
	description string
	nodes       []*workflow.Node
	edges       []*workflow.Edge
	overall     workflow.OverallConfig
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source used for edge ids.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession creates an empty Session with no workflow selected.
func NewSession(opts ...Option) *Session {
	s := &Session{
		log:   zap.NewNop(),
		now:   time.Now,
		nodes: []*workflow.Node{},
		edges: []*workflow.Edge{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyNodeChanges folds a batch of rendering-layer deltas into the node
// collection. Touched nodes are replaced by updated copies; removing a node
// also removes every edge attached to it.
func (s *Session) ApplyNodeChanges(changes []NodeChange) {
	if len(changes) == 0 {
		return
	}
	byID := make(map[string][]NodeChange, len(changes))
	for _, c := range changes {
		byID[c.ID] = append(byID[c.ID], c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool)
	next := make([]*workflow.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		cs, ok := byID[n.ID]
		if !ok {
			next = append(next, n)
			continue
		}
		updated := n.Clone()
		drop := false
		for _, c := range cs {
			switch c.Type {
			case ChangePosition:
				updated.Position = c.Position
			case ChangeSelect:
				updated.Selected = c.Selected
			case ChangeRemove:
				drop = true
			}
		}
		if drop {
			removed[n.ID] = true
			continue
		}
		next = append(next, updated)
	}
	s.nodes = next
	if len(removed) > 0 {
		s.edges = withoutIncident(s.edges, removed)
	}
}

// ApplyEdgeChanges folds a batch of selection and removal deltas into the
// edge collection.
func (s *Session) ApplyEdgeChanges(changes []EdgeChange) {
	if len(changes) == 0 {
		return
	}
	byID := make(map[string][]EdgeChange, len(changes))
	for _, c := range changes {
		byID[c.ID] = append(byID[c.ID], c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*workflow.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		cs, ok := byID[e.ID]
		if !ok {
			next = append(next, e)
			continue
		}
		updated := *e
		drop := false
		for _, c := range cs {
			switch c.Type {
			case ChangeSelect:
				updated.Selected = c.Selected
			case ChangeRemove:
				drop = true
			}
		}
		if !drop {
			next = append(next, &updated)
		}
	}
	s.edges = next
}

// Connect turns a connection gesture into a labelled edge.
// A gesture missing its source, target or target handle is dropped, as is one
// that duplicates an existing edge; ok is false in both cases.
func (s *Session) Connect(c workflow.Connection) (*workflow.Edge, bool) {
	if c.Source == "" || c.Target == "" || c.TargetHandle == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.edges {
		if e.Source == c.Source && e.Target == c.Target &&
			e.SourceHandle == c.SourceHandle && e.TargetHandle == c.TargetHandle {
			return nil, false
		}
	}

	e := &workflow.Edge{
		ID:           workflow.EdgeID(c.Source, c.Target, c.TargetHandle, s.now()),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
		Label:        workflow.Label(c, s.nodes),
	}
	s.edges = append(s.edges, e)
	s.log.Debug("edge connected",
		zap.String("edge_id", e.ID),
		zap.String("label", e.Label),
	)
	return e, true
}

// AddNode appends a copy of n. The name is always re-derived from the kind,
// a missing id is generated and a nil config is replaced by the kind's defaults.
func (s *Session) AddNode(n *workflow.Node) *workflow.Node {
	added := n.Clone()
	added.Name = workflow.DisplayName(added.Kind)
	if added.ID == "" {
		added.ID = workflow.NewNodeID()
	}
	if added.Config == nil {
		added.Config = workflow.DefaultConfig(added.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, added)
	return added
}

// RemoveNode removes a node and every edge where it is source or target.
func (s *Session) RemoveNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexNode(id)
	if i < 0 {
		return
	}
	s.nodes = slices.Delete(slices.Clone(s.nodes), i, i+1)
	s.edges = withoutIncident(s.edges, map[string]bool{id: true})
}

// RemoveEdge removes a single edge.
func (s *Session) RemoveEdge(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges = slices.DeleteFunc(slices.Clone(s.edges), func(e *workflow.Edge) bool {
		return e.ID == id
	})
}

// UpdateNodeConfig merges p into the configuration of node id and refreshes
// the overall config. A patch that does not fit the node's configuration is
// logged and leaves the node unchanged.
func (s *Session) UpdateNodeConfig(id string, p workflow.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexNode(id)
	if i < 0 {
		s.log.Debug("config update for unknown node", zap.String("node_id", id))
		return
	}
	cfg, err := workflow.MergeConfig(s.nodes[i].Config, p)
	if err != nil {
		s.log.Warn("config patch rejected",
			zap.String("node_id", id),
			zap.Error(err),
		)
		return
	}
	updated := *s.nodes[i]
	updated.Config = cfg

	s.nodes = slices.Clone(s.nodes)
	s.nodes[i] = &updated
	s.project(cfg)
}

// project copies the overall-config slice of cfg into the workflow config.
func (s *Session) project(cfg workflow.Config) {
	switch c := cfg.(type) {
	case *workflow.InferenceConfig:
		s.overall.LLMAPIKey = c.APIKey
		s.overall.Model = c.Model
		s.overall.WebSearchEnabled = c.WebSearchEnabled
		s.overall.SerpAPIKey = c.SerpAPIKey
		if t, err := strconv.ParseFloat(c.Temperature, 64); err == nil {
			s.overall.Temperature = t
		} else if c.Temperature != "" {
			s.log.Debug("temperature is not a number", zap.String("temperature", c.Temperature))
		}
	case *workflow.KnowledgeConfig:
		s.overall.EmbeddingAPIKey = c.APIKey
	}
}

// Reset clears the workflow id, metadata, nodes, edges and overall config.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.id = ""
	s.name = ""
	s.description = ""
	s.nodes = []*workflow.Node{}
	s.edges = []*workflow.Edge{}
	s.overall = workflow.OverallConfig{}
}

// Select makes id the active workflow, discarding all state of the previous one.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.id = id
}

// SetMeta sets the workflow name and description.
func (s *Session) SetMeta(name, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.description = description
}

// Replace swaps the whole state for w.
func (s *Session) Replace(w *workflow.Workflow) {
	nodes := make([]*workflow.Node, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		nodes = append(nodes, n.Clone())
	}
	edges := make([]*workflow.Edge, 0, len(w.Edges))
	for _, e := range w.Edges {
		cp := *e
		edges = append(edges, &cp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = w.ID
	s.name = w.Name
	s.description = w.Description
	s.nodes = nodes
	s.edges = edges
	s.overall = w.Overall
}

// Rebind renames the active workflow from one id to another. It reports
// whether from was the active id; otherwise the session is left alone.
func (s *Session) Rebind(from, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != from {
		return false
	}
	s.id = to
	return true
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() *workflow.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := &workflow.Workflow{
		ID:          s.id,
		Name:        s.name,
		Description: s.description,
		Nodes:       make([]*workflow.Node, 0, len(s.nodes)),
		Edges:       make([]*workflow.Edge, 0, len(s.edges)),
		Overall:     s.overall,
	}
	for _, n := range s.nodes {
		w.Nodes = append(w.Nodes, n.Clone())
	}
	for _, e := range s.edges {
		cp := *e
		w.Edges = append(w.Edges, &cp)
	}
	return w
}

// ID returns the active workflow id, empty when none is selected.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) Description() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.description
}

func (s *Session) Overall() workflow.OverallConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overall
}

// Nodes returns the current node collection.
func (s *Session) Nodes() []*workflow.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.nodes)
}

// Edges returns the current edge collection.
func (s *Session) Edges() []*workflow.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

// Node returns a copy of node id, or nil if it does not exist.
func (s *Session) Node(id string) *workflow.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexNode(id); i >= 0 {
		return s.nodes[i].Clone()
	}
	return nil
}

// FirstOfKind returns a copy of the first node of kind, or nil.
func (s *Session) FirstOfKind(kind workflow.NodeKind) *workflow.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if n.Kind == kind {
			return n.Clone()
		}
	}
	return nil
}

func (s *Session) indexNode(id string) int {
	return slices.IndexFunc(s.nodes, func(n *workflow.Node) bool { return n.ID == id })
}

func withoutIncident(edges []*workflow.Edge, nodes map[string]bool) []*workflow.Edge {
	out := make([]*workflow.Edge, 0, len(edges))
	for _, e := range edges {
		if nodes[e.Source] || nodes[e.Target] {
			continue
		}
		out = append(out, e)
	}
	return out
}
