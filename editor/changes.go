package editor

import "github.com/meikuraledutech/workflow"

// ChangeType is the kind of delta the rendering layer reports.
type ChangeType int

const (
	ChangePosition ChangeType = iota
	ChangeSelect
	ChangeRemove
)

func (t ChangeType) String() string {
	switch t {
	case ChangePosition:
		return "position"
	case ChangeSelect:
		return "select"
	case ChangeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// NodeChange is a single positional, selection or removal delta for a node.
type NodeChange struct {
	Type     ChangeType
	ID       string
	Position workflow.Position
	Selected bool
}

// EdgeChange is a selection or removal delta for an edge.
// Position changes do not apply to edges and are ignored.
type EdgeChange struct {
	Type     ChangeType
	ID       string
	Selected bool
}

// MoveNode reports that a node was dragged to pos.
func MoveNode(id string, pos workflow.Position) NodeChange {
	return NodeChange{Type: ChangePosition, ID: id, Position: pos}
}

// SelectNode reports a node selection toggle.
func SelectNode(id string, selected bool) NodeChange {
	return NodeChange{Type: ChangeSelect, ID: id, Selected: selected}
}

// DeleteNode reports that a node was deleted on the canvas.
func DeleteNode(id string) NodeChange {
	return NodeChange{Type: ChangeRemove, ID: id}
}

// SelectEdge reports an edge selection toggle.
func SelectEdge(id string, selected bool) EdgeChange {
	return EdgeChange{Type: ChangeSelect, ID: id, Selected: selected}
}

// DeleteEdge reports that an edge was deleted on the canvas.
func DeleteEdge(id string) EdgeChange {
	return EdgeChange{Type: ChangeRemove, ID: id}
}
