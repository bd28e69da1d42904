package models

// DiagramNode is a raw node as drawn on the candidate's canvas. Data carries
// UI fields of which only label/kind/type are meaningful for grading.
type DiagramNode struct {
	ID   string         `json:"id"`
	Type string         `json:"type,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

type DiagramEdge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// DiagramSnapshot is a point-in-time copy of the design canvas. The change
// detector treats it as read-only.
type DiagramSnapshot struct {
	Nodes     []DiagramNode `json:"nodes"`
	Edges     []DiagramEdge `json:"edges"`
	Timestamp string        `json:"timestamp,omitempty"`
}

// NormalizedNode is the grading-facing view of a node.
type NormalizedNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type NormalizedEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

type NormalizedDiagram struct {
	Nodes []NormalizedNode `json:"nodes"`
	Edges []NormalizedEdge `json:"edges"`
}
