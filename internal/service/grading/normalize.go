package grading

import "interviewd/internal/models"

// NormalizeDiagram strips UI-only fields from a raw canvas snapshot, leaving
// what the grader needs: labeled nodes and their connections.
func NormalizeDiagram(snap models.DiagramSnapshot) models.NormalizedDiagram {
	normalized := models.NormalizedDiagram{
		Nodes: make([]models.NormalizedNode, 0, len(snap.Nodes)),
		Edges: make([]models.NormalizedEdge, 0, len(snap.Edges)),
	}

	for _, node := range snap.Nodes {
		label := stringField(node.Data, "label")
		if label == "" {
			label = stringField(node.Data, "kind")
		}
		if label == "" {
			label = node.Type
		}
		if label == "" {
			label = "Unlabeled"
		}

		nodeType := node.Type
		if nodeType == "" {
			nodeType = stringField(node.Data, "kind")
		}
		if nodeType == "" {
			nodeType = "Component"
		}

		normalized.Nodes = append(normalized.Nodes, models.NormalizedNode{
			ID:    node.ID,
			Label: label,
			Type:  nodeType,
		})
	}

	for _, edge := range snap.Edges {
		normalized.Edges = append(normalized.Edges, models.NormalizedEdge{
			Source: edge.Source,
			Target: edge.Target,
			Label:  edge.Label,
		})
	}

	return normalized
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
