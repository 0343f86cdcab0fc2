package mcptools

import "github.com/dusk-indust/archgraph/internal/graph"

// Tool inputs and outputs. The SDK derives each tool's JSON schema from
// these structs; jsonschema tags become the field descriptions.

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct{}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Stats      graph.GraphStats `json:"stats"`
	Generation uint64           `json:"generation"`
	Published  bool             `json:"published" jsonschema:"false when a newer rebuild finished first"`
}

// GetGraphInput is the input for the get_graph MCP tool.
type GetGraphInput struct {
	Status     string `json:"status,omitempty" jsonschema:"only return files with this change status: added, removed, modified, unchanged"`
	PathPrefix string `json:"pathPrefix,omitempty" jsonschema:"only return files under this workspace-relative directory"`
}

// GetGraphOutput is the result of the get_graph MCP tool.
type GetGraphOutput struct {
	Nodes []graph.SnapshotNode `json:"nodes"`
	Edges []graph.SnapshotEdge `json:"edges"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	NodeID    string `json:"nodeId" jsonschema:"workspace-relative file path"`
	Direction string `json:"direction,omitempty" jsonschema:"upstream (what it depends on) or downstream (what depends on it). Default: downstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// AssessImpactInput is the input for the assess_impact MCP tool.
type AssessImpactInput struct {
	ChangedFiles []string `json:"changedFiles,omitempty" jsonschema:"workspace-relative paths that will be modified (default: every added, modified or removed file)"`
}

// AssessImpactOutput is the result of the assess_impact MCP tool.
type AssessImpactOutput struct {
	ChangedFiles []string           `json:"changedFiles"`
	Impact       graph.ImpactResult `json:"impact"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.ClusterNode `json:"clusters"`
}

// OpenFileInput is the input for the open_file MCP tool.
type OpenFileInput struct {
	Path   string `json:"path" jsonschema:"workspace-relative file path"`
	Symbol string `json:"symbol,omitempty" jsonschema:"exported symbol to jump to; falls back to line 1 when not found"`
}

// OpenFileOutput is the result of the open_file MCP tool.
type OpenFileOutput struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Warning string `json:"warning,omitempty"`
}
