package graph

// --- Enums ---

// ChangeStatus classifies a file or import relationship against the
// version-control working tree and index.
type ChangeStatus string

const (
	StatusAdded     ChangeStatus = "added"
	StatusRemoved   ChangeStatus = "removed"
	StatusModified  ChangeStatus = "modified" // files only
	StatusUnchanged ChangeStatus = "unchanged"
)

// SymbolKind is the coarse category of an exported declaration.
type SymbolKind string

const (
	SymbolKindFunction      SymbolKind = "function"
	SymbolKindClass         SymbolKind = "class"
	SymbolKindInterface     SymbolKind = "interface"
	SymbolKindVariable      SymbolKind = "variable"
	SymbolKindConstant      SymbolKind = "constant"
	SymbolKindMethod        SymbolKind = "method"
	SymbolKindProperty      SymbolKind = "property"
	SymbolKindEnum          SymbolKind = "enum"
	SymbolKindModule        SymbolKind = "module"
	SymbolKindNamespace     SymbolKind = "namespace"
	SymbolKindTypeParameter SymbolKind = "type-parameter"
	SymbolKindSymbol        SymbolKind = "symbol"
)

// WholeModule is the sentinel symbol for side-effect and whole-module imports.
const WholeModule = "*"

// MaxSymbols caps the exported symbols kept per file.
const MaxSymbols = 15

// --- Models ---

// Symbol is one exported declaration of a file.
type Symbol struct {
	Name string     `json:"name"`
	Kind SymbolKind `json:"kind"`
	Line int        `json:"line,omitempty"` // 1-based, 0 when unknown
}

// FileNode represents one source file in the project graph.
type FileNode struct {
	Path          string       `json:"path"`
	LinesOfCode   int          `json:"linesOfCode"`
	Symbols       []Symbol     `json:"symbols"`
	ChangeStatus  ChangeStatus `json:"changeStatus"`
	DisplayWidth  int          `json:"width"`
	DisplayHeight int          `json:"height"`
}

// Edge is a directed import relationship: Source imports something from Target.
type Edge struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Symbols      []string     `json:"symbols"` // set semantics, first-appearance order
	ChangeStatus ChangeStatus `json:"changeStatus"`
}

// --- Snapshot (the contract with the rendering layer) ---

// SnapshotNode is the rendered view of a FileNode.
type SnapshotNode struct {
	ID            string       `json:"id"`
	Path          string       `json:"path"`
	Filename      string       `json:"filename"`
	Icon          string       `json:"icon"`
	LinesOfCode   int          `json:"linesOfCode"`
	CumulativeLOC int          `json:"cumulativeLOC"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	ChangeStatus  ChangeStatus `json:"changeStatus"`
	Symbols       []Symbol     `json:"symbols"`
}

// SnapshotEdge is the rendered view of an Edge.
type SnapshotEdge struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Symbols      []string     `json:"symbols"`
	ChangeStatus ChangeStatus `json:"changeStatus"`
}

// Snapshot is an immutable value produced by ProjectGraph.Materialize.
// Consumers must copy before mutating; nothing flows back into the model.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes"`
	Edges []SnapshotEdge `json:"edges"`
}

// Node returns the node with the given id, or nil.
func (s *Snapshot) Node(id string) *SnapshotNode {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// --- Query results ---

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this depend on?
	DirectionDownstream Direction = "downstream" // what depends on this?
)

// DependencyChain is an ordered sequence of nodes forming a dependency path.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// ImpactResult describes the blast radius of changing a set of files.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directlyAffected"`
	TransitivelyAffected []string `json:"transitivelyAffected"`
	RiskScore            float64  `json:"riskScore"` // 0.0–1.0, affected / total files
}

// ClusterNode is a group of files connected through imports.
type ClusterNode struct {
	Name          string   `json:"name"`
	CohesionScore float64  `json:"cohesionScore"`
	Members       []string `json:"members"`
}

// GraphStats summarizes a snapshot.
type GraphStats struct {
	FileCount    int `json:"fileCount"`
	EdgeCount    int `json:"edgeCount"`
	AddedFiles   int `json:"addedFiles"`
	RemovedFiles int `json:"removedFiles"`
	ChangedFiles int `json:"modifiedFiles"`
	TotalLOC     int `json:"totalLoc"`
}
