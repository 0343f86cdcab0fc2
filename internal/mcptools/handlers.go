package mcptools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/archgraph/internal/builder"
	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/navigate"
)

// Opener opens a workspace file in the host editor.
type Opener interface {
	Open(ctx context.Context, path, symbol string) (*navigate.Result, error)
}

// GraphService backs the MCP tool handlers with the live graph.
type GraphService struct {
	graphs *builder.Service
	opener Opener
}

// NewGraphService creates a GraphService. opener may be nil, which disables
// the open_file tool's effect.
func NewGraphService(graphs *builder.Service, opener Opener) *GraphService {
	return &GraphService{graphs: graphs, opener: opener}
}

// BuildGraph rebuilds the workspace graph and returns its statistics.
func (s *GraphService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	snap, published, err := s.graphs.Refresh(ctx)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("build graph: %w", err)
	}
	return nil, BuildGraphOutput{
		Stats:      *graph.StatsOf(snap),
		Generation: s.graphs.Generation(),
		Published:  published,
	}, nil
}

// GetGraph returns the latest snapshot, optionally filtered.
func (s *GraphService) GetGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetGraphInput,
) (*mcp.CallToolResult, GetGraphOutput, error) {
	status, err := parseStatus(input.Status)
	if err != nil {
		return nil, GetGraphOutput{}, err
	}
	snap, err := s.graphs.Ensure(ctx)
	if err != nil {
		return nil, GetGraphOutput{}, fmt.Errorf("get graph: %w", err)
	}
	view := snap.Filter(graph.SnapshotFilter{Status: status, PathPrefix: input.PathPrefix})
	return nil, GetGraphOutput{Nodes: view.Nodes, Edges: view.Edges}, nil
}

// GetDependencies traverses the import graph from a given file.
func (s *GraphService) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	if input.NodeID == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("nodeId is required")
	}

	direction := graph.DirectionDownstream
	if strings.EqualFold(input.Direction, "upstream") {
		direction = graph.DirectionUpstream
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	idx, err := s.index(ctx)
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	chains, err := idx.GetDependencies(ctx, input.NodeID, direction, maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}

	return nil, GetDependenciesOutput{Chains: chains}, nil
}

// AssessImpact computes the blast radius of modifying a set of files. With
// no files given it uses the workspace's current changes.
func (s *GraphService) AssessImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessImpactInput,
) (*mcp.CallToolResult, AssessImpactOutput, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, AssessImpactOutput{}, err
	}

	changed := input.ChangedFiles
	if len(changed) == 0 {
		changed = changedFiles(s.graphs.Snapshot())
	}
	if len(changed) == 0 {
		return nil, AssessImpactOutput{}, fmt.Errorf("changedFiles is required when the workspace has no changes")
	}

	impact, err := idx.AssessImpact(ctx, changed)
	if err != nil {
		return nil, AssessImpactOutput{}, fmt.Errorf("assess impact: %w", err)
	}

	return nil, AssessImpactOutput{ChangedFiles: changed, Impact: *impact}, nil
}

// GetClusters returns the connected file groups of the latest snapshot.
func (s *GraphService) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	snap, err := s.graphs.Ensure(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, fmt.Errorf("get clusters: %w", err)
	}
	clusters := graph.ComputeClusters(snap)
	if clusters == nil {
		clusters = []graph.ClusterNode{}
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}

// OpenFile opens a file, or a symbol inside it, in the host editor.
func (s *GraphService) OpenFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenFileInput,
) (*mcp.CallToolResult, OpenFileOutput, error) {
	if input.Path == "" {
		return nil, OpenFileOutput{}, fmt.Errorf("path is required")
	}
	if s.opener == nil {
		return nil, OpenFileOutput{}, errors.New("navigation is not configured")
	}
	res, err := s.opener.Open(ctx, input.Path, input.Symbol)
	if err != nil {
		return nil, OpenFileOutput{}, err
	}
	return nil, OpenFileOutput{Path: res.Path, Line: res.Line, Warning: res.Warning}, nil
}

// index returns the query index, building the first snapshot if needed.
func (s *GraphService) index(ctx context.Context) (graph.Index, error) {
	idx := s.graphs.Index()
	if idx == nil {
		return nil, errors.New("no query index configured")
	}
	if _, err := s.graphs.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return idx, nil
}

// changedFiles lists every node that is not unchanged, sorted.
func changedFiles(snap *graph.Snapshot) []string {
	if snap == nil {
		return nil
	}
	var out []string
	for _, n := range snap.Nodes {
		if n.ChangeStatus != graph.StatusUnchanged {
			out = append(out, n.ID)
		}
	}
	sort.Strings(out)
	return out
}

func parseStatus(s string) (graph.ChangeStatus, error) {
	switch st := graph.ChangeStatus(strings.ToLower(s)); st {
	case "", graph.StatusAdded, graph.StatusRemoved, graph.StatusModified, graph.StatusUnchanged:
		return st, nil
	default:
		return "", fmt.Errorf("unknown change status %q", s)
	}
}
