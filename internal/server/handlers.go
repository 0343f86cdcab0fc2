package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dusk-indust/archgraph/internal/export"
	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/navigate"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Root       string `json:"root,omitempty"`
	Generation uint64 `json:"generation"`
}

// RefreshResponse is returned by POST /api/refresh.
type RefreshResponse struct {
	Stats      graph.GraphStats `json:"stats"`
	Generation uint64           `json:"generation"`
	Published  bool             `json:"published"`
}

// OpenRequest is the body of POST /api/open.
type OpenRequest struct {
	Path   string `json:"path" binding:"required"`
	Symbol string `json:"symbol"`
}

// ImpactResponse is returned by GET /api/impact.
type ImpactResponse struct {
	ChangedFiles []string           `json:"changedFiles"`
	Impact       graph.ImpactResult `json:"impact"`
}

func (s *Server) fail(c *gin.Context, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Root:       s.root,
		Generation: s.graphs.Generation(),
	})
}

func (s *Server) handleGraph(c *gin.Context) {
	status := graph.ChangeStatus(strings.ToLower(c.Query("status")))
	switch status {
	case "", graph.StatusAdded, graph.StatusRemoved, graph.StatusModified, graph.StatusUnchanged:
	default:
		s.fail(c, http.StatusBadRequest, "BAD_STATUS", errors.New("unknown change status "+strconv.Quote(c.Query("status"))))
		return
	}

	snap, err := s.graphs.Ensure(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, "BUILD_FAILED", err)
		return
	}
	if status == "" && c.Query("prefix") == "" {
		c.JSON(http.StatusOK, snap)
		return
	}
	c.JSON(http.StatusOK, snap.Filter(graph.SnapshotFilter{Status: status, PathPrefix: c.Query("prefix")}))
}

func (s *Server) handleRefresh(c *gin.Context) {
	snap, published, err := s.graphs.Refresh(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "BUILD_FAILED", err)
		return
	}
	c.JSON(http.StatusOK, RefreshResponse{
		Stats:      *graph.StatsOf(snap),
		Generation: s.graphs.Generation(),
		Published:  published,
	})
}

func (s *Server) handleDependencies(c *gin.Context) {
	node := c.Query("node")
	if node == "" {
		s.fail(c, http.StatusBadRequest, "MISSING_NODE", errors.New("node is required"))
		return
	}
	direction := graph.DirectionDownstream
	if strings.EqualFold(c.Query("direction"), string(graph.DirectionUpstream)) {
		direction = graph.DirectionUpstream
	}
	depth := 5
	if raw := c.Query("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			s.fail(c, http.StatusBadRequest, "BAD_DEPTH", errors.New("depth must be a positive integer"))
			return
		}
		depth = d
	}

	idx, ok := s.index(c)
	if !ok {
		return
	}
	chains, err := idx.GetDependencies(c.Request.Context(), node, direction, depth)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "QUERY_FAILED", err)
		return
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}
	c.JSON(http.StatusOK, gin.H{"chains": chains})
}

func (s *Server) handleImpact(c *gin.Context) {
	idx, ok := s.index(c)
	if !ok {
		return
	}
	files := c.QueryArray("file")
	if len(files) == 0 {
		for _, n := range s.graphs.Snapshot().Nodes {
			if n.ChangeStatus != graph.StatusUnchanged {
				files = append(files, n.ID)
			}
		}
		sort.Strings(files)
	}
	if len(files) == 0 {
		c.JSON(http.StatusOK, ImpactResponse{
			ChangedFiles: []string{},
			Impact:       graph.ImpactResult{DirectlyAffected: []string{}, TransitivelyAffected: []string{}},
		})
		return
	}
	impact, err := idx.AssessImpact(c.Request.Context(), files)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "QUERY_FAILED", err)
		return
	}
	c.JSON(http.StatusOK, ImpactResponse{ChangedFiles: files, Impact: *impact})
}

func (s *Server) handleClusters(c *gin.Context) {
	snap, err := s.graphs.Ensure(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, "BUILD_FAILED", err)
		return
	}
	clusters := graph.ComputeClusters(snap)
	if clusters == nil {
		clusters = []graph.ClusterNode{}
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

func (s *Server) handleOpen(c *gin.Context) {
	if s.opener == nil {
		s.fail(c, http.StatusNotImplemented, "NAVIGATION_DISABLED", errors.New("navigation is not configured"))
		return
	}
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	res, err := s.opener.Open(c.Request.Context(), req.Path, req.Symbol)
	switch {
	case errors.Is(err, navigate.ErrFileNotFound):
		s.fail(c, http.StatusNotFound, "FILE_NOT_FOUND", err)
	case err != nil:
		s.fail(c, http.StatusInternalServerError, "OPEN_FAILED", err)
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) handleDiagram(c *gin.Context) {
	snap, err := s.graphs.Ensure(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, "BUILD_FAILED", err)
		return
	}
	c.String(http.StatusOK, export.GenerateMermaid(snap))
}

// index returns the query index once a snapshot exists, writing the error
// response itself when it cannot.
func (s *Server) index(c *gin.Context) (graph.Index, bool) {
	idx := s.graphs.Index()
	if idx == nil {
		s.fail(c, http.StatusNotImplemented, "NO_INDEX", errors.New("no query index configured"))
		return nil, false
	}
	if _, err := s.graphs.Ensure(c.Request.Context()); err != nil {
		s.fail(c, http.StatusServiceUnavailable, "BUILD_FAILED", err)
		return nil, false
	}
	return idx, true
}
