//go:build cgo

package graph

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuIndex implements Index on an in-memory KuzuDB. Snapshots are stored as
// File nodes joined by IMPORTS relationships and queried with Cypher.
type KuzuIndex struct {
	mu   sync.Mutex // one connection, one statement at a time
	db   *kuzu.Database
	conn *kuzu.Connection
}

var _ Index = (*KuzuIndex)(nil)

var kuzuSchema = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		filename STRING,
		loc INT64,
		cumulative_loc INT64,
		status STRING,
		symbols STRING,
		PRIMARY KEY(path)
	)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File, symbols STRING, status STRING)`,
}

const (
	cypherClear      = `MATCH (f:File) DETACH DELETE f`
	cypherCreateFile = `CREATE (:File {path: $path, filename: $filename, loc: $loc, cumulative_loc: $cloc, status: $status, symbols: $symbols})`
	cypherCreateEdge = `MATCH (a:File {path: $source}), (b:File {path: $target})
		CREATE (a)-[:IMPORTS {symbols: $symbols, status: $status}]->(b)`
	cypherEdges       = `MATCH (a:File)-[:IMPORTS]->(b:File) RETURN a.path, b.path`
	cypherFileCount   = `MATCH (f:File) RETURN count(f)`
	cypherStatusStats = `MATCH (f:File) RETURN f.status, count(f), sum(f.loc)`
	cypherEdgeCount   = `MATCH ()-[r:IMPORTS]->() RETURN count(r)`
)

// NewKuzuIndex opens an in-memory database and creates the schema.
func NewKuzuIndex() (*KuzuIndex, error) {
	db, err := kuzu.OpenDatabase(":memory:", kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	idx := &KuzuIndex{db: db, conn: conn}
	for _, ddl := range kuzuSchema {
		if err := idx.run(ddl); err != nil {
			idx.Close()
			return nil, fmt.Errorf("kuzu: create schema: %w", err)
		}
	}
	return idx, nil
}

// Close releases the connection and database.
func (s *KuzuIndex) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// Load replaces the stored graph in one transaction. A failed load leaves
// the previous graph in place.
func (s *KuzuIndex) Load(ctx context.Context, snap *Snapshot) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.run("BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("kuzu: begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, s.run("ROLLBACK"))
		}
	}()

	if err := s.run(cypherClear); err != nil {
		return fmt.Errorf("kuzu: clear: %w", err)
	}
	for _, n := range snap.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		names := make([]string, len(n.Symbols))
		for i, sym := range n.Symbols {
			names[i] = sym.Name
		}
		if err := s.exec(cypherCreateFile, map[string]any{
			"path":     n.ID,
			"filename": n.Filename,
			"loc":      int64(n.LinesOfCode),
			"cloc":     int64(n.CumulativeLOC),
			"status":   string(n.ChangeStatus),
			"symbols":  strings.Join(names, ","),
		}); err != nil {
			return fmt.Errorf("kuzu: file %s: %w", n.ID, err)
		}
	}
	for _, e := range liveEdges(snap) {
		if err := s.exec(cypherCreateEdge, map[string]any{
			"source":  e.Source,
			"target":  e.Target,
			"symbols": strings.Join(e.Symbols, ","),
			"status":  string(e.ChangeStatus),
		}); err != nil {
			return fmt.Errorf("kuzu: import %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	if err := s.run("COMMIT"); err != nil {
		return fmt.Errorf("kuzu: commit: %w", err)
	}
	return nil
}

// GetDependencies walks the stored IMPORTS relationships from nodeID.
func (s *KuzuIndex) GetDependencies(_ context.Context, nodeID string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	switch dir {
	case DirectionUpstream, DirectionDownstream:
	default:
		return nil, fmt.Errorf("kuzu: unknown direction %q", dir)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	adj, err := s.adjacency()
	if err != nil {
		return nil, err
	}
	return adj.walk(nodeID, dir, maxDepth), nil
}

// AssessImpact follows IMPORTS backwards from the changed files.
func (s *KuzuIndex) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(cypherFileCount, nil)
	if err != nil {
		return nil, err
	}
	adj, err := s.adjacency()
	if err != nil {
		return nil, err
	}
	return adj.blastRadius(changedFiles, scalar(rows)), nil
}

// Stats aggregates the stored files by change status.
func (s *KuzuIndex) Stats(_ context.Context) (*GraphStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(cypherStatusStats, nil)
	if err != nil {
		return nil, err
	}
	st := &GraphStats{}
	for _, r := range rows {
		files := toInt(r[1])
		st.FileCount += files
		st.TotalLOC += toInt(r[2])
		switch ChangeStatus(fmt.Sprint(r[0])) {
		case StatusAdded:
			st.AddedFiles = files
		case StatusRemoved:
			st.RemovedFiles = files
		case StatusModified:
			st.ChangedFiles = files
		}
	}
	edges, err := s.query(cypherEdgeCount, nil)
	if err != nil {
		return nil, err
	}
	st.EdgeCount = scalar(edges)
	return st, nil
}

// adjacency reads every stored import into memory for traversal.
func (s *KuzuIndex) adjacency() (*adjacency, error) {
	rows, err := s.query(cypherEdges, nil)
	if err != nil {
		return nil, err
	}
	adj := newAdjacency()
	for _, r := range rows {
		adj.add(fmt.Sprint(r[0]), fmt.Sprint(r[1]))
	}
	adj.seal()
	return adj, nil
}

// run executes a statement without parameters and discards its result.
func (s *KuzuIndex) run(cypher string) error {
	res, err := s.conn.Query(cypher)
	if err != nil {
		return err
	}
	res.Close()
	return nil
}

func (s *KuzuIndex) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return err
	}
	res.Close()
	return nil
}

// query collects every row of a read statement in column order.
func (s *KuzuIndex) query(cypher string, params map[string]any) ([][]any, error) {
	var (
		res *kuzu.QueryResult
		err error
	)
	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		stmt, perr := s.conn.Prepare(cypher)
		if perr != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", perr)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next row: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: read row: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// scalar returns the single integer of a one-row, one-column result.
func scalar(rows [][]any) int {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0
	}
	return toInt(rows[0][0])
}

// toInt converts KuzuDB integer values. sum() over INT64 yields INT128,
// which the driver returns as *big.Int.
func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case *big.Int:
		return int(n.Int64())
	default:
		return 0
	}
}
