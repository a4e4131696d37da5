package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"quizflow-service/internal/domain"
)

// GraphStore keeps quiz versions, nodes and edges in Postgres through bun.
// Deleting a node removes its edges through ON DELETE CASCADE.
type GraphStore struct {
	db *bun.DB
}

func NewGraphStore(db *bun.DB) *GraphStore {
	return &GraphStore{db: db}
}

func (s *GraphStore) CreateGraph(ctx context.Context, graph domain.QuizGraph) error {
	version := toVersionRow(graph.Version)
	nodes := make([]nodeRow, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		row, err := toNodeRow(n)
		if err != nil {
			return err
		}
		nodes = append(nodes, row)
	}
	edges := make([]edgeRow, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		row, err := toEdgeRow(e)
		if err != nil {
			return err
		}
		edges = append(edges, row)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&version).Exec(ctx); err != nil {
			return fmt.Errorf("insert version: %w", mapError(err))
		}
		if len(nodes) > 0 {
			if _, err := tx.NewInsert().Model(&nodes).Exec(ctx); err != nil {
				return fmt.Errorf("insert nodes: %w", mapError(err))
			}
		}
		if len(edges) > 0 {
			if _, err := tx.NewInsert().Model(&edges).Exec(ctx); err != nil {
				return fmt.Errorf("insert edges: %w", mapError(err))
			}
		}
		return nil
	})
}

func (s *GraphStore) CreateVersion(ctx context.Context, version domain.QuizVersion) error {
	row := toVersionRow(version)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert version: %w", mapError(err))
	}
	return nil
}

func (s *GraphStore) GetVersion(ctx context.Context, versionID string) (domain.QuizVersion, error) {
	return getVersion(ctx, s.db, versionID)
}

func (s *GraphStore) UpdateVersion(ctx context.Context, version domain.QuizVersion) error {
	row := toVersionRow(version)
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update version: %w", err)
	}
	return expectOne(res, domain.ErrVersionNotFound)
}

func (s *GraphStore) ListVersions(ctx context.Context, name string) ([]domain.QuizVersion, error) {
	var rows []versionRow
	q := s.db.NewSelect().Model(&rows).Order("created_at", "id")
	if name != "" {
		q = q.Where("name = ?", name)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	out := make([]domain.QuizVersion, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *GraphStore) CreateNode(ctx context.Context, node domain.QuizNode) error {
	row, err := toNodeRow(node)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if errors.Is(mapError(err), errForeignKey) {
			return domain.ErrVersionNotFound
		}
		return fmt.Errorf("insert node: %w", mapError(err))
	}
	return nil
}

func (s *GraphStore) UpdateNode(ctx context.Context, node domain.QuizNode) error {
	row, err := toNodeRow(node)
	if err != nil {
		return err
	}
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update node: %w", mapError(err))
	}
	return expectOne(res, domain.ErrNodeNotFound)
}

func (s *GraphStore) GetNode(ctx context.Context, nodeID string) (domain.QuizNode, error) {
	var row nodeRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", nodeID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizNode{}, domain.ErrNodeNotFound
	}
	if err != nil {
		return domain.QuizNode{}, fmt.Errorf("get node: %w", err)
	}
	return row.domain()
}

func (s *GraphStore) DeleteNode(ctx context.Context, nodeID string) error {
	res, err := s.db.NewDelete().Model((*nodeRow)(nil)).Where("id = ?", nodeID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	return expectOne(res, domain.ErrNodeNotFound)
}

func (s *GraphStore) CreateEdge(ctx context.Context, edge domain.QuizEdge) error {
	row, err := toEdgeRow(edge)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if errors.Is(mapError(err), errForeignKey) {
			return fmt.Errorf("%w: edge %s", domain.ErrUnknownNode, edge.ID)
		}
		return fmt.Errorf("insert edge: %w", mapError(err))
	}
	return nil
}

func (s *GraphStore) UpdateEdge(ctx context.Context, edge domain.QuizEdge) error {
	row, err := toEdgeRow(edge)
	if err != nil {
		return err
	}
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		if errors.Is(mapError(err), errForeignKey) {
			return fmt.Errorf("%w: edge %s", domain.ErrUnknownNode, edge.ID)
		}
		return fmt.Errorf("update edge: %w", err)
	}
	return expectOne(res, domain.ErrEdgeNotFound)
}

func (s *GraphStore) GetEdge(ctx context.Context, edgeID string) (domain.QuizEdge, error) {
	var row edgeRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", edgeID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizEdge{}, domain.ErrEdgeNotFound
	}
	if err != nil {
		return domain.QuizEdge{}, fmt.Errorf("get edge: %w", err)
	}
	return row.domain()
}

func (s *GraphStore) DeleteEdge(ctx context.Context, edgeID string) error {
	res, err := s.db.NewDelete().Model((*edgeRow)(nil)).Where("id = ?", edgeID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	return expectOne(res, domain.ErrEdgeNotFound)
}

// LoadGraph reads a version in one repeatable-read snapshot. Nodes come back
// by order_index then insertion order.
func (s *GraphStore) LoadGraph(ctx context.Context, versionID string) (domain.QuizGraph, error) {
	var graph domain.QuizGraph
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		version, err := getVersion(ctx, tx, versionID)
		if err != nil {
			return err
		}
		graph.Version = version

		var nodes []nodeRow
		if err := tx.NewSelect().Model(&nodes).
			Where("version_id = ?", versionID).
			Order("order_index", "seq").
			Scan(ctx); err != nil {
			return fmt.Errorf("load nodes: %w", err)
		}
		var edges []edgeRow
		if err := tx.NewSelect().Model(&edges).
			Where("version_id = ?", versionID).
			Order("seq").
			Scan(ctx); err != nil {
			return fmt.Errorf("load edges: %w", err)
		}

		graph.Nodes = make([]domain.QuizNode, 0, len(nodes))
		for _, r := range nodes {
			n, err := r.domain()
			if err != nil {
				return err
			}
			graph.Nodes = append(graph.Nodes, n)
		}
		graph.Edges = make([]domain.QuizEdge, 0, len(edges))
		for _, r := range edges {
			e, err := r.domain()
			if err != nil {
				return err
			}
			graph.Edges = append(graph.Edges, e)
		}
		return nil
	})
	if err != nil {
		return domain.QuizGraph{}, err
	}
	return graph, nil
}

func getVersion(ctx context.Context, db bun.IDB, versionID string) (domain.QuizVersion, error) {
	var row versionRow
	err := db.NewSelect().Model(&row).Where("id = ?", versionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizVersion{}, domain.ErrVersionNotFound
	}
	if err != nil {
		return domain.QuizVersion{}, fmt.Errorf("get version: %w", err)
	}
	return row.domain(), nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// nodeKeyConstraint is the name Postgres gives UNIQUE (version_id, key).
const nodeKeyConstraint = "quiz_nodes_version_id_key_key"

var errForeignKey = errors.New("foreign key violation")

// mapError turns Postgres integrity violations into domain errors.
func mapError(err error) error {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Field('C') {
	case "23505":
		if pgErr.Field('n') == nodeKeyConstraint {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateNodeKey, pgErr.Field('D'))
		}
	case "23503":
		return fmt.Errorf("%w: %s", errForeignKey, pgErr.Field('M'))
	}
	return err
}
