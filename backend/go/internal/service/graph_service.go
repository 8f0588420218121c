package service

import (
	"MindGraphDB/backend/go/internal/graph"
	"MindGraphDB/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
)

// GraphReader 是 GraphService 需要的图查询接口，由 graph.Store 实现。
type GraphReader interface {
	HealthCheck(ctx context.Context) error
	StudentNetwork(ctx context.Context, studentID int64) ([]models.GraphEdge, error)
	Network(ctx context.Context, limit int) ([]models.GraphEdge, error)
	DepressedByCity(ctx context.Context) ([]models.CityCount, error)
	DepressionByCity(ctx context.Context) ([]models.GraphStat, error)
	DepressionByProfession(ctx context.Context) ([]models.GraphStat, error)
	PageRank(ctx context.Context, limit int) ([]models.RankedStudent, error)
	Communities(ctx context.Context) ([]models.Community, error)
}

// GraphService 转发图查询。未配置 Neo4j 时所有方法返回 ErrUnavailable。
type GraphService struct {
	graph GraphReader
}

func NewGraphService(g GraphReader) *GraphService {
	return &GraphService{graph: g}
}

func (s *GraphService) ready() error {
	if s.graph == nil {
		return fmt.Errorf("%w: neo4j is not configured", ErrUnavailable)
	}
	return nil
}

func (s *GraphService) HealthCheck(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.graph.HealthCheck(ctx)
}

// StudentNetwork 返回某个学生的所有出边，学生不存在时返回 ErrNotFound。
func (s *GraphService) StudentNetwork(ctx context.Context, studentID int64) ([]models.GraphEdge, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	edges, err := s.graph.StudentNetwork(ctx, studentID)
	if errors.Is(err, graph.ErrStudentNotFound) {
		return nil, fmt.Errorf("%w: student %d", ErrNotFound, studentID)
	}
	return edges, err
}

func (s *GraphService) Network(ctx context.Context, limit int) ([]models.GraphEdge, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.Network(ctx, limit)
}

func (s *GraphService) DepressedByCity(ctx context.Context) ([]models.CityCount, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.DepressedByCity(ctx)
}

func (s *GraphService) DepressionByCity(ctx context.Context) ([]models.GraphStat, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.DepressionByCity(ctx)
}

func (s *GraphService) DepressionByProfession(ctx context.Context) ([]models.GraphStat, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.DepressionByProfession(ctx)
}

// PageRank 返回 PageRank 得分最高的学生。
func (s *GraphService) PageRank(ctx context.Context, limit int) ([]models.RankedStudent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.PageRank(ctx, limit)
}

// Communities 返回 Louvain 社区划分。
func (s *GraphService) Communities(ctx context.Context) ([]models.Community, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.Communities(ctx)
}
