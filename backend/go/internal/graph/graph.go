package graph

import (
	"MindGraphDB/backend/go/internal/database/neo4j"
	"MindGraphDB/backend/go/internal/models"
	"context"
	"errors"
	"fmt"

	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrStudentNotFound 表示图中没有该学生节点或该节点没有任何关系。
var ErrStudentNotFound = errors.New("student not found in graph")

// StudentNode 是写入图数据库的学生节点属性。
type StudentNode struct {
	ID               int64
	Gender           *string
	Age              *float64
	CGPA             *float64
	Depression       int
	SuicidalThoughts *string
}

// Store 封装了学生关系图上的所有 Cypher 操作。
type Store struct {
	client *neo4j.Neo4jClient
}

// NewStore 创建一个新的图存储。
func NewStore(client *neo4j.Neo4jClient) *Store {
	return &Store{client: client}
}

// HealthCheck 检查图数据库连接。
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *Store) write(ctx context.Context, query string, params map[string]interface{}) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func (s *Store) read(ctx context.Context, query string, params map[string]interface{}) ([]*driver.Record, error) {
	records, err := s.client.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*driver.Record), nil
}

// CreateStudent 创建或更新一个学生节点。
func (s *Store) CreateStudent(ctx context.Context, node StudentNode) error {
	params := map[string]interface{}{
		"id":                node.ID,
		"gender":            derefString(node.Gender),
		"age":               derefFloat(node.Age),
		"cgpa":              derefFloat(node.CGPA),
		"depression":        int64(node.Depression),
		"suicidal_thoughts": derefString(node.SuicidalThoughts),
	}
	if err := s.write(ctx, createStudentQuery, params); err != nil {
		return fmt.Errorf("创建学生节点 %d 失败: %w", node.ID, err)
	}
	return nil
}

// LinkCity 建立学生与城市之间的 LIVES_IN 关系。
func (s *Store) LinkCity(ctx context.Context, studentID int64, city string) error {
	err := s.write(ctx, linkCityQuery, map[string]interface{}{"student_id": studentID, "city": city})
	if err != nil {
		return fmt.Errorf("关联学生 %d 与城市失败: %w", studentID, err)
	}
	return nil
}

// LinkProfession 建立学生与职业之间的 HAS_PROFESSION 关系。
func (s *Store) LinkProfession(ctx context.Context, studentID int64, profession string) error {
	err := s.write(ctx, linkProfessionQuery, map[string]interface{}{"student_id": studentID, "profession": profession})
	if err != nil {
		return fmt.Errorf("关联学生 %d 与职业失败: %w", studentID, err)
	}
	return nil
}

// LinkCondition 仅在学生患抑郁时建立 SUFFERS_FROM 关系。
func (s *Store) LinkCondition(ctx context.Context, studentID int64) error {
	if err := s.write(ctx, linkConditionQuery, map[string]interface{}{"student_id": studentID}); err != nil {
		return fmt.Errorf("关联学生 %d 与抑郁状况失败: %w", studentID, err)
	}
	return nil
}

// StudentNetwork 返回某个学生的所有相邻关系。
func (s *Store) StudentNetwork(ctx context.Context, studentID int64) ([]models.GraphEdge, error) {
	records, err := s.read(ctx, studentNetworkQuery, map[string]interface{}{"student_id": studentID})
	if err != nil {
		return nil, fmt.Errorf("查询学生 %d 的关系网络失败: %w", studentID, err)
	}
	if len(records) == 0 {
		return nil, ErrStudentNotFound
	}
	return edgesFromRecords(records)
}

// Network 返回至多 limit 条学生出发的关系。
func (s *Store) Network(ctx context.Context, limit int) ([]models.GraphEdge, error) {
	records, err := s.read(ctx, networkQuery, map[string]interface{}{"limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("查询学生关系网络失败: %w", err)
	}
	return edgesFromRecords(records)
}

// DepressedByCity 返回每个城市中患抑郁学生的数量。
func (s *Store) DepressedByCity(ctx context.Context) ([]models.CityCount, error) {
	records, err := s.read(ctx, depressedByCityQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("按城市统计抑郁人数失败: %w", err)
	}
	counts := make([]models.CityCount, 0, len(records))
	for _, rec := range records {
		city, _, err := driver.GetRecordValue[string](rec, "city")
		if err != nil {
			return nil, err
		}
		count, _, err := driver.GetRecordValue[int64](rec, "depressed_count")
		if err != nil {
			return nil, err
		}
		counts = append(counts, models.CityCount{City: city, DepressedCount: count})
	}
	return counts, nil
}

// DepressionByCity 返回每个城市的抑郁率统计。
func (s *Store) DepressionByCity(ctx context.Context) ([]models.GraphStat, error) {
	return s.groupStats(ctx, depressionByCityQuery)
}

// DepressionByProfession 返回每个职业的抑郁率统计。
func (s *Store) DepressionByProfession(ctx context.Context) ([]models.GraphStat, error) {
	return s.groupStats(ctx, depressionByProfessionQuery)
}

func (s *Store) groupStats(ctx context.Context, query string) ([]models.GraphStat, error) {
	records, err := s.read(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("图统计查询失败: %w", err)
	}
	stats := make([]models.GraphStat, 0, len(records))
	for _, rec := range records {
		name, _, err := driver.GetRecordValue[string](rec, "name")
		if err != nil {
			return nil, err
		}
		total, _, err := driver.GetRecordValue[int64](rec, "total")
		if err != nil {
			return nil, err
		}
		depressed, _, err := driver.GetRecordValue[int64](rec, "depressed")
		if err != nil {
			return nil, err
		}
		rate, _, err := driver.GetRecordValue[float64](rec, "depression_rate")
		if err != nil {
			return nil, err
		}
		stats = append(stats, models.GraphStat{Name: name, Total: total, Depressed: depressed, DepressionRate: rate})
	}
	return stats, nil
}

// PageRank 在 GDS 图投影上运行 PageRank，返回得分最高的 limit 个学生。
func (s *Store) PageRank(ctx context.Context, limit int) ([]models.RankedStudent, error) {
	records, err := s.read(ctx, pageRankQuery, map[string]interface{}{
		"graph_name": ProjectionName,
		"limit":      int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("运行 PageRank 失败: %w", err)
	}
	ranked := make([]models.RankedStudent, 0, len(records))
	for _, rec := range records {
		id, _, err := driver.GetRecordValue[int64](rec, "student_id")
		if err != nil {
			return nil, err
		}
		score, _, err := driver.GetRecordValue[float64](rec, "score")
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, models.RankedStudent{StudentID: id, Score: score})
	}
	return ranked, nil
}

// Communities 在 GDS 图投影上运行 Louvain 社区发现。
func (s *Store) Communities(ctx context.Context) ([]models.Community, error) {
	records, err := s.read(ctx, communitiesQuery, map[string]interface{}{"graph_name": ProjectionName})
	if err != nil {
		return nil, fmt.Errorf("运行社区发现失败: %w", err)
	}
	communities := make([]models.Community, 0, len(records))
	for _, rec := range records {
		id, _, err := driver.GetRecordValue[int64](rec, "community_id")
		if err != nil {
			return nil, err
		}
		raw, _, err := driver.GetRecordValue[[]interface{}](rec, "members")
		if err != nil {
			return nil, err
		}
		members := make([]int64, 0, len(raw))
		for _, m := range raw {
			if v, ok := m.(int64); ok {
				members = append(members, v)
			}
		}
		communities = append(communities, models.Community{CommunityID: id, Members: members})
	}
	return communities, nil
}

func edgesFromRecords(records []*driver.Record) ([]models.GraphEdge, error) {
	edges := make([]models.GraphEdge, 0, len(records))
	for _, rec := range records {
		source, _, err := driver.GetRecordValue[driver.Node](rec, "s")
		if err != nil {
			return nil, err
		}
		rel, _, err := driver.GetRecordValue[string](rec, "relationship")
		if err != nil {
			return nil, err
		}
		target, _, err := driver.GetRecordValue[driver.Node](rec, "n")
		if err != nil {
			return nil, err
		}
		edges = append(edges, models.GraphEdge{
			Source:       source.Props,
			Relationship: rel,
			Target:       target.Props,
			TargetLabels: target.Labels,
		})
	}
	return edges, nil
}

func derefString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func derefFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
