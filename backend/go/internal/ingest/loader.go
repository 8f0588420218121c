package ingest

import (
	"MindGraphDB/backend/go/internal/events"
	"MindGraphDB/backend/go/internal/graph"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// StudentWriter 批量写入学生记录。
type StudentWriter interface {
	UpsertBatch(ctx context.Context, students []models.Student) error
}

// ArticleWriter 批量写入文献记录。
type ArticleWriter interface {
	InsertBatch(ctx context.Context, articles []models.Article) error
}

// GraphWriter 把学生及其关系写入图数据库。
type GraphWriter interface {
	CreateStudent(ctx context.Context, node graph.StudentNode) error
	LinkCity(ctx context.Context, studentID int64, city string) error
	LinkProfession(ctx context.Context, studentID int64, profession string) error
	LinkCondition(ctx context.Context, studentID int64) error
}

// Loader 把数据文件导入关系库和图数据库。
// 文件先被完整解析，任一行出错则不写入任何数据。
type Loader struct {
	Students StudentWriter
	Articles ArticleWriter
	Graph    GraphWriter // 可以为空，此时跳过图导入
	Events   events.Publisher
	Workers  int
	Log      *logger.Logger
}

func (l *Loader) logger() *logger.Logger {
	if l.Log == nil {
		return logger.Discard()
	}
	return l.Log
}

func (l *Loader) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if l.Events == nil {
		return
	}
	if err := l.Events.Publish(ctx, eventType, payload); err != nil {
		l.logger().WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to publish domain event")
	}
}

// LoadStudents 导入学生数据集（CSV 或 XLSX），返回导入的记录数。
func (l *Loader) LoadStudents(ctx context.Context, path string) (int, error) {
	table, err := ReadFile(path, ',', NormalizeStudentHeader)
	if err != nil {
		return 0, err
	}
	students, err := ParseStudents(table)
	if err != nil {
		l.logger().WithError(models.ErrorInfo{Message: err.Error()}).Error("Student dataset rejected")
		return 0, err
	}

	if err := l.Students.UpsertBatch(ctx, students); err != nil {
		return 0, err
	}
	l.logger().WithPayload(map[string]interface{}{"students": len(students)}).Info("Loaded students into MySQL")

	if l.Graph != nil {
		if err := l.loadGraph(ctx, students); err != nil {
			return 0, err
		}
		l.logger().WithPayload(map[string]interface{}{"students": len(students)}).Info("Loaded students into Neo4j")
	}

	l.publish(ctx, events.StudentsLoaded, map[string]interface{}{"count": len(students), "source": path})
	return len(students), nil
}

// LoadArticles 导入以分号分隔的文献 CSV，返回导入的记录数。
func (l *Loader) LoadArticles(ctx context.Context, path string) (int, error) {
	table, err := ReadFile(path, ArticleSeparator, NormalizeArticleHeader)
	if err != nil {
		return 0, err
	}
	articles, err := ParseArticles(table)
	if err != nil {
		l.logger().WithError(models.ErrorInfo{Message: err.Error()}).Error("Article dataset rejected")
		return 0, err
	}

	if err := l.Articles.InsertBatch(ctx, articles); err != nil {
		return 0, err
	}
	l.logger().WithPayload(map[string]interface{}{"articles": len(articles)}).Info("Loaded articles into MySQL")
	l.publish(ctx, events.ArticlesLoaded, map[string]interface{}{"count": len(articles), "source": path})
	return len(articles), nil
}

// loadGraph 用协程池并发写入学生节点和关系，返回遇到的第一个错误。
func (l *Loader) loadGraph(ctx context.Context, students []models.Student) error {
	workers := l.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("创建图导入协程池失败: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := range students {
		s := students[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := l.writeStudentGraph(ctx, s); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			return fmt.Errorf("提交图导入任务失败: %w", submitErr)
		}
	}
	wg.Wait()
	return firstErr
}

func (l *Loader) writeStudentGraph(ctx context.Context, s models.Student) error {
	id := int64(s.ID)
	node := graph.StudentNode{
		ID:               id,
		Gender:           s.Gender,
		Age:              s.Age,
		CGPA:             s.CGPA,
		Depression:       s.Depression,
		SuicidalThoughts: s.SuicidalThoughts,
	}
	if err := l.Graph.CreateStudent(ctx, node); err != nil {
		return err
	}
	if s.City != nil {
		if err := l.Graph.LinkCity(ctx, id, *s.City); err != nil {
			return err
		}
	}
	if s.Profession != nil {
		if err := l.Graph.LinkProfession(ctx, id, *s.Profession); err != nil {
			return err
		}
	}
	if s.Depression == 1 {
		if err := l.Graph.LinkCondition(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
