package audit

import (
	"MindGraphDB/backend/go/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Recorder 保存预测审计记录。
type Recorder interface {
	Record(ctx context.Context, input interface{}, prediction int, noDepression, depression float64) error
}

// MongoRecorder 把每次预测写入 MongoDB 集合。
type MongoRecorder struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoRecorder 使用指定数据库和集合创建审计记录器。
func NewMongoRecorder(client *mongo.Client, database, collection string) *MongoRecorder {
	return &MongoRecorder{
		collection: client.Database(database).Collection(collection),
		now:        time.Now,
	}
}

// NewAudit 构造一条审计记录，ID 为随机 UUID。
func NewAudit(at time.Time, input interface{}, prediction int, noDepression, depression float64) models.PredictionAudit {
	return models.PredictionAudit{
		ID:          uuid.NewString(),
		SubmittedAt: at.UTC(),
		Input:       input,
		Prediction:  prediction,
		NoDepress:   noDepression,
		Depression:  depression,
	}
}

func (r *MongoRecorder) Record(ctx context.Context, input interface{}, prediction int, noDepression, depression float64) error {
	doc := NewAudit(r.now(), input, prediction, noDepression, depression)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("写入预测审计失败: %w", err)
	}
	return nil
}

// Noop 在未配置 MongoDB 时丢弃审计记录。
type Noop struct{}

func (Noop) Record(context.Context, interface{}, int, float64, float64) error { return nil }
