package store

import (
	"MindGraphDB/backend/go/internal/models"
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ArticleStore 封装了 articles 表的读写操作。
type ArticleStore struct {
	DB *gorm.DB
}

func NewArticleStore(db *gorm.DB) *ArticleStore {
	return &ArticleStore{DB: db}
}

// List 按主键顺序分页返回文献。
func (s *ArticleStore) List(ctx context.Context, skip, limit int) ([]models.Article, error) {
	articles := make([]models.Article, 0)
	if err := s.DB.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("查询文献列表失败: %w", err)
	}
	return articles, nil
}

// Get 按 ID 查找文献，不存在时返回 ErrNotFound。
func (s *ArticleStore) Get(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := s.DB.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &article, nil
}

// All 按主键顺序返回全部文献，作为检索语料。
func (s *ArticleStore) All(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := s.DB.WithContext(ctx).Order("id").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("读取全部文献失败: %w", err)
	}
	return articles, nil
}

// InsertBatch 在一个事务中插入一批文献。
func (s *ArticleStore) InsertBatch(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(articles, 200).Error; err != nil {
			return fmt.Errorf("写入文献数据失败: %w", err)
		}
		return nil
	})
}
