package service

import (
	"MindGraphDB/backend/go/internal/events"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/internal/search"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
)

// ArticleRepository 是 ArticleService 需要的文献数据访问接口。
type ArticleRepository interface {
	List(ctx context.Context, skip, limit int) ([]models.Article, error)
	Get(ctx context.Context, id uint) (*models.Article, error)
	All(ctx context.Context) ([]models.Article, error)
}

// ArticleService 提供文献查询和 TF-IDF 检索。它同时是检索索引的语料来源。
type ArticleService struct {
	articles ArticleRepository
	index    *search.Index
	events   events.Publisher
	log      *logger.Logger
}

// RebuildResult 是一次索引重建的结果。Fitted 为 false 表示语料为空，旧索引保持不变。
type RebuildResult struct {
	Fitted bool          `json:"fitted"`
	Status search.Status `json:"status"`
}

// NewArticleService 创建 ArticleService 及其检索索引，索引在第一次查询时拟合。
func NewArticleService(articles ArticleRepository, tokenizer search.Tokenizer, opts search.Options, pub events.Publisher, log *logger.Logger) (*ArticleService, error) {
	s := &ArticleService{articles: articles, events: pub, log: orDiscard(log)}
	if s.events == nil {
		s.events = events.Noop{}
	}
	index, err := search.NewIndex(s, tokenizer, opts, s.log)
	if err != nil {
		return nil, err
	}
	s.index = index
	return s, nil
}

// Documents 实现 search.CorpusSource，每次读取全部文献。
func (s *ArticleService) Documents(ctx context.Context) ([]search.Document, error) {
	articles, err := s.articles.All(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]search.Document, len(articles))
	for i, a := range articles {
		docs[i] = DocumentFromArticle(a)
	}
	return docs, nil
}

func (s *ArticleService) List(ctx context.Context, skip, limit int) ([]models.Article, error) {
	return s.articles.List(ctx, skip, limit)
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	return s.articles.Get(ctx, id)
}

// Search 返回与查询最相关的文献。
func (s *ArticleService) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return s.index.Search(ctx, query, limit)
}

// Rebuild 从数据库重新读取语料并重建索引。
func (s *ArticleService) Rebuild(ctx context.Context) (*RebuildResult, error) {
	fitted, err := s.index.Refit(ctx)
	if err != nil {
		return nil, err
	}
	status := s.index.Status()
	if fitted {
		publish(ctx, s.events, s.log, events.IndexRebuilt, map[string]interface{}{
			"documents":  status.Documents,
			"vocabulary": status.Vocabulary,
			"generation": status.Generation,
		})
	}
	return &RebuildResult{Fitted: fitted, Status: status}, nil
}

// IndexStatus 返回检索索引的当前状态。
func (s *ArticleService) IndexStatus() search.Status {
	return s.index.Status()
}

// DocumentFromArticle 把文献记录转换为检索文档，缺失字段按空串处理。
func DocumentFromArticle(a models.Article) search.Document {
	return search.Document{
		ID:           a.ID,
		Title:        deref(a.Title),
		Abstract:     deref(a.Abstract),
		Introduction: deref(a.Introduction),
		Authors:      deref(a.Authors),
		Year:         a.PublicationYear,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
