package search

import (
	"MindGraphDB/backend/go/pkg/logger"
	"MindGraphDB/backend/go/pkg/util"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultMaxFeatures   = 1000
	DefaultPreviewLength = 300
	truncationMarker     = "..."
)

// State 是索引的生命周期状态。
type State string

const (
	StateUnfitted State = "unfitted"
	StateFitted   State = "fitted"
)

// Document 是检索语料中的一篇文献。加载后不再修改。
type Document struct {
	ID           uint
	Title        string
	Abstract     string
	Introduction string
	Authors      string
	Year         *int
}

// Text 返回参与 TF-IDF 拟合的全文：标题、摘要与引言。
func (d Document) Text() string {
	return d.Title + " " + d.Abstract + " " + d.Introduction
}

// Result 是一条检索结果。
type Result struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	Authors  string  `json:"authors"`
	Year     *int    `json:"year"`
	Score    float64 `json:"score"`
	Abstract *string `json:"abstract"`
}

// Status 描述当前索引的状态，供管理接口展示。
type Status struct {
	State      State      `json:"state"`
	Documents  int        `json:"documents"`
	Vocabulary int        `json:"vocabulary"`
	Generation uint64     `json:"generation"`
	FittedAt   *time.Time `json:"fitted_at,omitempty"`
}

// CorpusSource 提供当前的完整语料快照。
type CorpusSource interface {
	Documents(ctx context.Context) ([]Document, error)
}

// snapshot 是一次拟合的全部产物，发布后只读。
type snapshot struct {
	docs       []Document
	vectorizer *vectorizer
	vectors    []sparseVector
	generation uint64
	fittedAt   time.Time
}

// Options 配置索引参数。
type Options struct {
	MaxFeatures   int
	PreviewLength int
	CacheSize     int // 0 表示不缓存查询结果
}

// Index 是 TF-IDF 文献检索索引，状态机为 Unfitted -> Fitted。
// 读者通过原子指针获取不可变快照，Fit 只会整体替换快照，
// 因此并发读者不会看到重建到一半的索引；并发的 Fit 由 fitMu 串行化。
type Index struct {
	source    CorpusSource
	tokenizer Tokenizer
	opts      Options
	log       *logger.Logger

	current    atomic.Pointer[snapshot]
	fitMu      sync.Mutex
	generation uint64
	cache      *util.LRUCache[string, []Result]
}

// NewIndex 创建一个处于 Unfitted 状态的索引。
func NewIndex(source CorpusSource, tokenizer Tokenizer, opts Options, log *logger.Logger) (*Index, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("search: tokenizer 不能为空")
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultMaxFeatures
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if log == nil {
		log = logger.Discard()
	}
	ix := &Index{source: source, tokenizer: tokenizer, opts: opts, log: log}
	if opts.CacheSize > 0 {
		cache, err := util.NewLRU[string, []Result](util.CacheConfig{Capacity: opts.CacheSize})
		if err != nil {
			return nil, err
		}
		ix.cache = cache
	}
	return ix, nil
}

// Fit 在给定语料上重新拟合索引并整体替换旧状态。
// 语料为空时返回 false，且保留之前的状态。
func (ix *Index) Fit(corpus []Document) bool {
	ix.fitMu.Lock()
	defer ix.fitMu.Unlock()
	return ix.fitLocked(corpus)
}

func (ix *Index) fitLocked(corpus []Document) bool {
	if len(corpus) == 0 {
		ix.log.Warn("No articles available, TF-IDF index not fitted")
		return false
	}

	docs := make([]Document, len(corpus))
	copy(docs, corpus)

	tokenized := make([][]string, len(docs))
	for i, doc := range docs {
		tokenized[i] = terms(ix.tokenizer.Tokens(doc.Text()))
	}

	vec := fitVectorizer(tokenized, ix.opts.MaxFeatures)
	vectors := make([]sparseVector, len(docs))
	for i, docTerms := range tokenized {
		vectors[i] = vec.transform(docTerms)
	}

	ix.generation++
	ix.current.Store(&snapshot{
		docs:       docs,
		vectorizer: vec,
		vectors:    vectors,
		generation: ix.generation,
		fittedAt:   time.Now().UTC(),
	})
	if ix.cache != nil {
		ix.cache.Purge()
	}

	ix.log.WithPayload(map[string]interface{}{
		"documents":  len(docs),
		"vocabulary": len(vec.idf),
		"generation": ix.generation,
	}).Info("TF-IDF index fitted")
	return true
}

// Refit 从 CorpusSource 读取最新语料并重新拟合。
func (ix *Index) Refit(ctx context.Context) (bool, error) {
	ix.fitMu.Lock()
	defer ix.fitMu.Unlock()
	return ix.fitFromSourceLocked(ctx)
}

func (ix *Index) fitFromSourceLocked(ctx context.Context) (bool, error) {
	if ix.source == nil {
		return false, fmt.Errorf("search: 未配置语料来源")
	}
	corpus, err := ix.source.Documents(ctx)
	if err != nil {
		return false, fmt.Errorf("读取检索语料失败: %w", err)
	}
	return ix.fitLocked(corpus), nil
}

// ensureFitted 在 Unfitted 状态下触发一次拟合。
// 返回 nil 快照表示语料为空，无法拟合。
func (ix *Index) ensureFitted(ctx context.Context) (*snapshot, error) {
	if snap := ix.current.Load(); snap != nil {
		return snap, nil
	}

	ix.fitMu.Lock()
	defer ix.fitMu.Unlock()
	// 等锁期间可能已有其他请求完成了拟合。
	if snap := ix.current.Load(); snap != nil {
		return snap, nil
	}

	ix.log.Info("TF-IDF index unfitted, fitting on first query")
	if _, err := ix.fitFromSourceLocked(ctx); err != nil {
		return nil, err
	}
	return ix.current.Load(), nil
}

// Search 返回与查询最相似的至多 limit 篇文献，按相似度降序排列。
// 相似度为 0 的文献不会出现在结果中；分数相同的文献保持语料中的原始顺序。
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return []Result{}, nil
	}

	snap, err := ix.ensureFitted(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return []Result{}, nil
	}

	cacheKey := fmt.Sprintf("%d\x00%d\x00%s", snap.generation, limit, query)
	if ix.cache != nil {
		if cached, ok := ix.cache.Get(cacheKey); ok {
			return append([]Result(nil), cached...), nil
		}
	}

	results := ix.rank(snap, query, limit)
	if ix.cache != nil {
		ix.cache.Put(cacheKey, append([]Result(nil), results...))
	}
	return results, nil
}

func (ix *Index) rank(snap *snapshot, query string, limit int) []Result {
	queryVec := snap.vectorizer.transform(terms(ix.tokenizer.Tokens(query)))
	if queryVec.empty() {
		return []Result{}
	}

	type scored struct {
		pos   int
		score float64
	}
	candidates := make([]scored, 0, len(snap.vectors))
	for i, docVec := range snap.vectors {
		if score := queryVec.dot(docVec); score > 0 {
			candidates = append(candidates, scored{pos: i, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		doc := snap.docs[c.pos]
		results = append(results, Result{
			ID:       doc.ID,
			Title:    doc.Title,
			Authors:  doc.Authors,
			Year:     doc.Year,
			Score:    c.score,
			Abstract: Preview(doc.Abstract, ix.opts.PreviewLength),
		})
	}
	return results
}

// Status 返回索引当前状态。
func (ix *Index) Status() Status {
	snap := ix.current.Load()
	if snap == nil {
		return Status{State: StateUnfitted}
	}
	fittedAt := snap.fittedAt
	return Status{
		State:      StateFitted,
		Documents:  len(snap.docs),
		Vocabulary: len(snap.vectorizer.idf),
		Generation: snap.generation,
		FittedAt:   &fittedAt,
	}
}

// Preview 把摘要截断到 maxRunes 个字符，截断时追加 "..."。空摘要返回 nil。
func Preview(text string, maxRunes int) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if maxRunes > 0 && len(runes) > maxRunes {
		text = string(runes[:maxRunes]) + truncationMarker
	}
	return &text
}
