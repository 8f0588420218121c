package search

import (
	"fmt"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/registry"
)

// minTokenRunes 是进入词表的最短词长，单字符词被忽略。
const minTokenRunes = 2

// Tokenizer 把一段文本切分为小写、去停用词后的词序列。
type Tokenizer interface {
	Tokens(text string) []string
}

// bleveTokenizer 使用 bleve 的 standard 分析器
// (unicode 分词 + 小写化 + 英文停用词)。
type bleveTokenizer struct {
	analyze func([]byte) analysis.TokenStream
}

// NewTokenizer 从 bleve 注册表中构建英文分词器。
func NewTokenizer() (Tokenizer, error) {
	cache := registry.NewCache()
	analyzer, err := cache.AnalyzerNamed(standard.Name)
	if err != nil {
		return nil, fmt.Errorf("无法构建 bleve 分析器 '%s': %w", standard.Name, err)
	}
	return &bleveTokenizer{analyze: analyzer.Analyze}, nil
}

func (t *bleveTokenizer) Tokens(text string) []string {
	stream := t.analyze([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		term := string(tok.Term)
		if utf8.RuneCountInString(term) < minTokenRunes {
			continue
		}
		tokens = append(tokens, term)
	}
	return tokens
}

// terms 返回一元词和相邻二元词。二元词在去除停用词之后构造。
func terms(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
