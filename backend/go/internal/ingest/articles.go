package ingest

import (
	"MindGraphDB/backend/go/internal/models"
	"fmt"
	"strconv"
	"strings"
)

// ArticleSeparator 是文献 CSV 的列分隔符。
const ArticleSeparator = ';'

// NormalizeArticleHeader 规范化文献数据集的列名：去空白、转小写，空格替换为下划线。
func NormalizeArticleHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// ParseArticles 把表格转换为文献记录。任何一行出错都会返回 ErrMalformedRow。
func ParseArticles(t *Table) ([]models.Article, error) {
	if !t.Has("item_title") {
		return nil, fmt.Errorf("%w: 缺少必需的列 item_title", ErrMalformedRow)
	}

	articles := make([]models.Article, 0, len(t.Rows))
	for i, row := range t.Rows {
		a, err := parseArticle(t, row)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行: %v", ErrMalformedRow, i+2, err)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func parseArticle(t *Table, row []string) (models.Article, error) {
	a := models.Article{
		Title:            optionalString(t.Value(row, "item_title")),
		PublicationTitle: optionalString(t.Value(row, "publication_title")),
		DOI:              optionalString(t.Value(row, "item_doi")),
		Authors:          optionalString(t.Value(row, "authors")),
		URL:              optionalString(t.Value(row, "url")),
		ContentType:      optionalString(t.Value(row, "content_type")),
		Abstract:         optionalString(t.Value(row, "abstract")),
		Introduction:     optionalString(t.Value(row, "introduction")),
		Conclusion:       optionalString(t.Value(row, "conclusion")),
	}

	var err error
	if a.PublicationYear, err = optionalInt(t.Value(row, "publication_year")); err != nil {
		return a, fmt.Errorf("列 publication_year: %w", err)
	}
	if a.Number, err = optionalInt(t.Value(row, "number")); err != nil {
		return a, fmt.Errorf("列 number: %w", err)
	}
	return a, nil
}

// optionalInt 解析整数列，接受 "2021.0" 这样带零小数的写法。
func optionalInt(raw string) (*int, error) {
	if missingMarkers[strings.ToLower(raw)] {
		return nil, nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return &v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return nil, fmt.Errorf("无法解析整数 %q", raw)
	}
	v := int(f)
	return &v, nil
}
