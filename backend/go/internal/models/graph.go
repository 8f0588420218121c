package models

// GraphStat 是图数据库中按城市或职业聚合的抑郁统计。
type GraphStat struct {
	Name           string  `json:"name"`
	Total          int64   `json:"total"`
	Depressed      int64   `json:"depressed"`
	DepressionRate float64 `json:"depression_rate"`
}

// CityCount 是某个城市中患抑郁学生的数量。
type CityCount struct {
	City           string `json:"city"`
	DepressedCount int64  `json:"depressed_count"`
}

// GraphEdge 是学生节点与其相邻节点之间的一条关系。
type GraphEdge struct {
	Source       map[string]interface{} `json:"source"`
	Relationship string                 `json:"relationship"`
	Target       map[string]interface{} `json:"target"`
	TargetLabels []string               `json:"target_labels,omitempty"`
}

// RankedStudent 是 PageRank 结果中的一项。
type RankedStudent struct {
	StudentID int64   `json:"student_id"`
	Score     float64 `json:"score"`
}

// Community 是 Louvain 社区发现的一个社区。
type Community struct {
	CommunityID int64   `json:"community_id"`
	Members     []int64 `json:"members"`
}
