package models

// Student 对应 students 表中的一条问卷记录。
// 数值列允许为空，因此使用指针类型；ID 直接取自数据集而不是自增。
type Student struct {
	ID                uint     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Gender            *string  `gorm:"size:32" json:"gender"`
	Age               *float64 `json:"age"`
	City              *string  `gorm:"size:128;index" json:"city"`
	Profession        *string  `gorm:"size:128;index" json:"profession"`
	AcademicPressure  *float64 `json:"academic_pressure"`
	WorkPressure      *float64 `json:"work_pressure"`
	CGPA              *float64 `gorm:"column:cgpa" json:"cgpa"`
	StudySatisfaction *float64 `json:"study_satisfaction"`
	JobSatisfaction   *float64 `json:"job_satisfaction"`
	SleepDuration     *string  `gorm:"size:64" json:"sleep_duration"`
	DietaryHabits     *string  `gorm:"size:64" json:"dietary_habits"`
	Degree            *string  `gorm:"size:64" json:"degree"`
	SuicidalThoughts  *string  `gorm:"size:16" json:"suicidal_thoughts"`
	WorkStudyHours    *float64 `json:"work_study_hours"`
	FinancialStress   *float64 `json:"financial_stress"`
	FamilyHistory     *string  `gorm:"size:16" json:"family_history"`
	Depression        int      `gorm:"not null;default:0;index" json:"depression"`
}

func (Student) TableName() string {
	return "students"
}

// StudentFilter 是学生列表查询支持的过滤条件。
type StudentFilter struct {
	Depression *int
	City       string
}

// Overview 是学生总体统计信息。
type Overview struct {
	TotalStudents         int64   `json:"total_students"`
	DepressedCount        int64   `json:"depressed_count"`
	DepressionRate        float64 `json:"depression_rate"`
	AvgCGPA               float64 `json:"avg_cgpa"`
	AvgAge                float64 `json:"avg_age"`
	SuicidalThoughtsCount int64   `json:"suicidal_thoughts_count"`
	SuicidalRate          float64 `json:"suicidal_rate"`
}

// GroupStat 是按城市或职业分组后的抑郁统计。
// Group 在序列化时使用分组字段名（city / profession），见 MarshalJSON。
type GroupStat struct {
	Field     string  `json:"-"`
	Group     string  `json:"-"`
	Total     int64   `json:"total"`
	Depressed int64   `json:"depressed"`
	Rate      float64 `json:"rate"`
}
