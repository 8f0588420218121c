package ingest

import (
	"MindGraphDB/backend/go/internal/models"
	"fmt"
	"strconv"
	"strings"
)

// studentAliases 把数据集中的长列名映射到统一字段名。
var studentAliases = map[string]string{
	"have_you_ever_had_suicidal_thoughts_?": "suicidal_thoughts",
	"family_history_of_mental_illness":      "family_history",
}

// NormalizeStudentHeader 规范化学生数据集的列名：去空白、转小写，空格和 / 替换为下划线，再应用别名。
func NormalizeStudentHeader(h string) string {
	name := strings.ToLower(strings.TrimSpace(h))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	if alias, ok := studentAliases[name]; ok {
		return alias
	}
	return name
}

// missingMarkers 是数值列中视为缺失的取值。
var missingMarkers = map[string]bool{"": true, "?": true, "na": true, "nan": true, "null": true}

// requiredStudentColumns 缺少任一列时整个文件被拒绝。
var requiredStudentColumns = []string{"id", "depression"}

// ParseStudents 把表格转换为学生记录。任何一行出错都会返回 ErrMalformedRow，且不返回部分结果。
func ParseStudents(t *Table) ([]models.Student, error) {
	for _, column := range requiredStudentColumns {
		if !t.Has(column) {
			return nil, fmt.Errorf("%w: 缺少必需的列 %s", ErrMalformedRow, column)
		}
	}

	students := make([]models.Student, 0, len(t.Rows))
	seen := make(map[uint]int, len(t.Rows))
	for i, row := range t.Rows {
		line := i + 2
		s, err := parseStudent(t, row)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行: %v", ErrMalformedRow, line, err)
		}
		if prev, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: 第 %d 行: id %d 与第 %d 行重复", ErrMalformedRow, line, s.ID, prev)
		}
		seen[s.ID] = line
		students = append(students, s)
	}
	return students, nil
}

func parseStudent(t *Table, row []string) (models.Student, error) {
	var s models.Student

	id, err := strconv.ParseUint(t.Value(row, "id"), 10, 64)
	if err != nil || id == 0 {
		return s, fmt.Errorf("无效的 id %q", t.Value(row, "id"))
	}
	s.ID = uint(id)

	numeric := []struct {
		column string
		dest   **float64
	}{
		{"age", &s.Age},
		{"academic_pressure", &s.AcademicPressure},
		{"work_pressure", &s.WorkPressure},
		{"cgpa", &s.CGPA},
		{"study_satisfaction", &s.StudySatisfaction},
		{"job_satisfaction", &s.JobSatisfaction},
		{"work_study_hours", &s.WorkStudyHours},
		{"financial_stress", &s.FinancialStress},
	}
	for _, f := range numeric {
		v, err := optionalFloat(t.Value(row, f.column))
		if err != nil {
			return s, fmt.Errorf("列 %s: %w", f.column, err)
		}
		*f.dest = v
	}

	text := []struct {
		column string
		dest   **string
	}{
		{"gender", &s.Gender},
		{"city", &s.City},
		{"profession", &s.Profession},
		{"sleep_duration", &s.SleepDuration},
		{"dietary_habits", &s.DietaryHabits},
		{"degree", &s.Degree},
		{"suicidal_thoughts", &s.SuicidalThoughts},
		{"family_history", &s.FamilyHistory},
	}
	for _, f := range text {
		*f.dest = optionalString(t.Value(row, f.column))
	}

	switch raw := t.Value(row, "depression"); raw {
	case "0":
		s.Depression = 0
	case "1":
		s.Depression = 1
	default:
		return s, fmt.Errorf("列 depression 的取值 %q 不是 0 或 1", raw)
	}
	return s, nil
}

func optionalFloat(raw string) (*float64, error) {
	if missingMarkers[strings.ToLower(raw)] {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("无法解析数值 %q", raw)
	}
	return &v, nil
}

func optionalString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}
