package classifier

import "fmt"

// Record 是一条问卷记录：8 个数值字段、5 个分类字段和抑郁标签。
// 缺失的字段为 nil。
type Record struct {
	Gender            *string  `json:"gender"`
	Age               *float64 `json:"age"`
	AcademicPressure  *float64 `json:"academic_pressure"`
	WorkPressure      *float64 `json:"work_pressure"`
	CGPA              *float64 `json:"cgpa"`
	StudySatisfaction *float64 `json:"study_satisfaction"`
	JobSatisfaction   *float64 `json:"job_satisfaction"`
	SleepDuration     *string  `json:"sleep_duration"`
	DietaryHabits     *string  `json:"dietary_habits"`
	SuicidalThoughts  *string  `json:"suicidal_thoughts"`
	WorkStudyHours    *float64 `json:"work_study_hours"`
	FinancialStress   *float64 `json:"financial_stress"`
	FamilyHistory     *string  `json:"family_history"`
	Depression        int      `json:"depression"`
}

// NumericFields 和 CategoricalFields 固定了特征向量的维度顺序：先数值字段，后分类字段。
var (
	NumericFields = []string{
		"academic_pressure", "work_pressure", "cgpa",
		"study_satisfaction", "job_satisfaction", "work_study_hours",
		"financial_stress", "age",
	}
	CategoricalFields = []string{
		"gender", "sleep_duration", "dietary_habits",
		"suicidal_thoughts", "family_history",
	}
)

// NumFeatures 是特征向量的维度。
var NumFeatures = len(NumericFields) + len(CategoricalFields)

func numericValue(r *Record, field string) *float64 {
	switch field {
	case "academic_pressure":
		return r.AcademicPressure
	case "work_pressure":
		return r.WorkPressure
	case "cgpa":
		return r.CGPA
	case "study_satisfaction":
		return r.StudySatisfaction
	case "job_satisfaction":
		return r.JobSatisfaction
	case "work_study_hours":
		return r.WorkStudyHours
	case "financial_stress":
		return r.FinancialStress
	case "age":
		return r.Age
	}
	return nil
}

func categoricalValue(r *Record, field string) *string {
	switch field {
	case "gender":
		return r.Gender
	case "sleep_duration":
		return r.SleepDuration
	case "dietary_habits":
		return r.DietaryHabits
	case "suicidal_thoughts":
		return r.SuicidalThoughts
	case "family_history":
		return r.FamilyHistory
	}
	return nil
}

// Mode 决定 Encode 是否允许扩充分类编码器。
type Mode int

const (
	// ModeFitAndEncode 为新出现的分类取值分配编码，只在训练时使用。
	ModeFitAndEncode Mode = iota
	// ModeEncodeOnly 只使用已有编码，未见过的取值映射到 UnknownValue。
	ModeEncodeOnly
)

// FeatureEncoder 持有每个分类字段的编码器，负责把 Record 转成特征向量。
type FeatureEncoder struct {
	encoders map[string]*CategoryEncoder
}

// NewFeatureEncoder 为每个分类字段创建空编码器。
func NewFeatureEncoder() *FeatureEncoder {
	f := &FeatureEncoder{encoders: make(map[string]*CategoryEncoder, len(CategoricalFields))}
	for _, field := range CategoricalFields {
		f.encoders[field] = NewCategoryEncoder()
	}
	return f
}

// Encoder 返回某个分类字段的编码器。
func (f *FeatureEncoder) Encoder(field string) (*CategoryEncoder, bool) {
	e, ok := f.encoders[field]
	return e, ok
}

// Encode 把记录转换为固定维度和顺序的特征向量。
// 缺失的数值填 0，缺失的分类值按 UnknownValue 处理。
func (f *FeatureEncoder) Encode(r *Record, mode Mode) ([]float64, error) {
	vec := make([]float64, 0, NumFeatures)
	for _, field := range NumericFields {
		if v := numericValue(r, field); v != nil {
			vec = append(vec, *v)
		} else {
			vec = append(vec, 0)
		}
	}
	for _, field := range CategoricalFields {
		enc, ok := f.encoders[field]
		if !ok {
			return nil, fmt.Errorf("字段 %s 没有对应的编码器", field)
		}
		value := UnknownValue
		if v := categoricalValue(r, field); v != nil {
			value = *v
		}
		var code int
		switch mode {
		case ModeFitAndEncode:
			code = enc.Fit(value)
		case ModeEncodeOnly:
			var err error
			if code, err = enc.Lookup(value); err != nil {
				return nil, fmt.Errorf("字段 %s: %w", field, err)
			}
		default:
			return nil, fmt.Errorf("未知的编码模式 %d", mode)
		}
		vec = append(vec, float64(code))
	}
	return vec, nil
}

// seal 在训练结束时为每个编码器补上保留取值。
func (f *FeatureEncoder) seal() {
	for _, enc := range f.encoders {
		enc.seal()
	}
}
