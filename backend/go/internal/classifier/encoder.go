package classifier

import "fmt"

// UnknownValue 是缺失分类值的占位符，同时也是未见过的分类值在预测时映射到的保留值。
const UnknownValue = "Unknown"

// CategoryEncoder 是分类字段取值到稠密整数编码的有序双向映射。
// 编码按首次出现的顺序分配，训练结束后只读。
type CategoryEncoder struct {
	values []string
	codes  map[string]int
}

// NewCategoryEncoder 创建一个空的编码器。
func NewCategoryEncoder() *CategoryEncoder {
	return &CategoryEncoder{codes: make(map[string]int)}
}

// encoderFromValues 按给定顺序恢复编码器，用于从模型文件加载。
func encoderFromValues(values []string) (*CategoryEncoder, error) {
	e := NewCategoryEncoder()
	for _, v := range values {
		if _, dup := e.codes[v]; dup {
			return nil, fmt.Errorf("分类取值 %q 重复", v)
		}
		e.Fit(v)
	}
	if _, ok := e.codes[UnknownValue]; !ok {
		return nil, fmt.Errorf("缺少保留取值 %q", UnknownValue)
	}
	return e, nil
}

// Fit 返回 value 的编码，首次出现时分配下一个编码。
func (e *CategoryEncoder) Fit(value string) int {
	if code, ok := e.codes[value]; ok {
		return code
	}
	code := len(e.values)
	e.values = append(e.values, value)
	e.codes[value] = code
	return code
}

// Code 返回 value 的编码；未见过的值返回 false。
func (e *CategoryEncoder) Code(value string) (int, bool) {
	code, ok := e.codes[value]
	return code, ok
}

// Lookup 返回 value 的编码，未见过的值映射到 UnknownValue 的编码。
func (e *CategoryEncoder) Lookup(value string) (int, error) {
	if code, ok := e.codes[value]; ok {
		return code, nil
	}
	if code, ok := e.codes[UnknownValue]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("分类取值 %q 未在训练中出现，且编码器没有保留取值", value)
}

// Value 把编码还原为原始取值。
func (e *CategoryEncoder) Value(code int) (string, bool) {
	if code < 0 || code >= len(e.values) {
		return "", false
	}
	return e.values[code], true
}

// Values 按编码顺序返回所有取值的副本。
func (e *CategoryEncoder) Values() []string {
	return append([]string(nil), e.values...)
}

func (e *CategoryEncoder) Len() int {
	return len(e.values)
}

// seal 保证保留取值存在。已有取值的编码不受影响。
func (e *CategoryEncoder) seal() {
	e.Fit(UnknownValue)
}
