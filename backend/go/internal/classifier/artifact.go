package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ArtifactVersion 是当前模型文件格式的版本号。
const ArtifactVersion = 1

// ErrUnsupportedArtifact 表示模型文件版本无法识别或内容不完整。
var ErrUnsupportedArtifact = errors.New("unsupported model artifact")

// artifact 是模型文件的 JSON 结构：学习到的参数加上每个分类字段的取值表（按编码顺序）。
type artifact struct {
	Version           int                 `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	NumericFields     []string            `json:"numeric_fields"`
	CategoricalFields []string            `json:"categorical_fields"`
	Classes           []int               `json:"classes"`
	ClassCount        []float64           `json:"class_count"`
	ClassPrior        []float64           `json:"class_prior"`
	Theta             [][]float64         `json:"theta"`
	Var               [][]float64         `json:"var"`
	Epsilon           float64             `json:"epsilon"`
	Encoders          map[string][]string `json:"encoders"`
}

func encodeArtifact(m *Model) artifact {
	a := artifact{
		Version:           ArtifactVersion,
		CreatedAt:         m.TrainedAt,
		NumericFields:     NumericFields,
		CategoricalFields: CategoricalFields,
		Classes:           Classes,
		ClassCount:        m.nb.classCount,
		ClassPrior:        m.nb.classPrior,
		Theta:             m.nb.theta,
		Var:               m.nb.variance,
		Epsilon:           m.nb.epsilon,
		Encoders:          make(map[string][]string, len(CategoricalFields)),
	}
	for _, field := range CategoricalFields {
		enc, _ := m.features.Encoder(field)
		a.Encoders[field] = enc.Values()
	}
	return a
}

func decodeArtifact(a artifact) (*Model, error) {
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedArtifact, a.Version)
	}
	if !sameStrings(a.NumericFields, NumericFields) || !sameStrings(a.CategoricalFields, CategoricalFields) {
		return nil, fmt.Errorf("%w: 特征字段与当前版本不一致", ErrUnsupportedArtifact)
	}
	nc := len(Classes)
	if len(a.Classes) != nc || len(a.ClassCount) != nc || len(a.ClassPrior) != nc ||
		len(a.Theta) != nc || len(a.Var) != nc {
		return nil, fmt.Errorf("%w: 类别参数维度错误", ErrUnsupportedArtifact)
	}
	for c := 0; c < nc; c++ {
		if a.Classes[c] != Classes[c] {
			return nil, fmt.Errorf("%w: 类别标签错误", ErrUnsupportedArtifact)
		}
		if len(a.Theta[c]) != NumFeatures || len(a.Var[c]) != NumFeatures {
			return nil, fmt.Errorf("%w: 特征维度错误", ErrUnsupportedArtifact)
		}
	}

	features := &FeatureEncoder{encoders: make(map[string]*CategoryEncoder, len(CategoricalFields))}
	for _, field := range CategoricalFields {
		values, ok := a.Encoders[field]
		if !ok {
			return nil, fmt.Errorf("%w: 缺少字段 %s 的编码表", ErrUnsupportedArtifact, field)
		}
		enc, err := encoderFromValues(values)
		if err != nil {
			return nil, fmt.Errorf("%w: 字段 %s: %v", ErrUnsupportedArtifact, field, err)
		}
		features.encoders[field] = enc
	}

	return &Model{
		features: features,
		nb: &gaussianNB{
			classCount: a.ClassCount,
			classPrior: a.ClassPrior,
			theta:      a.Theta,
			variance:   a.Var,
			epsilon:    a.Epsilon,
		},
		TrainedAt: a.CreatedAt,
	}, nil
}

// WriteModel 把模型序列化为 JSON 写入 w。
func WriteModel(w io.Writer, m *Model) error {
	if m == nil {
		return ErrModelNotTrained
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encodeArtifact(m)); err != nil {
		return fmt.Errorf("写入模型文件失败: %w", err)
	}
	return nil
}

// ReadModel 从 r 读取模型，得到的模型无需再训练即可预测。
func ReadModel(r io.Reader) (*Model, error) {
	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedArtifact, err)
	}
	return decodeArtifact(a)
}

// SaveFile 把模型写入 path，先写临时文件再重命名，避免读到写了一半的文件。
func SaveFile(path string, m *Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建模型目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("创建临时模型文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteModel(tmp, m); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时模型文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("保存模型文件失败: %w", err)
	}
	return nil
}

// LoadFile 从 path 读取模型。
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开模型文件失败: %w", err)
	}
	defer f.Close()
	return ReadModel(f)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
