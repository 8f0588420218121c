package classifier

import (
	"MindGraphDB/backend/go/pkg/logger"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrModelNotTrained 表示还没有可用的模型。
	ErrModelNotTrained = errors.New("model not trained")
	// ErrPrediction 包装预测阶段的编码或计算错误。
	ErrPrediction = errors.New("prediction failed")
	// ErrNotEnoughData 表示记录数不足以划分训练集和测试集。
	ErrNotEnoughData = errors.New("not enough records to train")
)

const (
	DefaultSeed      int64 = 42
	DefaultTestRatio       = 0.2
)

// Model 是一次训练的完整产物：分类编码器和朴素贝叶斯参数。发布后只读。
type Model struct {
	features  *FeatureEncoder
	nb        *gaussianNB
	TrainedAt time.Time
}

// Features 返回模型使用的特征编码器。
func (m *Model) Features() *FeatureEncoder {
	return m.features
}

// Probability 是两个类别的预测概率，两者之和为 1。
type Probability struct {
	NoDepression float64 `json:"no_depression"`
	Depression   float64 `json:"depression"`
}

// Prediction 是一次预测的结果。
type Prediction struct {
	Prediction  int         `json:"prediction"`
	Probability Probability `json:"probability"`
}

// TrainResult 是一次训练在测试集上的评估结果。
type TrainResult struct {
	Accuracy  float64 `json:"accuracy"`
	Report    Report  `json:"report"`
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
}

// Options 配置训练参数。
type Options struct {
	Seed      int64
	TestRatio float64
}

// Classifier 是抑郁预测器。当前模型通过原子指针发布，
// 预测方总是看到一组配套的编码器和参数；并发的 Train 由 trainMu 串行化。
type Classifier struct {
	opts    Options
	log     *logger.Logger
	current atomic.Pointer[Model]
	trainMu sync.Mutex
}

// New 创建一个尚未训练的分类器。
func New(opts Options, log *logger.Logger) *Classifier {
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.TestRatio <= 0 || opts.TestRatio >= 1 {
		opts.TestRatio = DefaultTestRatio
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Classifier{opts: opts, log: log}
}

// Trained 报告是否已有可用模型。
func (c *Classifier) Trained() bool {
	return c.current.Load() != nil
}

// Model 返回当前模型，未训练时为 nil。
func (c *Classifier) Model() *Model {
	return c.current.Load()
}

// Train 在记录上划分训练集与测试集，拟合编码器和朴素贝叶斯模型，并替换当前模型。
// 编码器只在训练子集上拟合，测试子集以只编码模式转换。
func (c *Classifier) Train(records []Record) (*TrainResult, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughData, len(records))
	}

	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	trainIdx, testIdx := trainTestSplit(len(records), c.opts.TestRatio, c.opts.Seed)

	features := NewFeatureEncoder()
	X := make([][]float64, 0, len(trainIdx))
	y := make([]int, 0, len(trainIdx))
	for _, i := range trainIdx {
		vec, err := features.Encode(&records[i], ModeFitAndEncode)
		if err != nil {
			return nil, fmt.Errorf("编码训练记录失败: %w", err)
		}
		X = append(X, vec)
		y = append(y, records[i].Depression)
	}
	features.seal()

	nb, err := fitGaussianNB(X, y)
	if err != nil {
		return nil, fmt.Errorf("训练模型失败: %w", err)
	}
	model := &Model{features: features, nb: nb, TrainedAt: time.Now().UTC()}

	yTrue := make([]int, 0, len(testIdx))
	yPred := make([]int, 0, len(testIdx))
	for _, i := range testIdx {
		p, err := model.predict(&records[i])
		if err != nil {
			return nil, fmt.Errorf("评估测试记录失败: %w", err)
		}
		yTrue = append(yTrue, records[i].Depression)
		yPred = append(yPred, p.Prediction)
	}
	accuracy, report := evaluate(yTrue, yPred)

	c.current.Store(model)
	c.log.WithPayload(map[string]interface{}{
		"accuracy":   accuracy,
		"train_size": len(trainIdx),
		"test_size":  len(testIdx),
	}).Info("Depression model trained")

	return &TrainResult{
		Accuracy:  accuracy,
		Report:    report,
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
	}, nil
}

// Predict 用当前模型预测一条记录。
func (c *Classifier) Predict(r Record) (*Prediction, error) {
	model := c.current.Load()
	if model == nil {
		return nil, ErrModelNotTrained
	}
	p, err := model.predict(&r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrediction, err)
	}
	return p, nil
}

// Encode 用当前模型的编码器以只编码模式转换一条记录。
func (c *Classifier) Encode(r Record) ([]float64, error) {
	model := c.current.Load()
	if model == nil {
		return nil, ErrModelNotTrained
	}
	return model.features.Encode(&r, ModeEncodeOnly)
}

// Save 把当前模型写入 w。
func (c *Classifier) Save(w io.Writer) error {
	model := c.current.Load()
	if model == nil {
		return ErrModelNotTrained
	}
	return WriteModel(w, model)
}

// Load 从 r 读取模型并替换当前模型。
func (c *Classifier) Load(r io.Reader) error {
	model, err := ReadModel(r)
	if err != nil {
		return err
	}
	c.Use(model)
	return nil
}

// SaveFile 把当前模型写入文件。
func (c *Classifier) SaveFile(path string) error {
	model := c.current.Load()
	if model == nil {
		return ErrModelNotTrained
	}
	return SaveFile(path, model)
}

// LoadFile 从文件读取模型并替换当前模型。
func (c *Classifier) LoadFile(path string) error {
	model, err := LoadFile(path)
	if err != nil {
		return err
	}
	c.Use(model)
	c.log.WithPayload(map[string]interface{}{"path": path}).Info("Depression model loaded")
	return nil
}

// Use 直接替换当前模型。
func (c *Classifier) Use(model *Model) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	c.current.Store(model)
}

func (m *Model) predict(r *Record) (*Prediction, error) {
	vec, err := m.features.Encode(r, ModeEncodeOnly)
	if err != nil {
		return nil, err
	}
	proba, err := m.nb.predictProba(vec)
	if err != nil {
		return nil, err
	}
	return &Prediction{
		Prediction: argmax(proba),
		Probability: Probability{
			NoDepression: proba[0],
			Depression:   proba[1],
		},
	}, nil
}
