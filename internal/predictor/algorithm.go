package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
)

const LogisticName = "logistic"

// ErrInvalidModel 模型描述不完整
var ErrInvalidModel = errors.New("invalid predictor model")

// ModelDescriptor 模型描述文件
type ModelDescriptor struct {
	WindowSize   int       `json:"windowSize"`
	FeatureNames []string  `json:"featureNames"`
	Weights      []float64 `json:"weights"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
}

// Validate 检查窗口和权重
func (d *ModelDescriptor) Validate() error {
	if d.WindowSize <= 0 {
		return fmt.Errorf("%w: windowSize must be positive", ErrInvalidModel)
	}
	if len(d.Weights) == 0 {
		return fmt.Errorf("%w: weights are empty", ErrInvalidModel)
	}
	if len(d.FeatureNames) != len(d.Weights) {
		return fmt.Errorf("%w: %d feature names for %d weights",
			ErrInvalidModel, len(d.FeatureNames), len(d.Weights))
	}
	return nil
}

// LoadModelDescriptor 读取模型文件；文件缺失或格式错误时返回错误，调用方应关闭评分
func LoadModelDescriptor(path string) (*ModelDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var descriptor ModelDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	if descriptor.Accuracy != nil {
		logger.Infof("Loaded predictor model (accuracy %.2f%%)", *descriptor.Accuracy)
	} else {
		logger.Info("Loaded predictor model (accuracy unknown)")
	}
	return &descriptor, nil
}

// LogisticPredictor 基于手工特征的线性分类器
type LogisticPredictor struct {
	descriptor ModelDescriptor
}

// NewLogisticPredictor 创建线性模型预测器
func NewLogisticPredictor(descriptor *ModelDescriptor) (*LogisticPredictor, error) {
	if descriptor == nil {
		return nil, fmt.Errorf("%w: descriptor is nil", ErrInvalidModel)
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	return &LogisticPredictor{descriptor: *descriptor}, nil
}

// GetName 获取算法名称
func (lp *LogisticPredictor) GetName() string {
	return LogisticName
}

// Suggest 计算大的概率
func (lp *LogisticPredictor) Suggest(history []database.Forecast) *Suggestion {
	window := lp.descriptor.WindowSize
	if len(history) < window {
		return nil
	}

	features, ok := lp.FeatureVector(history[:window])
	if !ok {
		return nil
	}

	score := 0.0
	for i, value := range features {
		score += value * lp.descriptor.Weights[i]
	}
	score = math.Max(math.Min(score, 20), -20)
	probability := 1 / (1 + math.Exp(-score))

	category := database.CategorySmall
	if probability >= 0.5 {
		category = database.CategoryBig
	}

	logger.Debugf("Model suggestion: score=%.4f probability=%.4f category=%s", score, probability, category)
	return &Suggestion{Category: category, Probability: probability}
}

// FeatureVector 按描述文件的特征顺序构建特征向量，window 为最新在前
func (lp *LogisticPredictor) FeatureVector(window []database.Forecast) ([]float64, bool) {
	featureMap, ok := BuildFeatures(window)
	if !ok {
		return nil, false
	}

	vector := make([]float64, len(lp.descriptor.FeatureNames))
	for i, name := range lp.descriptor.FeatureNames {
		vector[i] = featureMap[name]
	}
	return vector, true
}

// BuildFeatures 计算窗口特征；任一记录无法解析时无信号
func BuildFeatures(window []database.Forecast) (map[string]float64, bool) {
	n := len(window)
	if n == 0 {
		return nil, false
	}

	// 从旧到新
	numbers := make([]int64, 0, n)
	categories := make([]database.Category, 0, n)
	colors := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		value, ok := OutcomeDigit(window[i])
		if !ok {
			return nil, false
		}
		numbers = append(numbers, value)
		categories = append(categories, CategoryOf(value))
		colors = append(colors, strings.ToLower(window[i].Color))
	}

	bigCount := 0
	for _, c := range categories {
		if c == database.CategoryBig {
			bigCount++
		}
	}

	streak := 1
	for i := n - 2; i >= 0; i-- {
		if categories[i] != categories[i+1] {
			break
		}
		streak++
	}

	changes := 0
	for i := 1; i < n; i++ {
		if categories[i] != categories[i-1] {
			changes++
		}
	}

	var sum int64
	for _, v := range numbers {
		sum += v
	}

	redHits, greenHits := 0, 0
	for _, c := range colors {
		if strings.Contains(c, "red") {
			redHits++
		}
		if strings.Contains(c, "green") {
			greenHits++
		}
	}

	total := float64(n)
	lastIsBig := 0.0
	if categories[n-1] == database.CategoryBig {
		lastIsBig = 1
	}

	return map[string]float64{
		"bias":           1,
		"ratio_big":      float64(bigCount) / total,
		"ratio_small":    float64(n-bigCount) / total,
		"last_is_big":    lastIsBig,
		"avg_digit_norm": float64(sum) / total / 9,
		"streak_ratio":   float64(streak) / total,
		"change_ratio":   float64(changes) / math.Max(1, total-1),
		"red_ratio":      float64(redHits) / total,
		"green_ratio":    float64(greenHits) / total,
	}, true
}

// OutcomeDigit 记录的开奖数字（缺失时使用预测号码），取模后限制在0-9
func OutcomeDigit(record database.Forecast) (int64, bool) {
	source := record.Actual
	if strings.TrimSpace(source) == "" {
		source = record.Prediction
	}
	value, ok := FirstInt(source)
	if !ok {
		return 0, false
	}
	value %= 10
	if value < 0 {
		value = 0
	}
	return value, true
}
