package predictor

import (
	"fmt"
	"sort"

	"shadex-ai/internal/database"
)

// Suggestion 模型给出的下一期建议
type Suggestion struct {
	Category    database.Category `json:"category"`
	Probability float64           `json:"probability"`
}

// ConfidenceHint 概率映射为置信度提示 [40, 95]
func (s *Suggestion) ConfidenceHint() int {
	c := int(65 + s.Probability*30)
	if c < 40 {
		return 40
	}
	if c > 95 {
		return 95
	}
	return c
}

// Predictor 预测算法接口
type Predictor interface {
	// Suggest 根据最近的账本记录（最新在前）给出建议，无信号时返回 nil
	Suggest(history []database.Forecast) *Suggestion

	// GetName 获取算法名称
	GetName() string
}

// PredictorManager 预测器管理器
type PredictorManager struct {
	predictors map[string]Predictor
	current    Predictor
}

// NewPredictorManager 创建预测器管理器，模型可用时默认使用模型
func NewPredictorManager(descriptor *ModelDescriptor) *PredictorManager {
	manager := &PredictorManager{
		predictors: make(map[string]Predictor),
	}

	manager.RegisterPredictor(NewUniformPredictor())
	manager.SetCurrentPredictor(UniformName)

	if descriptor != nil {
		if logistic, err := NewLogisticPredictor(descriptor); err == nil {
			manager.RegisterPredictor(logistic)
			manager.SetCurrentPredictor(LogisticName)
		}
	}

	return manager
}

// RegisterPredictor 注册预测器
func (pm *PredictorManager) RegisterPredictor(predictor Predictor) {
	pm.predictors[predictor.GetName()] = predictor
}

// SetCurrentPredictor 设置当前预测器
func (pm *PredictorManager) SetCurrentPredictor(name string) error {
	predictor, exists := pm.predictors[name]
	if !exists {
		return fmt.Errorf("predictor not found: %s", name)
	}
	pm.current = predictor
	return nil
}

// GetCurrentPredictor 获取当前预测器
func (pm *PredictorManager) GetCurrentPredictor() Predictor {
	return pm.current
}

// GetAvailablePredictors 获取可用的预测器列表
func (pm *PredictorManager) GetAvailablePredictors() []string {
	names := make([]string, 0, len(pm.predictors))
	for name := range pm.predictors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Suggest 使用当前预测器
func (pm *PredictorManager) Suggest(history []database.Forecast) *Suggestion {
	if pm.current == nil {
		return nil
	}
	return pm.current.Suggest(history)
}

// GetName 当前预测器名称
func (pm *PredictorManager) GetName() string {
	if pm.current == nil {
		return ""
	}
	return pm.current.GetName()
}
