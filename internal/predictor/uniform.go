package predictor

import "shadex-ai/internal/database"

const UniformName = "uniform"

// UniformPredictor 不给出建议，缓存将在0-9中均匀随机
type UniformPredictor struct{}

func NewUniformPredictor() *UniformPredictor { return &UniformPredictor{} }

func (UniformPredictor) GetName() string { return UniformName }

func (UniformPredictor) Suggest(_ []database.Forecast) *Suggestion { return nil }
