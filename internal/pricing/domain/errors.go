package domain

import "errors"

var (
	// ErrInvalidConfig 模型配置非法或维度不一致
	ErrInvalidConfig = errors.New("invalid model configuration")
	// ErrUnderdeterminedFit 设计点数量不足以支撑所选回归方法
	ErrUnderdeterminedFit = errors.New("underdetermined regression fit")
	// ErrFitFailure 回归拟合过程中的数值失败（协方差矩阵奇异、超参数优化不收敛等）
	ErrFitFailure = errors.New("regression fit failure")
	// ErrMissingSurrogate 前向评估所需的某一步代理模型缺失
	ErrMissingSurrogate = errors.New("missing fitted surrogate")
	// ErrEmptyDesign 设计生成器在价内区域内找不到任何输入点
	ErrEmptyDesign = errors.New("empty simulation design")
)
