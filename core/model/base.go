package model

import (
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全てのモデルの基底となる構造体
// gobでエンコードできるようにフィールドは公開している
type BaseEstimator struct {
	State     EstimatorState
	NFeatures int // 学習時の特徴量数
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted(nFeatures int) {
	e.State = Fitted
	e.NFeatures = nFeatures
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
	e.NFeatures = 0
}

// CheckPredict は予測前の共通チェックを行う
// 未学習ならNotFittedError、特徴量数が異なればDimensionErrorを返す
func (e *BaseEstimator) CheckPredict(modelName string, nFeatures int) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, "Predict")
	}
	if nFeatures != e.NFeatures {
		return errors.NewDimensionError(modelName+".Predict", e.NFeatures, nFeatures, 1)
	}
	return nil
}
