package model

import (
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は候補モデルとして選択器に渡せる回帰モデル
type Regressor interface {
	Fitter
	Predictor
	IsFitted() bool
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coefficients は学習された重み（係数）を返す
	Coefficients() []float64
	// InterceptValue は学習された切片を返す
	InterceptValue() float64
}

// CheckFitInput はFitに渡された X, y の形状を検証し、行数と特徴量数を返す
func CheckFitInput(op string, X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	ry, cy := y.Dims()
	if ry != rows {
		return 0, 0, errors.NewDimensionError(op, rows, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	return rows, cols, nil
}

// Column は列ベクトル y を []float64 に展開する
func Column(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = y.At(i, 0)
	}
	return out
}
