// Package linear provides ordinary least squares, ridge and lasso regression.
package linear

import (
	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/core/parallel"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// 条件数がこれを超える場合はQRではなくSVDの最小ノルム解を使う
const maxQRCondition = 1e12

// LinearRegression は最小二乗法による線形回帰モデル
type LinearRegression struct {
	model.BaseEstimator
	Params
	Coef      []float64 // 重み（係数）
	Intercept float64   // 切片
}

// NewLinearRegression は新しい線形回帰モデルを作成する
// Alpha, MaxIter, Tol は使われない
func NewLinearRegression(opts ...Option) *LinearRegression {
	return &LinearRegression{Params: applyOptions(opts)}
}

// Fit はモデルを訓練データで学習させる
// 切片を推定する場合は X, y を中心化してから QR 分解で解く
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	_, cols, err := model.CheckFitInput("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}
	lr.Reset()

	d := prepare(X, y, lr.FitIntercept)
	coef, err := leastSquares(d.X, d.y)
	if err != nil {
		return errors.NewModelError("LinearRegression.Fit", "least squares failed", err)
	}
	if err := errors.CheckNumericalStability("LinearRegression.Fit", coef); err != nil {
		return err
	}

	lr.Coef = coef
	lr.Intercept = d.intercept(coef)
	lr.SetFitted(cols)
	return nil
}

// Predict は入力データに対する予測を行う
// 予測: y = X * Coef + Intercept
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := lr.CheckPredict("LinearRegression", c); err != nil {
		return nil, err
	}
	return predictLinear(X, lr.Coef, lr.Intercept), nil
}

// Coefficients は学習された重み（係数）のコピーを返す
func (lr *LinearRegression) Coefficients() []float64 {
	return append([]float64(nil), lr.Coef...)
}

// InterceptValue は学習された切片を返す
func (lr *LinearRegression) InterceptValue() float64 {
	return lr.Intercept
}

// design は中心化済みの計画行列と目的変数
type design struct {
	X     *mat.Dense
	y     *mat.VecDense
	xMean []float64
	yMean float64
}

func (d design) intercept(coef []float64) float64 {
	return d.yMean - floats.Dot(d.xMean, coef)
}

func prepare(X, y mat.Matrix, center bool) design {
	rows, cols := X.Dims()
	Xw := mat.DenseCopyOf(X)
	yw := mat.NewVecDense(rows, model.Column(y))
	d := design{X: Xw, y: yw, xMean: make([]float64, cols)}
	if !center {
		return d
	}

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, Xw)
		m := floats.Sum(col) / float64(rows)
		d.xMean[j] = m
		floats.AddConst(-m, col)
		Xw.SetCol(j, col)
	}
	d.yMean = floats.Sum(yw.RawVector().Data) / float64(rows)
	floats.AddConst(-d.yMean, yw.RawVector().Data)
	return d
}

// leastSquares は ||Xw - y||² を最小化する w を返す
func leastSquares(X *mat.Dense, y *mat.VecDense) ([]float64, error) {
	rows, cols := X.Dims()
	if rows >= cols {
		var qr mat.QR
		qr.Factorize(X)
		if qr.Cond() < maxQRCondition {
			w := mat.NewDense(cols, 1, nil)
			if err := qr.SolveTo(w, false, y); err == nil {
				return mat.Col(nil, 0, w), nil
			}
		}
	}

	// ランク落ちの場合は SVD で最小ノルム解を求める
	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, errors.ErrSingularMatrix
	}
	rank := svd.Rank(1e-15 * float64(max(rows, cols)))
	if rank == 0 {
		return make([]float64, cols), nil
	}
	var w mat.Dense
	svd.SolveTo(&w, y, rank)
	return mat.Col(nil, 0, &w), nil
}

func predictLinear(X mat.Matrix, coef []float64, intercept float64) *mat.Dense {
	r, c := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * coef[j]
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions
}
