package linear

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Lasso は L1 正則化付き線形回帰
// 目的関数: (1 / (2n)) * ||y - Xw||² + Alpha * ||w||₁
// 巡回座標降下法で解き、双対ギャップで収束を判定する
type Lasso struct {
	model.BaseEstimator
	Params
	Coef      []float64
	Intercept float64
	NIter     int     // 実行したスイープ数
	DualGap   float64 // 終了時の双対ギャップ
}

// NewLasso は Alpha=1.0, MaxIter=1000, Tol=1e-4 の Lasso を作成する
func NewLasso(opts ...Option) *Lasso {
	return &Lasso{Params: applyOptions(opts)}
}

// Fit はモデルを訓練データで学習させる
// MaxIter 回で収束しなかった場合は ConvergenceWarning を発行するが、エラーにはしない
func (l *Lasso) Fit(X, y mat.Matrix) error {
	rows, cols, err := model.CheckFitInput("Lasso.Fit", X, y)
	if err != nil {
		return err
	}
	if l.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.Alpha)
	}
	if l.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", l.MaxIter)
	}
	l.Reset()

	d := prepare(X, y, l.FitIntercept)

	columns := make([][]float64, cols)
	normCols := make([]float64, cols)
	for j := 0; j < cols; j++ {
		columns[j] = mat.Col(nil, j, d.X)
		normCols[j] = floats.Dot(columns[j], columns[j])
	}
	target := d.y.RawVector().Data
	residual := append([]float64(nil), target...)

	alpha := l.Alpha * float64(rows)
	tol := l.Tol * floats.Dot(target, target)
	dwTol := l.Tol

	w := make([]float64, cols)
	gap := tol + 1
	converged := false
	nIter := 0
	for nIter = 0; nIter < l.MaxIter; nIter++ {
		wMax, dwMax := 0.0, 0.0
		for j := 0; j < cols; j++ {
			if normCols[j] == 0 {
				continue
			}
			wj := w[j]
			if wj != 0 {
				floats.AddScaled(residual, wj, columns[j])
			}
			rho := floats.Dot(columns[j], residual)
			w[j] = softThreshold(rho, alpha) / normCols[j]
			if w[j] != 0 {
				floats.AddScaled(residual, -w[j], columns[j])
			}
			dwMax = math.Max(dwMax, math.Abs(w[j]-wj))
			wMax = math.Max(wMax, math.Abs(w[j]))
		}

		if wMax == 0 || dwMax/wMax < dwTol || nIter == l.MaxIter-1 {
			gap = dualityGap(columns, residual, target, w, alpha)
			if gap < tol {
				converged = true
				nIter++
				break
			}
		}
	}

	if err := errors.CheckNumericalStability("Lasso.Fit", w); err != nil {
		return err
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", l.MaxIter,
			fmt.Sprintf("duality gap: %.6g, tolerance: %.6g", gap, tol)))
	}

	l.Coef = w
	l.Intercept = d.intercept(w)
	l.NIter = nIter
	l.DualGap = gap
	l.SetFitted(cols)
	return nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

// dualityGap は Lasso 問題の双対ギャップを n 倍したスケールで返す
func dualityGap(columns [][]float64, residual, target, w []float64, alpha float64) float64 {
	dualNorm := 0.0
	for _, col := range columns {
		dualNorm = math.Max(dualNorm, math.Abs(floats.Dot(col, residual)))
	}
	rNorm2 := floats.Dot(residual, residual)

	var gap, scale float64
	if dualNorm > alpha {
		scale = alpha / dualNorm
		gap = 0.5 * (rNorm2 + rNorm2*scale*scale)
	} else {
		scale = 1
		gap = rNorm2
	}
	l1 := 0.0
	for _, v := range w {
		l1 += math.Abs(v)
	}
	return gap + alpha*l1 - scale*floats.Dot(residual, target)
}

// Predict は入力データに対する予測を行う
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := l.CheckPredict("Lasso", c); err != nil {
		return nil, err
	}
	return predictLinear(X, l.Coef, l.Intercept), nil
}

// Coefficients は学習された重み（係数）のコピーを返す
func (l *Lasso) Coefficients() []float64 {
	return append([]float64(nil), l.Coef...)
}

// InterceptValue は学習された切片を返す
func (l *Lasso) InterceptValue() float64 {
	return l.Intercept
}
