package linear

import (
	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Ridge は L2 正則化付き線形回帰
// 目的関数: ||y - Xw||² + Alpha * ||w||²
type Ridge struct {
	model.BaseEstimator
	Params
	Coef      []float64
	Intercept float64
}

// NewRidge は Alpha=1.0 の Ridge を作成する
func NewRidge(opts ...Option) *Ridge {
	return &Ridge{Params: applyOptions(opts)}
}

// Fit は正規方程式 (XᵀX + αI) w = Xᵀy をコレスキー分解で解く
func (r *Ridge) Fit(X, y mat.Matrix) error {
	_, cols, err := model.CheckFitInput("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	if r.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.Alpha)
	}
	r.Reset()

	d := prepare(X, y, r.FitIntercept)

	gram := mat.NewSymDense(cols, nil)
	gram.SymOuterK(1, d.X.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Alpha)
	}

	var xty mat.VecDense
	xty.MulVec(d.X.T(), d.y)

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return errors.NewModelError("Ridge.Fit", "cholesky solve failed", err)
	}

	coef := make([]float64, cols)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	if err := errors.CheckNumericalStability("Ridge.Fit", coef); err != nil {
		return err
	}
	r.Coef = coef
	r.Intercept = d.intercept(coef)
	r.SetFitted(cols)
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := r.CheckPredict("Ridge", c); err != nil {
		return nil, err
	}
	return predictLinear(X, r.Coef, r.Intercept), nil
}

// Coefficients は学習された重み（係数）のコピーを返す
func (r *Ridge) Coefficients() []float64 {
	return append([]float64(nil), r.Coef...)
}

// InterceptValue は学習された切片を返す
func (r *Ridge) InterceptValue() float64 {
	return r.Intercept
}
