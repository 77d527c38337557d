// Package metrics は回帰モデルの評価指標を提供する
package metrics

import (
	"math"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix は行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	// 入力検証
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}

	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}

	if cTrue != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	// VecDenseに変換してMSEを計算
	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)

	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return MSE(yTrueVec, yPredVec)
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += math.Abs(diff)
	}

	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
// yTrue に分散がない場合は定義できないため、予測が完全一致なら 1、そうでなければ 0 を返し、
// UndefinedMetricWarning を発行する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	yMean := mat.Sum(yTrue) / float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		result := 0.0
		if rss == 0 {
			result = 1.0
		}
		errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "no variance in yTrue", result))
		return result, nil
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// AccuracyWithinTolerance は |yPred - yTrue| <= tolerance * yTrue を満たす割合を返す
// 例: tolerance = 0.10 で ±10% 以内の予測の割合
func AccuracyWithinTolerance(yTrue, yPred *mat.VecDense, tolerance float64) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AccuracyWithinTolerance", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("AccuracyWithinTolerance", n, yPred.Len(), 0)
	}
	if tolerance < 0 {
		return 0, errors.NewValidationError("tolerance", "must be non-negative", tolerance)
	}

	hits := 0
	for i := 0; i < n; i++ {
		actual := yTrue.AtVec(i)
		if math.Abs(yPred.AtVec(i)-actual) <= tolerance*actual {
			hits++
		}
	}
	return float64(hits) / float64(n), nil
}

// DefaultAccuracyTolerance は Report の Accuracy に使う相対誤差
const DefaultAccuracyTolerance = 0.10

// Report は一つのモデルのホールドアウト評価結果
type Report struct {
	R2       float64
	RMSE     float64
	MAE      float64
	Accuracy float64 // 0..1, DefaultAccuracyTolerance 以内の割合
}

// Evaluate は R², RMSE, MAE, ±10% 精度をまとめて計算する
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	var r Report
	var err error
	if r.R2, err = R2Score(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.RMSE, err = RMSE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.MAE, err = MAE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.Accuracy, err = AccuracyWithinTolerance(yTrue, yPred, DefaultAccuracyTolerance); err != nil {
		return Report{}, err
	}
	return r, nil
}

// EvaluateMatrix は n×1 行列の入力に対して Evaluate を行う
func EvaluateMatrix(yTrue, yPred mat.Matrix) (Report, error) {
	t, err := columnVector("EvaluateMatrix", yTrue)
	if err != nil {
		return Report{}, err
	}
	p, err := columnVector("EvaluateMatrix", yPred)
	if err != nil {
		return Report{}, err
	}
	return Evaluate(t, p)
}

func columnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
