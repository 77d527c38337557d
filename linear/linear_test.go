package linear

import (
	"bytes"
	"math"
	"testing"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-8

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func planeData() (*mat.Dense, *mat.Dense) {
	// y = 3 + 2*x1 - x2
	X := mat.NewDense(6, 2, []float64{
		1, 4,
		2, 1,
		3, 7,
		4, 2,
		5, 5,
		6, 3,
	})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 3+2*X.At(i, 0)-X.At(i, 1))
	}
	return X, y
}

func lineData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
	return X, y
}

func TestLinearRegressionFit(t *testing.T) {
	X, y := planeData()
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	want := []float64{2, -1}
	for i, c := range lr.Coefficients() {
		if !approx(c, want[i], tolerance) {
			t.Errorf("coef[%d] = %v, want %v", i, c, want[i])
		}
	}
	if !approx(lr.InterceptValue(), 3, tolerance) {
		t.Errorf("intercept = %v, want 3", lr.InterceptValue())
	}

	pred, err := lr.Predict(mat.NewDense(1, 2, []float64{10, 10}))
	if err != nil {
		t.Fatal(err)
	}
	if !approx(pred.At(0, 0), 13, 1e-6) {
		t.Errorf("prediction = %v, want 13", pred.At(0, 0))
	}
}

func TestLinearRegressionCollinear(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 2, 4, 3, 6, 4, 8})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if !approx(pred.At(i, 0), y.At(i, 0), 1e-6) {
			t.Errorf("pred[%d] = %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestLinearRegressionWithoutIntercept(t *testing.T) {
	X, y := lineData()
	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if lr.InterceptValue() != 0 || !approx(lr.Coef[0], 2, tolerance) {
		t.Errorf("coef = %v, intercept = %v", lr.Coef, lr.Intercept)
	}
}

func TestRidgeClosedForm(t *testing.T) {
	X, y := lineData()
	tests := []struct {
		alpha         float64
		wantCoef      float64
		wantIntercept float64
	}{
		// centered: sxx = 5, sxy = 10, coef = sxy / (sxx + alpha)
		{1.0, 10.0 / 6.0, 5 - 2.5*10.0/6.0},
		{5.0, 1.0, 2.5},
		{0.0, 2.0, 0.0},
	}
	for _, tt := range tests {
		r := NewRidge(WithAlpha(tt.alpha))
		if err := r.Fit(X, y); err != nil {
			t.Fatalf("alpha=%v: %v", tt.alpha, err)
		}
		if !approx(r.Coef[0], tt.wantCoef, tolerance) {
			t.Errorf("alpha=%v: coef = %v, want %v", tt.alpha, r.Coef[0], tt.wantCoef)
		}
		if !approx(r.Intercept, tt.wantIntercept, tolerance) {
			t.Errorf("alpha=%v: intercept = %v, want %v", tt.alpha, r.Intercept, tt.wantIntercept)
		}
	}
}

func TestRidgeRejectsNegativeAlpha(t *testing.T) {
	X, y := lineData()
	err := NewRidge(WithAlpha(-1)).Fit(X, y)
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLassoClosedForm(t *testing.T) {
	X, y := lineData()
	// n = 4, soft(sxy=10, alpha*n=4) / sxx = 6 / 5
	l := NewLasso()
	if err := l.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if !approx(l.Coef[0], 1.2, 1e-6) {
		t.Errorf("coef = %v, want 1.2", l.Coef[0])
	}
	if !approx(l.Intercept, 2, 1e-6) {
		t.Errorf("intercept = %v, want 2", l.Intercept)
	}
	if l.NIter < 1 || l.NIter > l.MaxIter {
		t.Errorf("NIter = %d", l.NIter)
	}
}

func TestLassoLargeAlphaZeroesCoefficients(t *testing.T) {
	X, y := planeData()
	l := NewLasso(WithAlpha(1e6))
	if err := l.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	for i, c := range l.Coef {
		if c != 0 {
			t.Errorf("coef[%d] = %v, want 0", i, c)
		}
	}
	mean := 0.0
	for i := 0; i < 6; i++ {
		mean += y.At(i, 0)
	}
	mean /= 6
	if !approx(l.Intercept, mean, tolerance) {
		t.Errorf("intercept = %v, want mean %v", l.Intercept, mean)
	}
}

func TestLassoConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	X := mat.NewDense(8, 3, nil)
	y := mat.NewDense(8, 1, nil)
	for i := 0; i < 8; i++ {
		x := float64(i + 1)
		X.Set(i, 0, x)
		X.Set(i, 1, x+0.01*float64(i%3))
		X.Set(i, 2, x*x)
		y.Set(i, 0, 3*x+0.5*x*x)
	}
	l := NewLasso(WithAlpha(0.001), WithMaxIter(1), WithTol(1e-12))
	if err := l.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	var cw *errors.ConvergenceWarning
	if !errors.As(warnings[0], &cw) || cw.Algorithm != "Lasso" {
		t.Errorf("unexpected warning %v", warnings[0])
	}
	if !l.IsFitted() {
		t.Error("non-converged fit still produces a model")
	}
}

func TestPredictErrors(t *testing.T) {
	estimators := map[string]model.Regressor{
		"LinearRegression": NewLinearRegression(),
		"Ridge":            NewRidge(),
		"Lasso":            NewLasso(),
	}
	X, y := planeData()
	for name, est := range estimators {
		t.Run(name, func(t *testing.T) {
			_, err := est.Predict(X)
			var nf *errors.NotFittedError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFittedError, got %v", err)
			}
			if err := est.Fit(X, y); err != nil {
				t.Fatal(err)
			}
			_, err = est.Predict(mat.NewDense(1, 3, nil))
			var de *errors.DimensionError
			if !errors.As(err, &de) {
				t.Fatalf("expected DimensionError, got %v", err)
			}
		})
	}
}

func TestFitInputValidation(t *testing.T) {
	X, _ := planeData()
	if err := NewRidge().Fit(X, mat.NewDense(5, 1, nil)); err == nil {
		t.Error("expected row mismatch error")
	}
	if err := NewLasso().Fit(X, mat.NewDense(6, 2, nil)); err == nil {
		t.Error("expected column vector error")
	}
}

func TestGobRoundTrip(t *testing.T) {
	X, y := planeData()
	r := NewRidge(WithAlpha(0.5))
	if err := r.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := model.SaveModelToWriter(r, &buf); err != nil {
		t.Fatal(err)
	}
	var back Ridge
	if err := model.LoadModelFromReader(&back, &buf); err != nil {
		t.Fatal(err)
	}
	want, _ := r.Predict(X)
	got, err := back.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(want, got, 1e-12) {
		t.Error("predictions differ after round trip")
	}
}
