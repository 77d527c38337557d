package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "houseprice: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "houseprice: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	want := "houseprice: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 10 || dimErr.Got != 3 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Ridge", "Predict")

	want := "houseprice: Ridge: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewMissingColumnError(t *testing.T) {
	err := NewMissingColumnError("Selector.Validate", "GrLivArea")

	want := "houseprice: Selector.Validate: missing column: GrLivArea"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var missing *MissingColumnError
	if !As(Wrap(err, "train"), &missing) {
		t.Fatal("wrapped error should still be castable to *MissingColumnError")
	}
	if missing.Column != "GrLivArea" {
		t.Errorf("Column = %q, want GrLivArea", missing.Column)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("cleaning.missing_threshold", "must be within [0, 1]", 1.5)

	want := "houseprice: validation failed for parameter 'cleaning.missing_threshold': must be within [0, 1] (got: 1.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("TrainTestSplit", "test subset would be empty")
	if err.Error() != "houseprice: TrainTestSplit: test subset would be empty" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("Lasso", 1000, "duality gap 12.5 above tolerance")

	want := "Lasso failed to converge after 1000 iterations: duality gap 12.5 above tolerance"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	noMsg := NewConvergenceWarning("Lasso", 10, "")
	if !strings.Contains(noMsg.Error(), "Consider increasing max_iter") {
		t.Errorf("unexpected default message %q", noMsg.Error())
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("r2", "constant target", 0))
	if len(got) != 1 {
		t.Fatalf("handler received %d warnings, want 1", len(got))
	}

	var viaZerolog int
	SetZerologWarnFunc(func(w error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("Lasso", 1, ""))
	if viaZerolog != 1 || len(got) != 1 {
		t.Errorf("zerolog func should take precedence: zerolog=%d handler=%d", viaZerolog, len(got))
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("ok", []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nan := 0.0
	nan = nan / nan
	err := CheckNumericalStability("HouseAge", []float64{1, nan, 3})
	if err == nil {
		t.Fatal("expected instability error")
	}
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected *NumericalInstabilityError, got %T", err)
	}
	if numErr.Iteration != 1 || numErr.Operation != "HouseAge" {
		t.Errorf("unexpected fields: %+v", numErr)
	}
}
