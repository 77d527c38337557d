package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/ensemble"
	"github.com/YuminosukeSato/houseprice/linear"
	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/tree"
)

func trainingData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		a, b := float64(i), float64((i*7)%5)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 100+10*a-3*b)
	}
	return X, y
}

func TestRoundTripEveryModel(t *testing.T) {
	X, y := trainingData()
	models := map[string]model.Regressor{
		"LinearRegression": linear.NewLinearRegression(),
		"Ridge":            linear.NewRidge(),
		"Lasso":            linear.NewLasso(),
		"DecisionTree":     tree.NewDecisionTreeRegressor(),
		"GradientBoosting": ensemble.NewGradientBoostingRegressor(ensemble.WithNEstimators(5)),
	}
	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, m.Fit(X, y))
			a := New(name, m, []string{"a", "b"}, "y", metrics.Report{R2: 0.9})
			path := filepath.Join(t.TempDir(), "model", "house_price_model.gob")
			require.NoError(t, a.Save(path))

			back, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, a.ID, back.ID)
			assert.Equal(t, name, back.ModelName)
			assert.Equal(t, []string{"a", "b"}, back.Features)
			assert.InDelta(t, 0.9, back.Metrics.R2, 1e-12)

			want, err := m.Predict(X)
			require.NoError(t, err)
			for i := 0; i < 10; i++ {
				got, err := back.PredictOne([]float64{X.At(i, 0), X.At(i, 1)})
				require.NoError(t, err)
				assert.Equal(t, want.At(i, 0), got, "row %d", i)
			}
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	X, y := trainingData()
	path := filepath.Join(t.TempDir(), "m.gob")

	first := linear.NewLinearRegression()
	require.NoError(t, first.Fit(X, y))
	require.NoError(t, New("LinearRegression", first, []string{"a", "b"}, "y", metrics.Report{}).Save(path))

	second := tree.NewDecisionTreeRegressor()
	require.NoError(t, second.Fit(X, y))
	require.NoError(t, New("DecisionTree", second, []string{"a", "b"}, "y", metrics.Report{}).Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DecisionTree", back.ModelName)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left behind")
}

func TestPredictOneRejectsWrongLength(t *testing.T) {
	X, y := trainingData()
	m := linear.NewRidge()
	require.NoError(t, m.Fit(X, y))
	a := New("Ridge", m, []string{"a", "b"}, "y", metrics.Report{})

	_, err := a.PredictOne([]float64{1})
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Expected)
}

func TestSaveRejectsUnfittedModel(t *testing.T) {
	a := New("Ridge", linear.NewRidge(), []string{"a"}, "y", metrics.Report{})
	err := a.Save(filepath.Join(t.TempDir(), "m.gob"))
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.gob"))
	assert.Error(t, err)
}
