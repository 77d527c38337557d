// Package selection trains the candidate regressors on a reproducible split,
// ranks them by held-out R² and persists the winner.
package selection

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/core/parallel"
	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// DefaultFeatures is the ordered predictor set. The same order is used for
// inference input vectors.
var DefaultFeatures = []string{
	"YearBuilt", "OverallQual", "TotalBsmtSF", "GrLivArea", "FullBath",
	"HalfBath", "GarageCars", "GarageArea", "TotRmsAbvGrd", "Fireplaces",
}

const (
	// DefaultTarget is the column being predicted.
	DefaultTarget = "SalePrice"
	// DefaultSeed fixes the train/test permutation.
	DefaultSeed int64 = 42
	// DefaultTestSize is the held-out fraction.
	DefaultTestSize = 0.2
	// DefaultArtifactPath is where the winning model is written.
	DefaultArtifactPath = "model/house_price_model.gob"
)

// Option configures a Selector.
type Option func(*Selector)

// WithFeatures sets the ordered predictor columns.
func WithFeatures(features ...string) Option {
	return func(s *Selector) { s.features = append([]string(nil), features...) }
}

// WithTarget sets the target column.
func WithTarget(target string) Option {
	return func(s *Selector) { s.target = target }
}

// WithSeed sets the split seed.
func WithSeed(seed int64) Option {
	return func(s *Selector) { s.seed = seed }
}

// WithTestSize sets the held-out fraction.
func WithTestSize(size float64) Option {
	return func(s *Selector) { s.testSize = size }
}

// WithCandidates replaces the candidate list.
func WithCandidates(c ...Candidate) Option {
	return func(s *Selector) { s.candidates = append([]Candidate(nil), c...) }
}

// WithParallel trains candidates concurrently. Results are identical to the
// sequential run.
func WithParallel(on bool) Option {
	return func(s *Selector) { s.parallel = on }
}

// WithArtifactPath sets where the winner is persisted.
func WithArtifactPath(path string) Option {
	return func(s *Selector) { s.artifactPath = path }
}

// WithPlotPath enables the actual-vs-predicted chart of the winner.
func WithPlotPath(path string) Option {
	return func(s *Selector) { s.plotPath = path }
}

// WithLogger sets the log sink.
func WithLogger(logger log.Logger) Option {
	return func(s *Selector) { s.logger = logger }
}

// WithConsole sets where the human readable report is printed.
func WithConsole(w io.Writer) Option {
	return func(s *Selector) { s.console = w }
}

// Selector runs the model-selection stage.
type Selector struct {
	features     []string
	target       string
	seed         int64
	testSize     float64
	candidates   []Candidate
	parallel     bool
	artifactPath string
	plotPath     string
	logger       log.Logger
	console      io.Writer
}

// NewSelector creates a Selector with the default predictors, target, seed,
// split and candidates.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		features:     append([]string(nil), DefaultFeatures...),
		target:       DefaultTarget,
		seed:         DefaultSeed,
		testSize:     DefaultTestSize,
		candidates:   DefaultCandidates(),
		artifactPath: DefaultArtifactPath,
		logger:       log.Default().With(log.ComponentKey, "selector"),
		console:      color.Output,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Features returns the ordered predictor set.
func (s *Selector) Features() []string {
	return append([]string(nil), s.features...)
}

// Scored is one trained candidate and its held-out evaluation.
type Scored struct {
	Name        string
	Index       int // declaration order
	Model       model.Regressor
	Metrics     metrics.Report
	Predictions []float64
	Duration    time.Duration
	Err         error
}

// Result is the outcome of a successful Run.
type Result struct {
	Ranked       []Scored // successful candidates, best first
	Failed       []Scored
	Best         Scored
	Artifact     *artifact.Artifact
	ArtifactPath string
	TestIndices  []int
	Actual       []float64
}

// Validate checks that every predictor and the target exist. It echoes each
// column it finds and stops at the first missing one.
func (s *Selector) Validate(t *dataset.Table) error {
	for _, name := range append(s.Features(), s.target) {
		if !t.Has(name) {
			return errors.NewMissingColumnError("Selector.Validate", name)
		}
		fmt.Fprintf(s.console, "Column found: %s\n", name)
	}
	return nil
}

// Run validates t, trains every candidate on the same split, ranks them by R²
// (stable, so ties keep declaration order) and writes the winner's artifact.
// A missing column or an unusable split aborts before any training and no
// artifact is written.
func (s *Selector) Run(t *dataset.Table) (*Result, error) {
	if err := s.Validate(t); err != nil {
		s.logger.Error("Required column missing", err, log.OperationKey, log.OperationFit)
		return nil, err
	}

	X, err := t.Matrix(s.features)
	if err != nil {
		return nil, errors.Wrap(err, "build feature matrix")
	}
	y, err := t.Vector(s.target)
	if err != nil {
		return nil, errors.Wrap(err, "build target vector")
	}

	split, err := TrainTestSplit(t.Rows(), s.testSize, s.seed)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Split data",
		log.RandomSeedKey, s.seed,
		"train_samples", len(split.Train),
		"test_samples", len(split.Test),
	)

	XTrain, yTrain := subset(X, y, split.Train)
	XTest, yTest := subset(X, y, split.Test)
	actual := model.Column(yTest)

	scored := make([]Scored, len(s.candidates))
	fit := func(i int) {
		scored[i] = s.evaluate(i, XTrain, yTrain, XTest, yTest)
	}
	if s.parallel {
		parallel.ForEach(len(s.candidates), fit)
	} else {
		for i := range s.candidates {
			fit(i)
		}
	}

	result := &Result{TestIndices: split.Test, Actual: actual}
	for _, sc := range scored {
		if sc.Err != nil {
			s.logger.Error("Candidate failed", sc.Err, log.ModelNameKey, sc.Name)
			result.Failed = append(result.Failed, sc)
			continue
		}
		s.logger.Info("Candidate evaluated",
			log.OperationKey, log.OperationScore,
			log.PhaseKey, log.PhaseTraining,
			log.ModelNameKey, sc.Name,
			log.R2ScoreKey, sc.Metrics.R2,
			log.RMSEKey, sc.Metrics.RMSE,
			log.MAEKey, sc.Metrics.MAE,
			log.AccuracyKey, sc.Metrics.Accuracy,
			log.DurationMsKey, sc.Duration.Milliseconds(),
		)
		if lm, ok := sc.Model.(model.LinearModel); ok {
			s.logger.Debug("Linear model coefficients",
				log.ModelNameKey, sc.Name,
				"coefficients", lm.Coefficients(),
				"intercept", lm.InterceptValue(),
			)
		}
		printCandidate(s.console, sc)
		result.Ranked = append(result.Ranked, sc)
	}
	if len(result.Ranked) == 0 {
		return nil, errors.WithStack(errors.ErrNoCandidates)
	}

	Rank(result.Ranked)
	result.Best = result.Ranked[0]
	printSummary(s.console, result.Ranked)

	result.Artifact = artifact.New(result.Best.Name, result.Best.Model, s.features, s.target, result.Best.Metrics)
	if err := result.Artifact.Save(s.artifactPath); err != nil {
		s.logger.Error("Error saving model", err, log.OperationKey, log.OperationPersist, log.PathKey, s.artifactPath)
		return nil, err
	}
	result.ArtifactPath = s.artifactPath
	s.logger.Info("Best model saved",
		log.OperationKey, log.OperationPersist,
		log.ModelNameKey, result.Best.Name,
		log.R2ScoreKey, result.Best.Metrics.R2,
		log.PathKey, s.artifactPath,
		"run_id", result.Artifact.ID,
	)
	color.New(color.FgGreen, color.Bold).Fprintf(s.console, "Best model '%s' saved to %s\n", result.Best.Name, s.artifactPath)

	if s.plotPath != "" {
		if err := PlotPredictions(result.Best.Name, actual, result.Best.Predictions, s.plotPath); err != nil {
			s.logger.Error("Error writing prediction plot", err, log.PathKey, s.plotPath)
		} else {
			s.logger.Info("Prediction plot written", log.PathKey, s.plotPath)
		}
	}
	return result, nil
}

// Rank orders candidates by R² descending. Equal scores keep their input order.
func Rank(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Metrics.R2 > scored[j].Metrics.R2
	})
}

func (s *Selector) evaluate(i int, XTrain, yTrain, XTest mat.Matrix, yTest *mat.VecDense) Scored {
	c := s.candidates[i]
	sc := Scored{Name: c.Name, Index: i}
	start := time.Now()
	sc.Err = errors.SafeExecute("Selector.evaluate "+c.Name, func() error {
		m := c.New()
		if err := m.Fit(XTrain, yTrain); err != nil {
			return err
		}
		pred, err := m.Predict(XTest)
		if err != nil {
			return err
		}
		predictions := model.Column(pred)
		if err := errors.CheckNumericalStability(c.Name+".Predict", predictions); err != nil {
			return err
		}
		report, err := metrics.EvaluateMatrix(yTest, pred)
		if err != nil {
			return err
		}
		sc.Model = m
		sc.Metrics = report
		sc.Predictions = predictions
		return nil
	})
	sc.Duration = time.Since(start)
	return sc
}

func subset(X *mat.Dense, y []float64, rows []int) (*mat.Dense, *mat.VecDense) {
	_, cols := X.Dims()
	Xs := mat.NewDense(len(rows), cols, nil)
	ys := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		Xs.SetRow(i, X.RawRowView(r))
		ys.SetVec(i, y[r])
	}
	return Xs, ys
}
