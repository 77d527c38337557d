// Standard attribute keys shared by the pipeline stages. Keys follow a
// hierarchical naming convention ("data.samples", "metrics.r2_score") so that
// log lines from different stages can be filtered together.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the candidate model, e.g. "Ridge".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Examples: "load", "drop", "fill", "derive", "encode", "fit", "score", "persist"
	OperationKey = "ml.operation"

	// ComponentKey identifies which stage emitted the record.
	// Examples: "loader", "cleaner", "features", "selector"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey indicates the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of columns.
	FeaturesKey = "data.features"

	// ColumnsKey lists column names touched by an operation.
	ColumnsKey = "data.columns"

	// PathKey is the file a stage read from or wrote to.
	PathKey = "data.path"
)

// Metrics and run configuration.
const (
	// R2ScoreKey records the coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey records the root mean squared error.
	RMSEKey = "metrics.rmse"

	// MAEKey records the mean absolute error.
	MAEKey = "metrics.mae"

	// AccuracyKey records the fraction of predictions within tolerance.
	AccuracyKey = "metrics.accuracy"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ThresholdKey records the missingness threshold used by the cleaner.
	ThresholdKey = "config.threshold"
)

// Standard attribute values.
const (
	OperationLoad    = "load"
	OperationDrop    = "drop"
	OperationFill    = "fill"
	OperationDerive  = "derive"
	OperationEncode  = "encode"
	OperationSave    = "save"
	OperationFit     = "fit"
	OperationScore   = "score"
	OperationPersist = "persist"

	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
)
