package log

// Model and operation context. Keeping the attribute keys in one place
// makes the JSON logs filterable by stage, model, and metric.
const (
	// ModelNameKey identifies the model type, e.g. "LinearRegression",
	// "KNNClassifier", "LogisticRegression".
	ModelNameKey = "model.name"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "transform", "evaluate".
	OperationKey = "ml.operation"

	// StageKey names the pipeline stage: "load", "derive", "fit", "evaluate",
	// "report".
	StageKey = "pipeline.stage"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// DroppedKey is the number of rows removed by missing-value filtering.
	DroppedKey = "data.dropped"
)

// Metric values.
const (
	RMSEKey  = "metrics.rmse"
	KappaKey = "metrics.kappa"
	AUCKey   = "metrics.auc"
	R2Key    = "metrics.r2"
)

// Hyperparameters.
const (
	// NeighborsKey is the selected k for the k-NN classifier.
	NeighborsKey = "hyperparams.neighbors"

	// RegularizationKey is the inverse regularization strength C for the
	// logistic model.
	RegularizationKey = "hyperparams.c"

	// FoldsKey is the number of cross-validation folds.
	FoldsKey = "hyperparams.folds"
)

// Standard operation values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationEvaluate  = "evaluate"
)
