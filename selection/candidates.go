package selection

import (
	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/ensemble"
	"github.com/YuminosukeSato/houseprice/linear"
	"github.com/YuminosukeSato/houseprice/tree"
)

// Candidate is a named constructor for an untrained regressor. Each run
// builds fresh instances so that candidates never share state.
type Candidate struct {
	Name string
	New  func() model.Regressor
}

// DefaultCandidates returns the five competing algorithms in declaration
// order, each with its standard default hyperparameters.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Name: "Linear Regression", New: func() model.Regressor { return linear.NewLinearRegression() }},
		{Name: "Ridge Regression", New: func() model.Regressor { return linear.NewRidge() }},
		{Name: "Lasso Regression", New: func() model.Regressor { return linear.NewLasso() }},
		{Name: "Decision Tree", New: func() model.Regressor { return tree.NewDecisionTreeRegressor() }},
		{Name: "Gradient Boosting", New: func() model.Regressor { return ensemble.NewGradientBoostingRegressor() }},
	}
}
