package linear

// Params holds the hyperparameters shared by the linear estimators.
// Fields are exported so that fitted models can be gob encoded.
type Params struct {
	FitIntercept bool    // Whether to calculate the intercept
	Alpha        float64 // Regularization strength (Ridge, Lasso)
	MaxIter      int     // Maximum coordinate descent sweeps (Lasso)
	Tol          float64 // Tolerance for the optimization (Lasso)
}

// Option is a function that configures a linear estimator
type Option func(*Params)

func defaultParams() Params {
	return Params{
		FitIntercept: true,
		Alpha:        1.0,
		MaxIter:      1000,
		Tol:          1e-4,
	}
}

func applyOptions(opts []Option) Params {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(p *Params) {
		p.FitIntercept = fit
	}
}

// WithAlpha sets the regularization strength
func WithAlpha(alpha float64) Option {
	return func(p *Params) {
		p.Alpha = alpha
	}
}

// WithMaxIter sets the maximum number of iterations
func WithMaxIter(n int) Option {
	return func(p *Params) {
		p.MaxIter = n
	}
}

// WithTol sets the tolerance for the optimization
func WithTol(tol float64) Option {
	return func(p *Params) {
		p.Tol = tol
	}
}
