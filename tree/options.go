package tree

// Option configures a DecisionTreeRegressor
type Option func(*Params)

// Params holds the tree growth limits. Fields are exported for gob encoding.
type Params struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
}

func defaultParams() Params {
	return Params{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// WithMaxDepth limits the depth of the tree. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(p *Params) {
		p.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node
func WithMinSamplesSplit(n int) Option {
	return func(p *Params) {
		p.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required in each leaf
func WithMinSamplesLeaf(n int) Option {
	return func(p *Params) {
		p.MinSamplesLeaf = n
	}
}
