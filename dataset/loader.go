package dataset

import (
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// DefaultMissingTokens are the field values read as missing in addition to the empty string.
var DefaultMissingTokens = []string{
	"NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "null", "NULL", "None",
	"#N/A", "#N/A N/A", "#NA", "<NA>", "1.#IND", "1.#QNAN", "-1.#IND", "-1.#QNAN",
}

const utf8BOM = "\uFEFF"

// Loader reads a raw CSV file into a Table.
type Loader struct {
	logger  log.Logger
	missing map[string]struct{}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the sink that receives the outcome line.
func WithLoaderLogger(logger log.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMissingTokens replaces the set of values treated as missing. The empty
// field is always missing.
func WithMissingTokens(tokens ...string) LoaderOption {
	return func(l *Loader) {
		l.missing = tokenSet(tokens)
	}
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens)+1)
	set[""] = struct{}{}
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// NewLoader creates a Loader with the default missing tokens.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:  log.Default().With(log.ComponentKey, "loader"),
		missing: tokenSet(DefaultMissingTokens),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the CSV file at path. It never fails: an unreadable or malformed
// file yields an empty Table. Exactly one line is logged per call.
func (l *Loader) Load(path string) *Table {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Error("File not found", err, log.PathKey, path)
		} else {
			l.logger.Error("Error loading data", err, log.PathKey, path)
		}
		return Empty()
	}
	defer f.Close()

	t, err := l.LoadReader(f)
	if err != nil {
		l.logger.Error("Error loading data", err, log.PathKey, path)
		return Empty()
	}

	rows, cols := t.Shape()
	l.logger.Info("Data loaded successfully",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return t
}

// LoadReader parses CSV from r. The first record is the header; names are
// normalized with NormalizeName. A column is Numeric when every observed value
// parses as a number, Categorical otherwise. A column with no observed value is
// Numeric.
func (l *Loader) LoadReader(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(l.tokens()),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "parse csv")
	}
	if df.Ncol() == 0 {
		return nil, errors.NewValueError("dataset.Load", "no columns to parse from file")
	}

	t := Empty()
	for j, raw := range df.Names() {
		name := raw
		if j == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if err := t.AddColumn(fromSeries(NormalizeName(name), df.Col(raw))); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (l *Loader) tokens() []string {
	out := make([]string, 0, len(l.missing))
	for tok := range l.missing {
		out = append(out, tok)
	}
	return out
}

// fromSeries converts a parsed series into a tagged column. Int and Float
// series become Numeric; String and Bool series become Categorical unless
// every element is missing.
func fromSeries(name string, s series.Series) *Column {
	missing := s.IsNaN()
	valid := make([]bool, len(missing))
	observed := 0
	for i, m := range missing {
		valid[i] = !m
		if !m {
			observed++
		}
	}

	switch s.Type() {
	case series.Int, series.Float:
		floats := s.Float()
		for i := range floats {
			if !valid[i] {
				floats[i] = 0
			}
		}
		return NewNumericColumn(name, floats, valid)
	default:
		if observed == 0 {
			return NewNumericColumn(name, make([]float64, len(valid)), valid)
		}
		texts := s.Records()
		for i := range texts {
			if !valid[i] {
				texts[i] = ""
			}
		}
		return NewCategoricalColumn(name, texts, valid)
	}
}
