package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// Derivation は既存の数値列から新しい列を計算する式
type Derivation struct {
	Name    string
	Inputs  []string
	Formula func(in []float64) float64
}

// DefaultDerivations は生成順に並んだ派生特徴量
var DefaultDerivations = []Derivation{
	{
		Name:   "TotalBathrooms",
		Inputs: []string{"FullBath", "HalfBath", "BsmtFullBath", "BsmtHalfBath"},
		Formula: func(in []float64) float64 {
			return in[0] + 0.5*in[1] + in[2] + 0.5*in[3]
		},
	},
	{
		Name:   "HouseAge",
		Inputs: []string{"YrSold", "YearBuilt"},
		Formula: func(in []float64) float64 {
			return in[0] - in[1]
		},
	},
	{
		Name:   "Remodeled",
		Inputs: []string{"YearBuilt", "YearRemodAdd"},
		Formula: func(in []float64) float64 {
			if in[0] != in[1] {
				return 1
			}
			return 0
		},
	},
}

// SkippedFeature は生成できなかった派生特徴量とその理由
type SkippedFeature struct {
	Feature string
	Err     error
}

// Report は特徴量エンジニアリングの結果
// Skipped に含まれる列は出力テーブルに存在しない
type Report struct {
	Derived []string
	Skipped []SkippedFeature
	Encoded []string
}

// FeatureEngineer は派生特徴量を追加し、カテゴリ列を one-hot エンコードする
type FeatureEngineer struct {
	settings
	derivations []Derivation
}

// NewFeatureEngineer は DefaultDerivations を使う FeatureEngineer を作成する
func NewFeatureEngineer(opts ...Option) *FeatureEngineer {
	return &FeatureEngineer{
		settings:    newSettings("features", opts),
		derivations: DefaultDerivations,
	}
}

// CreateFeatures は派生特徴量を順に追加する
// 入力列がない、または計算に失敗した特徴量はログに記録してスキップする
func (f *FeatureEngineer) CreateFeatures(t *dataset.Table) (*dataset.Table, Report) {
	out := t.Clone()
	var report Report
	for _, d := range f.derivations {
		var col *dataset.Column
		err := errors.SafeExecute("derive "+d.Name, func() error {
			var derr error
			col, derr = derive(out, d)
			return derr
		})
		if err == nil {
			err = out.AddColumn(col)
		}
		if err != nil {
			f.logger.Error("Error creating feature", err,
				log.OperationKey, log.OperationDerive,
				"feature", d.Name,
			)
			report.Skipped = append(report.Skipped, SkippedFeature{Feature: d.Name, Err: err})
			continue
		}
		report.Derived = append(report.Derived, d.Name)
	}
	f.logger.Info("Derived features created",
		log.OperationKey, log.OperationDerive,
		log.ColumnsKey, report.Derived,
	)
	return out, report
}

func derive(t *dataset.Table, d Derivation) (*dataset.Column, error) {
	op := "FeatureEngineer." + d.Name
	if t.Has(d.Name) {
		return nil, errors.NewValueError(op, "column already exists: "+d.Name)
	}
	inputs := make([]*dataset.Column, len(d.Inputs))
	for i, name := range d.Inputs {
		col, ok := t.Column(name)
		if !ok {
			return nil, errors.NewMissingColumnError(op, name)
		}
		if col.Kind != dataset.Numeric {
			return nil, errors.NewValueError(op, "column "+name+" is not numeric")
		}
		inputs[i] = col
	}

	n := t.Rows()
	values := make([]float64, n)
	valid := make([]bool, n)
	args := make([]float64, len(inputs))
	for r := 0; r < n; r++ {
		ok := true
		for i, col := range inputs {
			if col.IsMissing(r) {
				ok = false
				break
			}
			args[i] = col.Floats[r]
		}
		if !ok {
			continue
		}
		values[r] = d.Formula(args)
		valid[r] = true
	}
	if err := errors.CheckNumericalStability(op, values); err != nil {
		return nil, err
	}
	return dataset.NewNumericColumn(d.Name, values, valid), nil
}

// Encode はカテゴリ列を k-1 個の 0/1 指示列に置き換える
// カテゴリは辞書順に並べ、先頭を基準水準として除外する
// 指示列は元の列を除いた列の後ろに `<列名>_<カテゴリ>` という名前で追加される
// 列名が衝突した場合はエンコードを行わず、入力のコピーを返す
func (f *FeatureEngineer) Encode(t *dataset.Table) (*dataset.Table, []string) {
	encoded := []string{}
	var indicators []*dataset.Column
	for _, col := range t.Columns() {
		if col.Kind != dataset.Categorical {
			continue
		}
		encoded = append(encoded, col.Name)
		indicators = append(indicators, oneHot(col)...)
	}

	out := t.Drop(encoded...).Clone()
	for _, ind := range indicators {
		if err := out.AddColumn(ind); err != nil {
			f.logger.Error("Error encoding categorical columns", err,
				log.OperationKey, log.OperationEncode,
				"indicator", ind.Name,
			)
			return t.Clone(), []string{}
		}
	}
	f.logger.Info("Encoded categorical columns",
		log.OperationKey, log.OperationEncode,
		log.ColumnsKey, encoded,
	)
	return out, encoded
}

func oneHot(col *dataset.Column) []*dataset.Column {
	seen := map[string]bool{}
	var categories []string
	for i, v := range col.Texts {
		if col.Valid[i] && !seen[v] {
			seen[v] = true
			categories = append(categories, v)
		}
	}
	sort.Strings(categories)
	if len(categories) <= 1 {
		return nil
	}

	out := make([]*dataset.Column, 0, len(categories)-1)
	for _, cat := range categories[1:] {
		values := make([]float64, col.Len())
		for i, v := range col.Texts {
			if col.Valid[i] && v == cat {
				values[i] = 1
			}
		}
		out = append(out, dataset.NewNumericColumn(col.Name+"_"+cat, values, nil))
	}
	return out
}

// Engineer は CreateFeatures と Encode を順に実行する
func (f *FeatureEngineer) Engineer(t *dataset.Table) (*dataset.Table, Report) {
	derived, report := f.CreateFeatures(t)
	out, encoded := f.Encode(derived)
	report.Encoded = encoded
	rows, cols := out.Shape()
	f.logger.Info("Feature engineering completed.",
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return out, report
}

// Save は特徴量エンジニアリング済みのテーブルを CSV として保存する
func (f *FeatureEngineer) Save(t *dataset.Table, path string) bool {
	return save(f.settings, t, path)
}
