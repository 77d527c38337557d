package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// Cleaner は欠損率の高い列を削除し、残りの列の欠損値を補完する
type Cleaner struct {
	settings
}

// NewCleaner は新しい Cleaner を作成する
//
// 使用例:
//
//	cleaner := preprocessing.NewCleaner(preprocessing.WithThreshold(0.5))
//	cleaned := cleaner.Clean(table)
func NewCleaner(opts ...Option) *Cleaner {
	return &Cleaner{settings: newSettings("cleaner", opts)}
}

// Threshold は設定されている欠損率の閾値を返す
func (c *Cleaner) Threshold() float64 {
	return c.threshold
}

// DropHighMissing は欠損率が閾値を厳密に超える列を削除する
// 削除した列名を順序通りに返す（空でもよい）
func (c *Cleaner) DropHighMissing(t *dataset.Table) (*dataset.Table, []string) {
	dropped := []string{}
	for _, col := range t.Columns() {
		if col.MissingFraction() > c.threshold {
			dropped = append(dropped, col.Name)
		}
	}
	c.logger.Info("Dropped columns with high missing values",
		log.OperationKey, log.OperationDrop,
		log.ThresholdKey, c.threshold,
		log.ColumnsKey, dropped,
	)
	return t.Drop(dropped...), dropped
}

// FillMissing は数値列を中央値、カテゴリ列を最頻値で補完する
// 観測値が一つもない列は補完値がないため削除される
func (c *Cleaner) FillMissing(t *dataset.Table) *dataset.Table {
	out := t.Clone()
	var unfillable []string
	for _, col := range out.Columns() {
		if col.MissingCount() == 0 {
			continue
		}
		if col.MissingCount() == col.Len() {
			unfillable = append(unfillable, col.Name)
			continue
		}
		switch col.Kind {
		case dataset.Numeric:
			m := Median(observedFloats(col))
			for i := range col.Valid {
				if !col.Valid[i] {
					col.Floats[i] = m
					col.Valid[i] = true
				}
			}
		case dataset.Categorical:
			m := Mode(observedTexts(col))
			for i := range col.Valid {
				if !col.Valid[i] {
					col.Texts[i] = m
					col.Valid[i] = true
				}
			}
		}
	}
	if len(unfillable) > 0 {
		c.logger.Error("Columns without observed values removed",
			errors.NewValueError("Cleaner.FillMissing", "no value to impute"),
			log.OperationKey, log.OperationFill,
			log.ColumnsKey, unfillable,
		)
		out = out.Drop(unfillable...)
	}
	c.logger.Info("Missing values filled.", log.OperationKey, log.OperationFill)
	return out
}

// Clean は DropHighMissing と FillMissing を順に実行する
func (c *Cleaner) Clean(t *dataset.Table) *dataset.Table {
	dropped, _ := c.DropHighMissing(t)
	out := c.FillMissing(dropped)
	rows, cols := out.Shape()
	c.logger.Info("Data cleaning completed.",
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return out
}

// Save はクリーニング済みのテーブルを CSV として保存する
func (c *Cleaner) Save(t *dataset.Table, path string) bool {
	return save(c.settings, t, path)
}

func observedFloats(col *dataset.Column) []float64 {
	out := make([]float64, 0, col.Len())
	for i, ok := range col.Valid {
		if ok {
			out = append(out, col.Floats[i])
		}
	}
	return out
}

func observedTexts(col *dataset.Column) []string {
	out := make([]string, 0, col.Len())
	for i, ok := range col.Valid {
		if ok {
			out = append(out, col.Texts[i])
		}
	}
	return out
}

// Median は中央値を返す。偶数個の場合は中央 2 値の平均
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mode は最頻値を返す。同数の場合は辞書順で最小の値
func Mode(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
