package preprocessing

import (
	"github.com/fatih/color"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// save はテーブルを CSV として書き出す
// 失敗してもエラーは返さず、ログとコンソールに出力して false を返す
func save(s settings, t *dataset.Table, path string) bool {
	if err := dataset.WriteFile(path, t); err != nil {
		s.logger.Error("Error saving data", err, log.OperationKey, log.OperationSave, log.PathKey, path)
		color.New(color.FgRed).Fprintf(s.console, "Error saving data: %v\n", err)
		return false
	}
	rows, cols := t.Shape()
	s.logger.Info("Data saved",
		log.OperationKey, log.OperationSave,
		log.PathKey, path,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	color.New(color.FgGreen).Fprintf(s.console, "Data saved to %s\n", path)
	return true
}
