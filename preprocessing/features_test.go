package preprocessing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

func houseTable(t *testing.T) *dataset.Table {
	return mustTable(t,
		dataset.NewNumericColumn("FullBath", []float64{2, 1}, nil),
		dataset.NewNumericColumn("HalfBath", []float64{1, 0}, nil),
		dataset.NewNumericColumn("BsmtFullBath", []float64{1, 0}, nil),
		dataset.NewNumericColumn("BsmtHalfBath", []float64{0, 1}, nil),
		dataset.NewNumericColumn("YrSold", []float64{2010, 2008}, nil),
		dataset.NewNumericColumn("YearBuilt", []float64{1995, 1960}, nil),
		dataset.NewNumericColumn("YearRemodAdd", []float64{1995, 2001}, nil),
	)
}

func TestCreateFeatures(t *testing.T) {
	out, report := NewFeatureEngineer(WithLogger(log.Nop())).CreateFeatures(houseTable(t))

	if diff := cmp.Diff([]string{"TotalBathrooms", "HouseAge", "Remodeled"}, report.Derived); diff != "" {
		t.Errorf("derived (-want +got):\n%s", diff)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("unexpected skips: %v", report.Skipped)
	}

	tests := []struct {
		name string
		want []float64
	}{
		{"TotalBathrooms", []float64{3.5, 1.5}},
		{"HouseAge", []float64{15, 48}},
		{"Remodeled", []float64{0, 1}},
	}
	for _, tt := range tests {
		got, err := out.Vector(tt.name)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestCreateFeaturesSkipsMissingSource(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	tbl := houseTable(t).Drop("BsmtHalfBath")
	out, report := NewFeatureEngineer(WithLogger(logger)).CreateFeatures(tbl)

	if out.Has("TotalBathrooms") {
		t.Error("TotalBathrooms should be skipped")
	}
	if !out.Has("HouseAge") || !out.Has("Remodeled") {
		t.Error("independent derivations should still run")
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Feature != "TotalBathrooms" {
		t.Fatalf("skipped = %+v", report.Skipped)
	}
	var mc *errors.MissingColumnError
	if !errors.As(report.Skipped[0].Err, &mc) || mc.Column != "BsmtHalfBath" {
		t.Errorf("skip reason = %v", report.Skipped[0].Err)
	}
	if len(logger.EntriesAt(log.LevelError)) != 1 {
		t.Error("expected the skip to be logged as an error")
	}
}

func TestCreateFeaturesNeverOverwrites(t *testing.T) {
	tbl := houseTable(t)
	if err := tbl.AddColumn(dataset.NewNumericColumn("HouseAge", []float64{-1, -1}, nil)); err != nil {
		t.Fatal(err)
	}
	out, report := NewFeatureEngineer(WithLogger(log.Nop())).CreateFeatures(tbl)
	age, _ := out.Vector("HouseAge")
	if diff := cmp.Diff([]float64{-1, -1}, age); diff != "" {
		t.Errorf("existing column overwritten (-want +got):\n%s", diff)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Feature != "HouseAge" {
		t.Errorf("skipped = %+v", report.Skipped)
	}
}

func TestCreateFeaturesRecoversFromPanic(t *testing.T) {
	f := NewFeatureEngineer(WithLogger(log.Nop()))
	f.derivations = []Derivation{{
		Name:    "Broken",
		Inputs:  []string{"YrSold"},
		Formula: func(in []float64) float64 { return in[5] },
	}}
	out, report := f.CreateFeatures(houseTable(t))
	if out.Has("Broken") {
		t.Error("panicking derivation should be skipped")
	}
	var pe *errors.PanicError
	if len(report.Skipped) != 1 || !errors.As(report.Skipped[0].Err, &pe) {
		t.Errorf("skipped = %+v", report.Skipped)
	}
}

func TestEncode(t *testing.T) {
	tbl := mustTable(t,
		dataset.NewCategoricalColumn("Street", []string{"Pave", "Grvl", "Pave", ""}, []bool{true, true, true, false}),
		dataset.NewNumericColumn("LotArea", []float64{1, 2, 3, 4}, nil),
		dataset.NewCategoricalColumn("Zone", []string{"RM", "RL", "FV", "RL"}, nil),
		dataset.NewCategoricalColumn("Util", []string{"AllPub", "AllPub", "AllPub", "AllPub"}, nil),
	)
	logger, _ := log.NewTestLogger(log.LevelInfo)
	out, encoded := NewFeatureEngineer(WithLogger(logger)).Encode(tbl)

	if diff := cmp.Diff([]string{"Street", "Zone", "Util"}, encoded); diff != "" {
		t.Errorf("encoded (-want +got):\n%s", diff)
	}
	wantNames := []string{"LotArea", "Street_Pave", "Zone_RL", "Zone_RM"}
	if diff := cmp.Diff(wantNames, out.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	pave, _ := out.Vector("Street_Pave")
	if diff := cmp.Diff([]float64{1, 0, 1, 0}, pave); diff != "" {
		t.Errorf("Street_Pave (-want +got):\n%s", diff)
	}
	rm, _ := out.Vector("Zone_RM")
	if diff := cmp.Diff([]float64{1, 0, 0, 0}, rm); diff != "" {
		t.Errorf("Zone_RM (-want +got):\n%s", diff)
	}
	if !logger.ContainsMessage("Encoded categorical columns") {
		t.Error("expected encoding log")
	}
}

func TestEncodeSingleCategoryColumnsKeepRows(t *testing.T) {
	tbl := mustTable(t,
		dataset.NewCategoricalColumn("Street", []string{"Pave", "Pave", "Pave"}, nil),
		dataset.NewCategoricalColumn("Utilities", []string{"AllPub", "", "AllPub"}, []bool{true, false, true}),
	)
	out, encoded := NewFeatureEngineer(WithLogger(log.Nop())).Encode(tbl)

	if diff := cmp.Diff([]string{"Street", "Utilities"}, encoded); diff != "" {
		t.Errorf("encoded (-want +got):\n%s", diff)
	}
	if rows, cols := out.Shape(); rows != 3 || cols != 0 {
		t.Errorf("shape = (%d, %d), want (3, 0)", rows, cols)
	}
}

func TestEncodeKMinusOne(t *testing.T) {
	for k := 1; k <= 5; k++ {
		vals := make([]string, 10)
		for i := range vals {
			vals[i] = string(rune('a' + i%k))
		}
		tbl := mustTable(t, dataset.NewCategoricalColumn("c", vals, nil))
		out, _ := NewFeatureEngineer(WithLogger(log.Nop())).Encode(tbl)
		if out.NumColumns() != k-1 {
			t.Errorf("k=%d: got %d indicator columns", k, out.NumColumns())
		}
		if out.Has("c") {
			t.Errorf("k=%d: original column kept", k)
		}
	}
}

func TestEncodeCollisionLeavesTableUnencoded(t *testing.T) {
	tbl := mustTable(t,
		dataset.NewCategoricalColumn("Roof", []string{"Gable", "Hip"}, nil),
		dataset.NewNumericColumn("Roof_Hip", []float64{0, 0}, nil),
	)
	logger, _ := log.NewTestLogger(log.LevelInfo)
	out, encoded := NewFeatureEngineer(WithLogger(logger)).Encode(tbl)
	if len(encoded) != 0 {
		t.Errorf("encoded = %v", encoded)
	}
	if diff := cmp.Diff([]string{"Roof", "Roof_Hip"}, out.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if len(logger.EntriesAt(log.LevelError)) != 1 {
		t.Error("expected collision to be logged")
	}
}

func TestEngineerAllNumeric(t *testing.T) {
	tbl := houseTable(t)
	if err := tbl.AddColumn(dataset.NewCategoricalColumn("Heating", []string{"GasA", "Wall"}, nil)); err != nil {
		t.Fatal(err)
	}
	out, report := NewFeatureEngineer(WithLogger(log.Nop())).Engineer(tbl)
	for _, col := range out.Columns() {
		if col.Kind != dataset.Numeric {
			t.Errorf("column %s is not numeric", col.Name)
		}
	}
	if diff := cmp.Diff([]string{"Heating"}, report.Encoded); diff != "" {
		t.Errorf("encoded (-want +got):\n%s", diff)
	}
	if !out.Has("Heating_Wall") || !out.Has("Remodeled") {
		t.Errorf("names = %v", out.Names())
	}
}
