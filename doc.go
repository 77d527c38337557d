// Package houseprice predicts residential sale prices from tabular housing
// data.
//
// The pipeline runs four stages, each in its own package:
//
//   - dataset: CSV loading into a typed Table with normalized column names
//   - preprocessing: dropping sparse columns, median/mode imputation, derived
//     features and one-hot encoding
//   - selection: a seeded train/test split, five regression candidates
//     (linear, tree and boosting packages), ranking by held-out R² and
//     persistence of the winner through the artifact package
//   - pkg/server: HTTP prediction endpoint over a saved artifact
//
// The cmd/houseprice binary wires the stages together:
//
//	houseprice pipeline --config houseprice.yaml
//	houseprice serve --artifact model/house_price_model.gob
//
// Errors come from pkg/errors and carry stack traces; every stage logs through
// the pkg/log Logger interface.
package houseprice
