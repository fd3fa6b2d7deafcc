// Package classify trains and evaluates the tissue/stone classifiers on
// feature tables.
//
// It provides k-nearest neighbours, CART decision trees, random forests and
// gradient-boosted trees behind the Classifier interface, a grid search
// with stratified k-fold cross-validation, the overfit-aware model
// selection rule, confusion-matrix metrics, group-aware train/test
// partitioning, SMOTE oversampling and a JSON model file that can be
// scored later without retraining.
//
// Class indices are positions in the sorted class list of a LabelEncoder.
// In two-class problems index 1 is the positive class.
package classify
