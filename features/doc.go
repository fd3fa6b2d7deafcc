// Package features turns processed spectra into feature tables: power
// ratios between wavelength bands, per-band area, peak-to-trough ratio,
// spread and mean, plus peak detection and peak-range averages.
//
// Missing values (a zero denominator, an empty band) are NaN. Table
// imputes them column-wise before a table reaches a classifier.
package features
