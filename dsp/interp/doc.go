// Package interp provides 1-D interpolation onto arbitrary sample grids.
//
// [Linear1D] interpolates piecewise linearly between the known points and
// extends the first and last segments beyond the data range. [Linspace]
// builds the evenly spaced grids that spectra are resampled onto.
package interp
