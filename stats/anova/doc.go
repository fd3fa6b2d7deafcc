// Package anova runs one-way analysis of variance across labelled spectra
// and turns the per-wavelength p-values into contiguous regions of
// interest.
package anova
