package ingest

import "errors"

var (
	// ErrNoSpectra is returned when an export has no sentinel header or no
	// parsable reading rows.
	ErrNoSpectra = errors.New("ingest: no valid spectra or header found")

	// ErrMissingColumns is returned when the metadata part of a reading row
	// is too short for the required fields.
	ErrMissingColumns = errors.New("ingest: metadata row does not have enough columns")

	// ErrNoReferenceFile is returned when a dark-reference directory holds
	// no .txt file.
	ErrNoReferenceFile = errors.New("ingest: no .txt dark reference file found")

	// ErrNoReferenceData is returned when a dark reference has no wavelength
	// record or no intensity records.
	ErrNoReferenceData = errors.New("ingest: no valid dark reference data found")

	// ErrBadRange is returned for an invalid Excel cell range.
	ErrBadRange = errors.New("ingest: invalid cell range")
)
