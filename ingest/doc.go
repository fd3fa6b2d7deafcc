// Package ingest reads spectrometer exports from disk.
//
// Four layouts are supported:
//
//   - pixel exports: delimited text with a header row that contains the
//     PixelDataArray sentinel; every column after the sentinel is a
//     wavelength and every later row is one reading (ReadPixelExport),
//   - dark-reference text files with FILE_START/FILE_END sentinels and 16
//     metadata fields in front of every record (LoadDarkReference),
//   - Excel workbooks holding replicate dark measurements at fixed cell
//     offsets (ReadDarkReferenceExcel),
//   - legacy TRL5 CSV exports with rotation/position rows and a trailing
//     Attribute,Value metadata block (ReadTRL5).
//
// The package does not log. Problems are reported as errors wrapping the
// sentinels in errors.go so that batch callers can skip a file and carry on.
package ingest
