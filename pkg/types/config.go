// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BatchConfig holds settings for the batch orchestrator.
type BatchConfig struct {
	// Workers is the maximum number of jobs processed concurrently
	// (default 5).
	Workers int `json:"workers" yaml:"workers"`

	// OutputDir is the destination directory for cropped documents.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// OutputSuffix is appended to the input base name (default "_cropped").
	OutputSuffix string `json:"output_suffix" yaml:"output_suffix"`
}

// DefaultWorkers is the worker bound used when BatchConfig.Workers is unset.
const DefaultWorkers = 5

// DefaultOutputSuffix is the suffix used when BatchConfig.OutputSuffix is unset.
const DefaultOutputSuffix = "_cropped"

// ConversionConfig holds settings for the external office converter used to
// turn legacy .doc files into .docx before the flow-margin transform runs.
type ConversionConfig struct {
	// SofficePath is the LibreOffice binary. Empty means auto-detect.
	SofficePath string `json:"soffice_path,omitempty" yaml:"soffice_path,omitempty"`

	// Timeout bounds one conversion subprocess run (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// HistoryConfig holds settings for the batch run history store.
type HistoryConfig struct {
	// DBPath is the SQLite database file (default "margincrop.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}
