package config

import "errors"

// Fatal configuration errors. All of these must surface before any
// file-system mutation happens.
var (
	ErrInputDirMissing    = errors.New("input directory does not exist or is not a directory")
	ErrOutputNotDirectory = errors.New("output path exists and is not a directory")
	ErrOutputInsideInput  = errors.New("output directory collides with or nests inside the input directory")
	ErrConfigExists       = errors.New("configuration file already exists")
)
