package recorder

import "errors"

var (
	// ErrFilesystem - output directory could not be prepared
	ErrFilesystem = errors.New("filesystem error")
	// ErrSpawn - downloader process could not be started
	ErrSpawn = errors.New("spawn error")
)
