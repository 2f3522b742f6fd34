package domain

import "errors"

var (
	// ErrNotFound signals an empty latest-reading or latest-prediction query.
	ErrNotFound = errors.New("not found")

	// ErrArtifactNotLoaded signals a classification attempt before the frozen
	// model artifact was loaded. Fatal for the run, never for the process.
	ErrArtifactNotLoaded = errors.New("classifier artifact not loaded")
)
