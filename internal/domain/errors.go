package domain

import "errors"

var (
	// ErrDataLoad means an input file is missing or malformed. Fatal.
	ErrDataLoad = errors.New("data load failed")

	// ErrLocationUnavailable means no coordinate could be acquired
	// automatically. Callers fall back to manual entry.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrResolutionMiss means no district could be matched to a coordinate.
	// The map is still rendered, with neutral styling.
	ErrResolutionMiss = errors.New("location could not be resolved to a district")

	// ErrScoreNotFound means the district resolved but has no scored row.
	ErrScoreNotFound = errors.New("no score for district")

	// ErrEmptyReferenceSet is returned by resolvers built on an empty table.
	ErrEmptyReferenceSet = errors.New("reference point table is empty")

	// ErrInputClosed means interactive input ended before a valid answer.
	ErrInputClosed = errors.New("input closed")
)
