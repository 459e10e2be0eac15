package simdb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTeamNotFound indicates a team id with no team record.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTeamSeasonNotFound indicates a team has no record for the requested season.
	ErrTeamSeasonNotFound = errors.New("team season not found")

	// ErrNoRowsAffected indicates an UPDATE/DELETE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
