package simservice

import "errors"

// Domain errors for the simulation service.
var (
	// ErrSimulationLocked indicates another run holds the simulation lock.
	ErrSimulationLocked = errors.New("games are already being simulated")

	// ErrRosterSize indicates a user team's roster is outside the allowed size.
	ErrRosterSize = errors.New("roster size violation")

	// ErrForceWinExhausted indicates no attempt produced the requested winner.
	ErrForceWinExhausted = errors.New("forced win not found within attempt budget")

	// ErrGodModeDisabled indicates forced winners cannot be authored.
	ErrGodModeDisabled = errors.New("god mode is disabled")

	// ErrInvalidForcedWinner indicates the forced winner is not playing in the game.
	ErrInvalidForcedWinner = errors.New("forced winner is not in the game")

	// ErrGameNotScheduled indicates the game id is not on the schedule.
	ErrGameNotScheduled = errors.New("game is not on the schedule")

	// ErrNoPlayoffGames indicates the playoff schedule generator produced an empty day.
	ErrNoPlayoffGames = errors.New("playoff schedule generator produced no games")
)
