// Package feed classifies raw status-feed messages from the game process.
//
// The feed announces every play-state transition (menu, pause, scoring,
// song start/end) as a JSON object with an "event" discriminator. Only the
// song-start transition is of interest here; Classify extracts its embedded
// beatmap descriptor and drops everything else without error or logging.
package feed
