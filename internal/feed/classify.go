package feed

import "encoding/json"

// eventSongStart is the type discriminator of the one feed event we consume.
const eventSongStart = "songStart"

// SongStart is the beatmap descriptor extracted from a song-start transition.
// It has no persistent identity: the bridge consumes it immediately to build
// a history record.
type SongStart struct {
	SongHash        string
	SongName        string
	SongAuthorName  string
	LevelAuthorName string
}

// message mirrors the subset of the status feed envelope we care about.
// Every other field of the (large) feed payload is ignored.
type message struct {
	Event  string `json:"event"`
	Status struct {
		Beatmap *beatmap `json:"beatmap"`
	} `json:"status"`
}

type beatmap struct {
	SongHash        string `json:"songHash"`
	SongName        string `json:"songName"`
	SongAuthorName  string `json:"songAuthorName"`
	LevelAuthorName string `json:"levelAuthorName"`
}

// Classify decides whether raw is a song-start transition carrying a beatmap
// descriptor, and extracts it. Every other event type, a null or absent
// beatmap, and malformed JSON all yield (nil, false) — the feed is a
// high-volume heterogeneous stream and irrelevant messages are dropped
// silently. Missing optional descriptor fields decode to empty strings.
func Classify(raw []byte) (*SongStart, bool) {
	var m message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	if m.Event != eventSongStart || m.Status.Beatmap == nil {
		return nil, false
	}
	b := m.Status.Beatmap
	return &SongStart{
		SongHash:        b.SongHash,
		SongName:        b.SongName,
		SongAuthorName:  b.SongAuthorName,
		LevelAuthorName: b.LevelAuthorName,
	}, true
}

// ComposeMapName builds the display title "name - author [mapper]".
// Empty segments are omitted together with their separators, so a descriptor
// with no author fields composes to just the song name.
func ComposeMapName(d *SongStart) string {
	s := d.SongName
	if d.SongAuthorName != "" {
		if s != "" {
			s += " - "
		}
		s += d.SongAuthorName
	}
	if d.LevelAuthorName != "" {
		if s != "" {
			s += " "
		}
		s += "[" + d.LevelAuthorName + "]"
	}
	return s
}
