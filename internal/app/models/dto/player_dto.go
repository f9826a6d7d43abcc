package dto

// PlayerPlayedRequest marks a queue entry as played
type PlayerPlayedRequest struct {
	RequestID int64 `json:"requestId" binding:"required"`
}

// CurrentSongResponse reports the player's current playback state.
// The data model carries no now-playing marker, so IsPlaying is false and
// CurrentSong nil until such a marker exists.
type CurrentSongResponse struct {
	CurrentSong   interface{} `json:"currentSong"`
	IsPlaying     bool        `json:"isPlaying"`
	QueuePosition *int        `json:"queuePosition"`
}
