package model

// TrackDetails is the descriptive metadata attached to an uploaded track.
type TrackDetails struct {
	MediaID     string   `json:"mediaId" validate:"required,uuid"`
	ArtistID    string   `json:"artistId,omitempty"`
	Title       string   `json:"title" validate:"required,max=200"`
	Album       string   `json:"album,omitempty" validate:"max=200"`
	Genre       string   `json:"genre,omitempty" validate:"max=64"`
	Duration    int      `json:"duration" validate:"gte=0"` // Duration in seconds
	Tags        []string `json:"tags,omitempty" validate:"max=20,dive,max=40"`
	ReleaseDate string   `json:"releaseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CoverArtID  string   `json:"coverArtId,omitempty" validate:"omitempty,uuid"`
}

// SavedTrack is what the catalogue API returns after storing track details.
type SavedTrack struct {
	ID      string `json:"id"`
	MediaID string `json:"mediaId"`
	Title   string `json:"title"`
	Status  string `json:"status"`
}
