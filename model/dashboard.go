package model

import "time"

// MetricPoint is a single sample of a time series.
type MetricPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MetricSeries is a named time series returned by the catalogue API.
type MetricSeries struct {
	Metric string        `json:"metric"`
	Total  float64       `json:"total"`
	Points []MetricPoint `json:"points"`
}

// TopTrack is one row of the top-tracks table.
type TopTrack struct {
	TrackID string  `json:"trackId"`
	Title   string  `json:"title"`
	Streams float64 `json:"streams"`
}

// Dashboard aggregates every widget of the metrics page.
type Dashboard struct {
	ArtistID    string       `json:"artistId"`
	Period      string       `json:"period"`
	Streams     MetricSeries `json:"streams"`
	Listeners   MetricSeries `json:"listeners"`
	Revenue     MetricSeries `json:"revenue"`
	TopTracks   []TopTrack   `json:"topTracks"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
