package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"ArtistStudio/model"
)

// SaveTrackDetails stores descriptive metadata for an uploaded media object.
func (c *Client) SaveTrackDetails(ctx context.Context, userID int64, details model.TrackDetails) (*model.SavedTrack, error) {
	var saved model.SavedTrack
	if err := c.do(ctx, http.MethodPost, "/tracks", nil, userID, details, &saved); err != nil {
		return nil, err
	}
	// 没有曲目 ID 的成功响应无法确认保存结果
	if saved.ID == "" {
		return nil, fmt.Errorf("%w: catalogue returned no track id", ErrNoResponse)
	}
	if saved.MediaID == "" {
		saved.MediaID = details.MediaID
	}
	return &saved, nil
}

// ListArtists returns the artists the user may manage.
func (c *Client) ListArtists(ctx context.Context, userID int64) ([]model.Artist, error) {
	q := url.Values{"owner_id": {strconv.FormatInt(userID, 10)}}
	var artists []model.Artist
	if err := c.do(ctx, http.MethodGet, "/artists", q, userID, nil, &artists); err != nil {
		return nil, err
	}
	if artists == nil {
		artists = []model.Artist{}
	}
	return artists, nil
}

// GetArtist fetches one artist profile.
func (c *Client) GetArtist(ctx context.Context, artistID string) (*model.Artist, error) {
	var artist model.Artist
	if err := c.do(ctx, http.MethodGet, "/artists/"+url.PathEscape(artistID), nil, 0, nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// CreateArtist creates a profile owned by userID.
func (c *Client) CreateArtist(ctx context.Context, userID int64, in model.ArtistInput) (*model.Artist, error) {
	var artist model.Artist
	if err := c.do(ctx, http.MethodPost, "/artists", nil, userID, in, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// UpdateArtist replaces the editable fields of a profile.
func (c *Client) UpdateArtist(ctx context.Context, userID int64, artistID string, in model.ArtistInput) (*model.Artist, error) {
	var artist model.Artist
	if err := c.do(ctx, http.MethodPut, "/artists/"+url.PathEscape(artistID), nil, userID, in, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// GetMetrics returns one metric series (streams, listeners, revenue) for a period.
func (c *Client) GetMetrics(ctx context.Context, artistID, metric, period string) (*model.MetricSeries, error) {
	q := url.Values{"period": {period}}
	path := "/artists/" + url.PathEscape(artistID) + "/metrics/" + url.PathEscape(metric)
	var series model.MetricSeries
	if err := c.do(ctx, http.MethodGet, path, q, 0, nil, &series); err != nil {
		return nil, err
	}
	if series.Metric == "" {
		series.Metric = metric
	}
	return &series, nil
}

// GetTopTracks returns the most streamed tracks of an artist for a period.
func (c *Client) GetTopTracks(ctx context.Context, artistID, period string, limit int) ([]model.TopTrack, error) {
	q := url.Values{"period": {period}, "limit": {strconv.Itoa(limit)}}
	var tracks []model.TopTrack
	if err := c.do(ctx, http.MethodGet, "/artists/"+url.PathEscape(artistID)+"/top-tracks", q, 0, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}
