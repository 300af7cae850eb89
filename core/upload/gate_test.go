package upload

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ArtistStudio/core/backend"
	"ArtistStudio/core/notify"
	"ArtistStudio/core/session"
	"ArtistStudio/model"
	"ArtistStudio/repository"
	"ArtistStudio/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakePresigner struct {
	mu    sync.Mutex
	calls []storage.PutRequest
	err   error
	now   time.Time
	// objects maps keys that were PUT to their stored size.
	objects map[string]int64
	statErr error
}

func (p *fakePresigner) PresignPut(_ context.Context, req storage.PutRequest) (*storage.PresignedPut, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	if p.err != nil {
		return nil, p.err
	}
	return &storage.PresignedPut{
		URL:       "https://media.test/studio/" + req.Key + "?X-Amz-Signature=sig",
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": req.ContentType},
		ExpiresAt: p.now.Add(req.Expires),
	}, nil
}

func (p *fakePresigner) StatObject(_ context.Context, key string) (*storage.ObjectInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statErr != nil {
		return nil, p.statErr
	}
	size, ok := p.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: size}, nil
}

func (p *fakePresigner) RemoveObject(context.Context, string) error { return nil }

type fakeRecords struct {
	mu          sync.Mutex
	records     map[string]*model.UploadRecord
	creates     int
	createErr   error
	getErr      error
	activateErr error
	activated   map[string]model.Metadata
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]*model.UploadRecord{}, activated: map[string]model.Metadata{}}
}

func (r *fakeRecords) Create(_ context.Context, rec *model.UploadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *fakeRecords) GetByID(_ context.Context, id string) (*model.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRecords) Activate(_ context.Context, id string, userID int64, meta model.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activateErr != nil {
		return r.activateErr
	}
	rec, ok := r.records[id]
	if !ok || rec.UserID != userID {
		return repository.ErrNotFound
	}
	rec.Active = true
	r.activated[id] = meta
	return nil
}

type fakeTracks struct {
	calls []model.TrackDetails
	err   error
}

func (f *fakeTracks) SaveTrackDetails(_ context.Context, _ int64, d model.TrackDetails) (*model.SavedTrack, error) {
	f.calls = append(f.calls, d)
	if f.err != nil {
		return nil, f.err
	}
	return &model.SavedTrack{ID: "trk-1", MediaID: d.MediaID, Title: d.Title, Status: "draft"}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *fakeNotifier) Publish(_ int64, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

type fakeRecorder struct{ codes []string }

func (r *fakeRecorder) RecordUpload(kind, code string) { r.codes = append(r.codes, kind+":"+code) }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

// ---- helpers ----

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	gate      *Gate
	presigner *fakePresigner
	records   *fakeRecords
	tracks    *fakeTracks
	notifier  *fakeNotifier
	recorder  *fakeRecorder
}

func newHarness() *harness {
	h := &harness{
		presigner: &fakePresigner{now: testNow, objects: map[string]int64{}},
		records:   newFakeRecords(),
		tracks:    &fakeTracks{},
		notifier:  &fakeNotifier{},
		recorder:  &fakeRecorder{},
	}
	h.gate = NewGate(h.presigner, h.records, h.tracks, Options{Notifier: h.notifier, Recorder: h.recorder})
	h.gate.now = func() time.Time { return testNow }
	return h
}

func sessionFor(role model.Role) *session.Session {
	return &session.Session{UserID: 7, Username: "nova", Role: role, ExpiresAt: testNow.Add(time.Hour)}
}

func checksumOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func validRequest() Request {
	return Request{FileType: "audio/mp3", FileSize: 2 << 20, Checksum: checksumOf("audio"), Kind: model.UploadKindTrack}
}

func requireFailure(t *testing.T, err error, kind Kind, code string) *Failure {
	t.Helper()
	require.Error(t, err)
	var f *Failure
	require.True(t, errors.As(err, &f), "expected *Failure, got %T", err)
	assert.Equal(t, kind, f.Kind)
	assert.Equal(t, code, f.Code)
	assert.NotEmpty(t, f.Message)
	return f
}

// ---- RequestUploadURL ----

func TestRequestUploadURL_LabelUploadsMp3(t *testing.T) {
	h := newHarness()

	ticket, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleLabel), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.URL)
	assert.NotEmpty(t, ticket.UploadID)
	assert.Equal(t, "PUT", ticket.Method)
	assert.Equal(t, testNow.Add(5*time.Minute), ticket.ExpiresAt)
	assert.True(t, strings.HasPrefix(ticket.Key, "track/"))
	assert.True(t, strings.HasSuffix(ticket.Key, ".mp3"))

	require.Len(t, h.presigner.calls, 1)
	call := h.presigner.calls[0]
	assert.Equal(t, ticket.Key, call.Key)
	assert.Equal(t, "audio/mp3", call.ContentType)
	assert.Equal(t, int64(2<<20), call.ContentLength)
	assert.Equal(t, checksumOf("audio"), call.ChecksumSHA256)
	assert.Equal(t, 5*time.Minute, call.Expires)

	rec, ok := h.records.records[ticket.UploadID]
	require.True(t, ok)
	assert.False(t, rec.Active)
	assert.Equal(t, int64(7), rec.UserID)
	assert.Equal(t, model.UploadKindTrack, rec.Kind)
	assert.Equal(t, ticket.Key, rec.StoragePath)
	assert.Equal(t, ticket.FileName, rec.FileName)
	assert.Equal(t, int64(2<<20), rec.ByteSize)
	assert.Equal(t, "audio/mp3", rec.MimeType)
	assert.Equal(t, checksumOf("audio"), rec.ContentHash)

	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, notify.EventURLIssued, h.notifier.events[0].Type)
	assert.Equal(t, []string{"track:ok"}, h.recorder.codes)
}

func TestRequestUploadURL_RequiresSession(t *testing.T) {
	expired := sessionFor(model.RoleArtist)
	expired.ExpiresAt = testNow.Add(-time.Second)

	for name, sess := range map[string]*session.Session{
		"nil session":     nil,
		"anonymous":       {Role: model.RoleArtist},
		"expired session": expired,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			_, err := h.gate.RequestUploadURL(context.Background(), sess, validRequest())
			requireFailure(t, err, KindUnauthenticated, CodeUnauthenticated)
			assert.Empty(t, h.presigner.calls)
			assert.Zero(t, h.records.creates, "no persistence call without a session")
		})
	}
}

func TestRequestUploadURL_RejectsFileTypes(t *testing.T) {
	for _, fileType := range []string{"", "text/html", "application/x-msdownload", "audio/ogg", "image/svg+xml", "audio"} {
		t.Run(fileType, func(t *testing.T) {
			h := newHarness()
			req := validRequest()
			req.FileType = fileType
			_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), req)
			requireFailure(t, err, KindInvalidInput, CodeInvalidFileType)
			assert.Empty(t, h.presigner.calls, "no signed URL")
			assert.Zero(t, h.records.creates, "no Upload Record")
		})
	}
}

func TestRequestUploadURL_SizeCeiling(t *testing.T) {
	for _, fileType := range []string{"audio/mpeg", "video/mp4", "text/plain", ""} {
		t.Run("over limit "+fileType, func(t *testing.T) {
			h := newHarness()
			req := validRequest()
			req.FileType = fileType
			req.FileSize = 10<<20 + 1
			_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), req)
			requireFailure(t, err, KindInvalidInput, CodeFileTooLarge)
			assert.Zero(t, h.records.creates)
		})
	}

	t.Run("exactly at limit", func(t *testing.T) {
		h := newHarness()
		req := validRequest()
		req.FileSize = 10 << 20
		_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), req)
		assert.NoError(t, err)
	})

	t.Run("non positive", func(t *testing.T) {
		h := newHarness()
		req := validRequest()
		req.FileSize = 0
		_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), req)
		requireFailure(t, err, KindInvalidInput, CodeInvalidFileSize)
	})
}

func TestRequestUploadURL_KindAndChecksum(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		code   string
	}{
		{"unknown kind", func(r *Request) { r.Kind = "podcast" }, CodeInvalidUploadKind},
		{"image for track", func(r *Request) { r.FileType = "image/png" }, CodeInvalidFileType},
		{"audio for avatar", func(r *Request) { r.Kind = model.UploadKindArtistAvatar }, CodeInvalidFileType},
		{"missing checksum", func(r *Request) { r.Checksum = "" }, CodeInvalidChecksum},
		{"not base64", func(r *Request) { r.Checksum = "not-a-digest!" }, CodeInvalidChecksum},
		{"short digest", func(r *Request) { r.Checksum = base64.StdEncoding.EncodeToString(make([]byte, 16)) }, CodeInvalidChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			req := validRequest()
			tt.mutate(&req)
			_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), req)
			requireFailure(t, err, KindInvalidInput, tt.code)
			assert.Empty(t, h.presigner.calls)
		})
	}
}

func TestRequestUploadURL_NormalisesMimeType(t *testing.T) {
	h := newHarness()
	req := validRequest()
	req.FileType = " Audio/MPEG; charset=binary"
	ticket, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), req)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", h.records.records[ticket.UploadID].MimeType)
}

func TestRequestUploadURL_DownstreamFailures(t *testing.T) {
	t.Run("storage", func(t *testing.T) {
		h := newHarness()
		h.presigner.err = errors.New("signing key unavailable")
		_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), validRequest())
		requireFailure(t, err, KindPersistenceFailure, CodeStorageFailed)
		assert.Zero(t, h.records.creates)
	})

	t.Run("persistence", func(t *testing.T) {
		h := newHarness()
		h.records.createErr = errors.New("connection reset")
		_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), validRequest())
		f := requireFailure(t, err, KindPersistenceFailure, CodePersistenceFailed)
		assert.NotContains(t, f.Message, "connection reset")
		assert.Empty(t, h.notifier.events)
		assert.Equal(t, []string{"track:persistence_failed"}, h.recorder.codes)
	})

	t.Run("random source", func(t *testing.T) {
		h := newHarness()
		h.gate.random = failingReader{}
		_, err := h.gate.RequestUploadURL(context.Background(), sessionFor(model.RoleArtist), validRequest())
		requireFailure(t, err, KindPersistenceFailure, CodeStorageFailed)
	})
}

func TestRequestUploadURL_NamesAreUnique(t *testing.T) {
	h := newHarness()
	h.gate.notifier = nil
	sess := sessionFor(model.RoleArtist)

	names := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ticket, err := h.gate.RequestUploadURL(context.Background(), sess, validRequest())
		require.NoError(t, err)
		names[ticket.FileName] = struct{}{}
	}
	assert.Len(t, names, 10000)
}

func TestRequestUploadURL_ClientFileNameNeverReachesKey(t *testing.T) {
	h := newHarness()
	sess := sessionFor(model.RoleArtist)
	sess.SelectedArtistID = "artist-9"
	req := validRequest()
	req.FileName = "../../etc/passwd.mp3"

	ticket, err := h.gate.RequestUploadURL(context.Background(), sess, req)
	require.NoError(t, err)
	assert.NotContains(t, ticket.Key, "..")
	assert.NotContains(t, ticket.Key, "passwd")
	assert.Regexp(t, `^track/[0-9a-f]{32}\.mp3$`, ticket.Key)

	meta := h.records.records[ticket.UploadID].Metadata
	assert.Equal(t, "passwd.mp3", meta["originalName"])
	assert.Equal(t, "artist-9", meta["artistId"])
}

// ---- ConfirmRecordDetails ----

// seedRecord stores an inactive record whose object has already been uploaded.
func seedRecord(h *harness, userID int64, kind model.UploadKind) string {
	id := uuid.NewString()
	key := string(kind) + "/" + id
	h.records.records[id] = &model.UploadRecord{ID: id, UserID: userID, Kind: kind, StoragePath: key, ByteSize: 4096}
	h.presigner.objects[key] = 4096
	return id
}

func TestConfirmRecordDetails_ActivatesRecord(t *testing.T) {
	h := newHarness()
	sess := sessionFor(model.RoleArtist)
	sess.SelectedArtistID = "artist-1"
	mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
	coverID := seedRecord(h, sess.UserID, model.UploadKindCoverArt)

	saved, err := h.gate.ConfirmRecordDetails(context.Background(), sess, model.TrackDetails{
		MediaID:     mediaID,
		Title:       "  Night Drive ",
		Tags:        []string{"Lo-Fi", "lo-fi ", "  CHILL", ""},
		ReleaseDate: "2026-06-01",
		CoverArtID:  coverID,
	})
	require.NoError(t, err)
	assert.Equal(t, "trk-1", saved.ID)

	require.Len(t, h.tracks.calls, 1)
	sent := h.tracks.calls[0]
	assert.Equal(t, "Night Drive", sent.Title)
	assert.Equal(t, []string{"lo-fi", "chill"}, sent.Tags)
	assert.Equal(t, "artist-1", sent.ArtistID)

	assert.True(t, h.records.records[mediaID].Active)
	assert.Equal(t, "trk-1", h.records.activated[mediaID]["trackId"])
	assert.True(t, h.records.records[coverID].Active)

	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, notify.EventRecordConfirmed, h.notifier.events[0].Type)
	assert.Equal(t, "trk-1", h.notifier.events[0].TrackID)
}

func TestConfirmRecordDetails_FailsClosedWithoutSession(t *testing.T) {
	h := newHarness()
	mediaID := seedRecord(h, 7, model.UploadKindTrack)

	_, err := h.gate.ConfirmRecordDetails(context.Background(), nil, model.TrackDetails{MediaID: mediaID, Title: "x"})
	requireFailure(t, err, KindUnauthenticated, CodeUnauthenticated)
	assert.Empty(t, h.tracks.calls)
	assert.False(t, h.records.records[mediaID].Active)
}

func TestConfirmRecordDetails_BackendFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"no response", fmt.Errorf("%w: dial tcp: connection refused", backend.ErrNoResponse), CodeNoResponse, ""},
		{"explicit rejection", &backend.RejectedError{Status: 422, Message: "duplicate title"}, CodeRejected, "duplicate title"},
		{"unexpected", errors.New("boom"), CodePersistenceFailed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.tracks.err = tt.err
			sess := sessionFor(model.RoleLabel)
			mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)

			_, err := h.gate.ConfirmRecordDetails(context.Background(), sess, model.TrackDetails{MediaID: mediaID, Title: "Song"})
			f := requireFailure(t, err, KindPersistenceFailure, tt.code)
			if tt.message != "" {
				assert.Equal(t, tt.message, f.Message)
			}
			assert.False(t, h.records.records[mediaID].Active)
			assert.Empty(t, h.notifier.events)
		})
	}
}

func TestConfirmRecordDetails_InputFailures(t *testing.T) {
	h := newHarness()
	sess := sessionFor(model.RoleArtist)
	mine := seedRecord(h, sess.UserID, model.UploadKindTrack)
	theirs := seedRecord(h, 99, model.UploadKindTrack)
	cover := seedRecord(h, sess.UserID, model.UploadKindCoverArt)

	tests := []struct {
		name    string
		details model.TrackDetails
		code    string
	}{
		{"missing title", model.TrackDetails{MediaID: mine, Title: "   "}, CodeInvalidDetails},
		{"media id not a uuid", model.TrackDetails{MediaID: "abc", Title: "t"}, CodeInvalidDetails},
		{"bad release date", model.TrackDetails{MediaID: mine, Title: "t", ReleaseDate: "01/06/2026"}, CodeInvalidDetails},
		{"unknown media", model.TrackDetails{MediaID: uuid.NewString(), Title: "t"}, CodeUnknownMedia},
		{"someone else's media", model.TrackDetails{MediaID: theirs, Title: "t"}, CodeUnknownMedia},
		{"cover used as track", model.TrackDetails{MediaID: cover, Title: "t"}, CodeInvalidDetails},
		{"track used as cover", model.TrackDetails{MediaID: mine, Title: "t", CoverArtID: mine}, CodeInvalidDetails},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.gate.ConfirmRecordDetails(context.Background(), sess, tt.details)
			requireFailure(t, err, KindInvalidInput, tt.code)
		})
	}
	assert.Empty(t, h.tracks.calls)
}

func TestConfirmRecordDetails_RequiresUploadedObject(t *testing.T) {
	t.Run("never uploaded", func(t *testing.T) {
		h := newHarness()
		sess := sessionFor(model.RoleArtist)
		ticket, err := h.gate.RequestUploadURL(context.Background(), sess, validRequest())
		require.NoError(t, err)

		h.gate.now = func() time.Time { return testNow.Add(24 * time.Hour) }
		sess.ExpiresAt = testNow.Add(48 * time.Hour)
		_, err = h.gate.ConfirmRecordDetails(context.Background(), sess, model.TrackDetails{MediaID: ticket.UploadID, Title: "t"})
		requireFailure(t, err, KindInvalidInput, CodeUnknownMedia)
		assert.Empty(t, h.tracks.calls)
		assert.False(t, h.records.records[ticket.UploadID].Active)
	})

	t.Run("size differs from declaration", func(t *testing.T) {
		h := newHarness()
		sess := sessionFor(model.RoleArtist)
		mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
		h.presigner.objects[h.records.records[mediaID].StoragePath] = 1

		_, err := h.gate.ConfirmRecordDetails(context.Background(), sess, model.TrackDetails{MediaID: mediaID, Title: "t"})
		requireFailure(t, err, KindInvalidInput, CodeUnknownMedia)
		assert.Empty(t, h.tracks.calls)
	})

	t.Run("cover art never uploaded", func(t *testing.T) {
		h := newHarness()
		sess := sessionFor(model.RoleArtist)
		mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
		coverID := seedRecord(h, sess.UserID, model.UploadKindCoverArt)
		delete(h.presigner.objects, h.records.records[coverID].StoragePath)

		_, err := h.gate.ConfirmRecordDetails(context.Background(), sess,
			model.TrackDetails{MediaID: mediaID, Title: "t", CoverArtID: coverID})
		requireFailure(t, err, KindInvalidInput, CodeUnknownMedia)
		assert.Empty(t, h.tracks.calls)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		h := newHarness()
		sess := sessionFor(model.RoleArtist)
		mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
		h.presigner.statErr = errors.New("connection refused")

		_, err := h.gate.ConfirmRecordDetails(context.Background(), sess, model.TrackDetails{MediaID: mediaID, Title: "t"})
		requireFailure(t, err, KindPersistenceFailure, CodeStorageFailed)
		assert.Empty(t, h.tracks.calls)
	})
}

func TestConfirmRecordDetails_RejectsSecondConfirmation(t *testing.T) {
	h := newHarness()
	sess := sessionFor(model.RoleArtist)
	mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
	details := model.TrackDetails{MediaID: mediaID, Title: "Once"}

	_, err := h.gate.ConfirmRecordDetails(context.Background(), sess, details)
	require.NoError(t, err)
	_, err = h.gate.ConfirmRecordDetails(context.Background(), sess, details)
	requireFailure(t, err, KindInvalidInput, CodeAlreadyConfirmed)
	assert.Len(t, h.tracks.calls, 1)
}

func TestConfirmRecordDetails_SharedCoverArt(t *testing.T) {
	h := newHarness()
	sess := sessionFor(model.RoleArtist)
	coverID := seedRecord(h, sess.UserID, model.UploadKindCoverArt)

	for _, title := range []string{"Side A", "Side B"} {
		mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
		_, err := h.gate.ConfirmRecordDetails(context.Background(), sess,
			model.TrackDetails{MediaID: mediaID, Title: title, CoverArtID: coverID})
		require.NoError(t, err)
	}
	assert.Len(t, h.tracks.calls, 2)
}

func TestConfirmRecordDetails_ArtistComesFromSession(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		artistID string
	}{
		{"other artist", "mine", "someone-elses-artist"},
		{"artist without selection", "", "a-own"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			sess := sessionFor(model.RoleArtist)
			sess.SelectedArtistID = tt.selected
			mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)

			_, err := h.gate.ConfirmRecordDetails(context.Background(), sess,
				model.TrackDetails{MediaID: mediaID, Title: "t", ArtistID: tt.artistID})
			requireFailure(t, err, KindInvalidInput, CodeArtistMismatch)
			assert.Empty(t, h.tracks.calls)
			assert.False(t, h.records.records[mediaID].Active)
		})
	}

	t.Run("selected artist sent explicitly", func(t *testing.T) {
		h := newHarness()
		sess := sessionFor(model.RoleArtist)
		sess.SelectedArtistID = "mine"
		mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)

		_, err := h.gate.ConfirmRecordDetails(context.Background(), sess,
			model.TrackDetails{MediaID: mediaID, Title: "t", ArtistID: " mine "})
		require.NoError(t, err)
		require.Len(t, h.tracks.calls, 1)
		assert.Equal(t, "mine", h.tracks.calls[0].ArtistID)
	})
}

func TestConfirmRecordDetails_ActivationFailure(t *testing.T) {
	h := newHarness()
	sess := sessionFor(model.RoleArtist)
	mediaID := seedRecord(h, sess.UserID, model.UploadKindTrack)
	h.records.activateErr = errors.New("deadlock")

	_, err := h.gate.ConfirmRecordDetails(context.Background(), sess, model.TrackDetails{MediaID: mediaID, Title: "t"})
	requireFailure(t, err, KindPersistenceFailure, CodePersistenceFailed)
}

func TestConfirmRecordDetails_LookupFailure(t *testing.T) {
	h := newHarness()
	h.records.getErr = errors.New("timeout")
	_, err := h.gate.ConfirmRecordDetails(context.Background(), sessionFor(model.RoleArtist),
		model.TrackDetails{MediaID: uuid.NewString(), Title: "t"})
	requireFailure(t, err, KindPersistenceFailure, CodePersistenceFailed)
}

func TestAsFailure(t *testing.T) {
	assert.Nil(t, AsFailure(nil))

	f := &Failure{Kind: KindInvalidInput, Code: CodeFileTooLarge, Message: "too big"}
	assert.Same(t, f, AsFailure(fmt.Errorf("wrapped: %w", f)))

	other := AsFailure(errors.New("raw"))
	assert.Equal(t, KindPersistenceFailure, other.Kind)
	assert.Equal(t, CodePersistenceFailed, other.Code)
}
