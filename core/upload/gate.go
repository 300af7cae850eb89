package upload

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"ArtistStudio/core/backend"
	"ArtistStudio/core/notify"
	"ArtistStudio/core/session"
	"ArtistStudio/logger"
	"ArtistStudio/model"
	"ArtistStudio/repository"
	"ArtistStudio/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// DefaultMaxBytes is the upload ceiling (10 MiB).
const DefaultMaxBytes int64 = 10 << 20

// DefaultURLExpiry is how long an issued PUT URL stays valid.
const DefaultURLExpiry = 5 * time.Minute

// Records is the part of the upload repository the gate writes to.
type Records interface {
	Create(ctx context.Context, record *model.UploadRecord) error
	GetByID(ctx context.Context, id string) (*model.UploadRecord, error)
	Activate(ctx context.Context, id string, userID int64, metadata model.Metadata) error
}

// TrackSaver persists track details on the catalogue side.
type TrackSaver interface {
	SaveTrackDetails(ctx context.Context, userID int64, details model.TrackDetails) (*model.SavedTrack, error)
}

// Notifier receives upload lifecycle events.
type Notifier interface {
	Publish(userID int64, ev notify.Event)
}

// Recorder counts gate outcomes; code is "ok" on success.
type Recorder interface {
	RecordUpload(kind, code string)
}

// Request is what a client declares before uploading.
type Request struct {
	FileType string           `json:"fileType"`
	FileSize int64            `json:"fileSize"`
	Checksum string           `json:"checksum"`
	Kind     model.UploadKind `json:"uploadKind"`
	// FileName is the client side name. It is only kept as metadata.
	FileName string `json:"fileName,omitempty"`
}

// Ticket is a successful RequestUploadURL result.
type Ticket struct {
	UploadID  string            `json:"uploadId"`
	Key       string            `json:"key"`
	FileName  string            `json:"fileName"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Options configures a Gate. Zero values fall back to the defaults.
type Options struct {
	MaxBytes  int64
	URLExpiry time.Duration
	Notifier  Notifier
	Recorder  Recorder
}

// Gate authorizes direct-to-storage uploads and confirms them afterwards.
type Gate struct {
	presigner storage.Presigner
	records   Records
	tracks    TrackSaver
	notifier  Notifier
	recorder  Recorder
	validate  *validator.Validate

	maxBytes  int64
	urlExpiry time.Duration
	now       func() time.Time
	random    io.Reader
	newID     func() string
}

// NewGate wires a gate over its storage, record and catalogue boundaries.
func NewGate(presigner storage.Presigner, records Records, tracks TrackSaver, opts Options) *Gate {
	g := &Gate{
		presigner: presigner,
		records:   records,
		tracks:    tracks,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		maxBytes:  opts.MaxBytes,
		urlExpiry: opts.URLExpiry,
		now:       time.Now,
		random:    defaultRandom,
		newID:     uuid.NewString,
	}
	if g.maxBytes <= 0 {
		g.maxBytes = DefaultMaxBytes
	}
	if g.urlExpiry <= 0 {
		g.urlExpiry = DefaultURLExpiry
	}
	return g
}

// MaxBytes returns the configured size ceiling.
func (g *Gate) MaxBytes() int64 { return g.maxBytes }

// RequestUploadURL validates req and issues a pre-signed PUT for it. Every
// non-nil error is a *Failure. Nothing is signed or stored unless the session
// is valid and the request passes validation.
func (g *Gate) RequestUploadURL(ctx context.Context, sess *session.Session, req Request) (*Ticket, error) {
	ticket, f := g.requestUploadURL(ctx, sess, req)
	kind := "unknown"
	if req.Kind.Valid() {
		kind = string(req.Kind)
	}
	g.record(kind, f)
	if f != nil {
		return nil, f
	}
	return ticket, nil
}

func (g *Gate) requestUploadURL(ctx context.Context, sess *session.Session, req Request) (*Ticket, *Failure) {
	now := g.now()
	if !sess.Valid(now) {
		return nil, fail(KindUnauthenticated, CodeUnauthenticated, "you must be signed in to upload files")
	}

	// size is checked first so oversized payloads are reported as such whatever their type
	if req.FileSize > g.maxBytes {
		return nil, fail(KindInvalidInput, CodeFileTooLarge, "file exceeds the %d byte limit", g.maxBytes)
	}
	if req.FileSize <= 0 {
		return nil, fail(KindInvalidInput, CodeInvalidFileSize, "file size must be positive")
	}
	mime, ft, ok := lookupType(req.FileType)
	if !ok {
		return nil, fail(KindInvalidInput, CodeInvalidFileType, "file type %q is not allowed", req.FileType)
	}
	if !req.Kind.Valid() {
		return nil, fail(KindInvalidInput, CodeInvalidUploadKind, "unknown upload kind %q", req.Kind)
	}
	if kindClasses[req.Kind] != ft.class {
		return nil, fail(KindInvalidInput, CodeInvalidFileType, "file type %q cannot be used for %s uploads", mime, req.Kind)
	}
	checksum := strings.TrimSpace(req.Checksum)
	if !validChecksum(checksum) {
		return nil, fail(KindInvalidInput, CodeInvalidChecksum, "checksum must be a base64 encoded SHA-256 digest")
	}

	name, err := randomName(g.random)
	if err != nil {
		logger.Error("[Upload] 生成文件名失败", logger.ErrorField(err))
		return nil, fail(KindPersistenceFailure, CodeStorageFailed, "could not prepare the upload, please retry")
	}
	key := objectKey(req.Kind, name, ft.ext)

	signed, err := g.presigner.PresignPut(ctx, storage.PutRequest{
		Key:            key,
		ContentType:    mime,
		ContentLength:  req.FileSize,
		ChecksumSHA256: checksum,
		Expires:        g.urlExpiry,
	})
	if err != nil {
		logger.Error("[Upload] 签发上传地址失败",
			logger.String("key", key),
			logger.Int64("user", sess.UserID),
			logger.ErrorField(err))
		return nil, fail(KindPersistenceFailure, CodeStorageFailed, "could not issue an upload URL, please retry")
	}

	record := &model.UploadRecord{
		ID:          g.newID(),
		UserID:      sess.UserID,
		Kind:        req.Kind,
		StoragePath: key,
		FileName:    name + ft.ext,
		ContentHash: checksum,
		ByteSize:    req.FileSize,
		MimeType:    mime,
		Metadata:    requestMetadata(sess, req),
		Active:      false,
		ExpiresAt:   signed.ExpiresAt,
	}
	if err := g.records.Create(ctx, record); err != nil {
		logger.Error("[Upload] 保存上传记录失败",
			logger.String("key", key),
			logger.Int64("user", sess.UserID),
			logger.ErrorField(err))
		return nil, fail(KindPersistenceFailure, CodePersistenceFailed, "could not record the upload, please retry")
	}

	logger.Info("[Upload] 上传地址已签发",
		logger.String("uploadId", record.ID),
		logger.String("key", key),
		logger.String("kind", string(req.Kind)),
		logger.Int64("user", sess.UserID),
		logger.Int64("size", req.FileSize))

	g.publish(sess.UserID, notify.Event{
		Type:     notify.EventURLIssued,
		UploadID: record.ID,
		Kind:     string(req.Kind),
		Key:      key,
	})

	return &Ticket{
		UploadID:  record.ID,
		Key:       key,
		FileName:  record.FileName,
		URL:       signed.URL,
		Method:    signed.Method,
		Headers:   signed.Headers,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

// ConfirmRecordDetails saves track details for an uploaded media object and
// activates its Upload Record. Every non-nil error is a *Failure.
func (g *Gate) ConfirmRecordDetails(ctx context.Context, sess *session.Session, details model.TrackDetails) (*model.SavedTrack, error) {
	saved, f := g.confirmRecordDetails(ctx, sess, details)
	g.record("details", f)
	if f != nil {
		return nil, f
	}
	return saved, nil
}

func (g *Gate) confirmRecordDetails(ctx context.Context, sess *session.Session, details model.TrackDetails) (*model.SavedTrack, *Failure) {
	if !sess.Valid(g.now()) {
		return nil, fail(KindUnauthenticated, CodeUnauthenticated, "you must be signed in to save track details")
	}

	details = g.normalizeDetails(details, sess)
	if err := g.validate.Struct(details); err != nil {
		return nil, fail(KindInvalidInput, CodeInvalidDetails, "%s", describeValidation(err))
	}
	// 只能为会话中已选择（已校验权限）的艺人保存曲目
	if details.ArtistID != sess.SelectedArtistID {
		return nil, fail(KindInvalidInput, CodeArtistMismatch, "tracks can only be filed under the selected artist")
	}

	record, f := g.ownedRecord(ctx, sess, details.MediaID, model.UploadKindTrack)
	if f != nil {
		return nil, f
	}
	if record.Active {
		return nil, fail(KindInvalidInput, CodeAlreadyConfirmed, "media %s already has saved track details", record.ID)
	}
	if f := g.verifyUploaded(ctx, record); f != nil {
		return nil, f
	}
	if details.CoverArtID != "" {
		cover, f := g.ownedRecord(ctx, sess, details.CoverArtID, model.UploadKindCoverArt)
		if f != nil {
			return nil, f
		}
		// 封面可被多首曲目复用，已激活的封面之前校验过
		if !cover.Active {
			if f := g.verifyUploaded(ctx, cover); f != nil {
				return nil, f
			}
		}
	}

	saved, err := g.tracks.SaveTrackDetails(ctx, sess.UserID, details)
	if err != nil {
		return nil, classifyBackend(err)
	}

	meta := model.Metadata{"trackId": saved.ID, "title": details.Title}
	if err := g.records.Activate(ctx, record.ID, sess.UserID, meta); err != nil {
		// the track exists remotely; the record stays inactive until a retry succeeds
		logger.Error("[Upload] 激活上传记录失败",
			logger.String("uploadId", record.ID),
			logger.String("trackId", saved.ID),
			logger.ErrorField(err))
		return nil, fail(KindPersistenceFailure, CodePersistenceFailed, "track saved but the upload could not be finalized, please retry")
	}
	if details.CoverArtID != "" {
		if err := g.records.Activate(ctx, details.CoverArtID, sess.UserID, model.Metadata{"trackId": saved.ID}); err != nil {
			logger.Warn("[Upload] 激活封面记录失败",
				logger.String("uploadId", details.CoverArtID),
				logger.ErrorField(err))
		}
	}

	logger.Info("[Upload] 曲目信息已保存",
		logger.String("uploadId", record.ID),
		logger.String("trackId", saved.ID),
		logger.Int64("user", sess.UserID))

	g.publish(sess.UserID, notify.Event{
		Type:     notify.EventRecordConfirmed,
		UploadID: record.ID,
		Kind:     string(record.Kind),
		Key:      record.StoragePath,
		TrackID:  saved.ID,
	})
	return saved, nil
}

func (g *Gate) ownedRecord(ctx context.Context, sess *session.Session, id string, kind model.UploadKind) (*model.UploadRecord, *Failure) {
	record, err := g.records.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && (record == nil || record.UserID != sess.UserID)) {
		return nil, fail(KindInvalidInput, CodeUnknownMedia, "media %s was not uploaded by you", id)
	}
	if err != nil {
		logger.Error("[Upload] 查询上传记录失败", logger.String("uploadId", id), logger.ErrorField(err))
		return nil, fail(KindPersistenceFailure, CodePersistenceFailed, "could not load the upload, please retry")
	}
	if record.Kind != kind {
		return nil, fail(KindInvalidInput, CodeInvalidDetails, "media %s is a %s upload, expected %s", id, record.Kind, kind)
	}
	return record, nil
}

// verifyUploaded checks the client's PUT actually landed and matches the declared size.
func (g *Gate) verifyUploaded(ctx context.Context, record *model.UploadRecord) *Failure {
	info, err := g.presigner.StatObject(ctx, record.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fail(KindInvalidInput, CodeUnknownMedia, "media %s has not been uploaded yet", record.ID)
	}
	if err != nil {
		logger.Error("[Upload] 查询存储对象失败",
			logger.String("uploadId", record.ID),
			logger.String("key", record.StoragePath),
			logger.ErrorField(err))
		return fail(KindPersistenceFailure, CodeStorageFailed, "could not check the uploaded media, please retry")
	}
	if info.Size != record.ByteSize {
		logger.Warn("[Upload] 上传文件大小与声明不符",
			logger.String("uploadId", record.ID),
			logger.Int64("declared", record.ByteSize),
			logger.Int64("stored", info.Size))
		return fail(KindInvalidInput, CodeUnknownMedia, "media %s does not match the declared upload", record.ID)
	}
	return nil
}

// normalizeDetails trims text fields, folds and de-duplicates tags and
// defaults the artist to the session's selected artist.
func (g *Gate) normalizeDetails(d model.TrackDetails, sess *session.Session) model.TrackDetails {
	d.MediaID = strings.TrimSpace(d.MediaID)
	d.Title = strings.TrimSpace(d.Title)
	d.Album = strings.TrimSpace(d.Album)
	d.Genre = strings.TrimSpace(d.Genre)
	d.ArtistID = strings.TrimSpace(d.ArtistID)
	if d.ArtistID == "" {
		d.ArtistID = sess.SelectedArtistID
	}

	fold := cases.Fold() // Casers are stateful, one per call
	seen := make(map[string]bool, len(d.Tags))
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		t = fold.String(strings.Join(strings.Fields(t), " "))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	d.Tags = tags
	return d
}

func classifyBackend(err error) *Failure {
	var rej *backend.RejectedError
	switch {
	case errors.As(err, &rej):
		logger.Warn("[Upload] 曲目信息被拒绝", logger.Int("status", rej.Status), logger.String("message", rej.Message))
		return fail(KindPersistenceFailure, CodeRejected, "%s", rej.Message)
	case errors.Is(err, backend.ErrNoResponse):
		logger.Error("[Upload] 曲目服务无响应", logger.ErrorField(err))
		return fail(KindPersistenceFailure, CodeNoResponse, "the catalogue service did not respond, please retry")
	default:
		logger.Error("[Upload] 保存曲目信息失败", logger.ErrorField(err))
		return fail(KindPersistenceFailure, CodePersistenceFailed, "could not save track details")
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "track details are invalid"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

func requestMetadata(sess *session.Session, req Request) model.Metadata {
	meta := model.Metadata{}
	if name := path.Base(strings.ReplaceAll(req.FileName, "\\", "/")); req.FileName != "" && name != "." && name != "/" {
		if len(name) > 255 {
			name = name[:255]
		}
		meta["originalName"] = name
	}
	if sess.SelectedArtistID != "" {
		meta["artistId"] = sess.SelectedArtistID
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func (g *Gate) publish(userID int64, ev notify.Event) {
	if g.notifier != nil {
		g.notifier.Publish(userID, ev)
	}
}

func (g *Gate) record(kind string, f *Failure) {
	if g.recorder == nil {
		return
	}
	code := "ok"
	if f != nil {
		code = f.Code
	}
	g.recorder.RecordUpload(kind, code)
}
