package upload

import (
	"strings"

	"ArtistStudio/model"
)

type mediaClass int

const (
	classAudio mediaClass = iota
	classImage
	classVideo
)

type fileType struct {
	ext   string
	class mediaClass
}

// allowedTypes is the MIME allow-list; the extension only decorates generated names.
var allowedTypes = map[string]fileType{
	"audio/mpeg":      {".mp3", classAudio},
	"audio/mp3":       {".mp3", classAudio},
	"audio/wav":       {".wav", classAudio},
	"audio/x-wav":     {".wav", classAudio},
	"audio/flac":      {".flac", classAudio},
	"audio/aac":       {".aac", classAudio},
	"audio/mp4":       {".m4a", classAudio},
	"image/jpeg":      {".jpg", classImage},
	"image/png":       {".png", classImage},
	"image/webp":      {".webp", classImage},
	"video/mp4":       {".mp4", classVideo},
	"video/quicktime": {".mov", classVideo},
}

var kindClasses = map[model.UploadKind]mediaClass{
	model.UploadKindTrack:        classAudio,
	model.UploadKindCoverArt:     classImage,
	model.UploadKindArtistAvatar: classImage,
	model.UploadKindVideo:        classVideo,
}

// lookupType normalises a declared MIME type ("Audio/MPEG; charset=x" -> "audio/mpeg").
func lookupType(declared string) (string, fileType, bool) {
	mime := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	ft, ok := allowedTypes[mime]
	return mime, ft, ok
}

// AllowedTypes lists the accepted MIME types.
func AllowedTypes() []string {
	out := make([]string, 0, len(allowedTypes))
	for k := range allowedTypes {
		out = append(out, k)
	}
	return out
}
