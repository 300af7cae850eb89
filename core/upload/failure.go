package upload

import (
	"errors"
	"fmt"
)

// Kind classifies a gate failure.
type Kind string

const (
	KindUnauthenticated    Kind = "Unauthenticated"
	KindInvalidInput       Kind = "InvalidInput"
	KindPersistenceFailure Kind = "PersistenceFailure"
)

// Machine readable failure codes.
const (
	CodeUnauthenticated   = "unauthenticated"
	CodeInvalidFileType   = "invalid_file_type"
	CodeFileTooLarge      = "file_too_large"
	CodeInvalidFileSize   = "invalid_file_size"
	CodeInvalidChecksum   = "invalid_checksum"
	CodeInvalidUploadKind = "invalid_upload_kind"
	CodeInvalidDetails    = "invalid_details"
	CodeUnknownMedia      = "unknown_media"
	CodeAlreadyConfirmed  = "already_confirmed"
	CodeArtistMismatch    = "artist_mismatch"
	CodeStorageFailed     = "storage_failed"
	CodePersistenceFailed = "persistence_failed"
	CodeNoResponse        = "no_response"
	CodeRejected          = "rejected"
)

// Failure is the only error type returned by Gate.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func fail(kind Kind, code, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsFailure extracts the Failure from err. Anything else is reported as persistence_failed.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindPersistenceFailure, Code: CodePersistenceFailed, Message: "upload could not be processed"}
}
