package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// UploadKind names what a pending upload is going to be attached to.
type UploadKind string

const (
	UploadKindTrack        UploadKind = "track"
	UploadKindCoverArt     UploadKind = "coverArt"
	UploadKindArtistAvatar UploadKind = "artistAvatar"
	UploadKindVideo        UploadKind = "video"
)

// UploadKinds lists the accepted upload kinds.
var UploadKinds = []UploadKind{UploadKindTrack, UploadKindCoverArt, UploadKindArtistAvatar, UploadKindVideo}

// Valid reports whether k is an accepted upload kind.
func (k UploadKind) Valid() bool {
	for _, known := range UploadKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Metadata 自定义类型用于 GORM JSON 字段的自动扫描
type Metadata map[string]string

// Scan 实现 sql.Scanner 接口
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*m = nil
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value 实现 driver.Valuer 接口
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// UploadRecord is the bookkeeping row for a direct-to-storage upload. It is
// created inactive when the signed URL is issued and activated once the
// referencing track or release has been saved.
type UploadRecord struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	UserID      int64      `json:"userId" gorm:"index;not null"`
	Kind        UploadKind `json:"kind" gorm:"size:32;not null"`
	StoragePath string     `json:"storagePath" gorm:"size:512;not null;uniqueIndex"`
	FileName    string     `json:"fileName" gorm:"size:128;not null"`
	ContentHash string     `json:"contentHash" gorm:"size:64;not null"`
	ByteSize    int64      `json:"byteSize" gorm:"not null"`
	MimeType    string     `json:"mimeType" gorm:"size:64;not null"`
	Metadata    Metadata   `json:"metadata,omitempty" gorm:"type:json"`
	Active      bool       `json:"active" gorm:"default:false;index"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName 指定表名
func (UploadRecord) TableName() string {
	return "upload_records"
}
