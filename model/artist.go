package model

import "time"

// Artist is an artist profile managed from the studio.
type Artist struct {
	ID        string            `json:"id"`
	OwnerID   int64             `json:"ownerId"`
	LabelID   int64             `json:"labelId,omitempty"` // 签约厂牌的用户 ID，0 表示独立艺人
	Name      string            `json:"name"`
	Bio       string            `json:"bio,omitempty"`
	Genres    []string          `json:"genres,omitempty"`
	AvatarID  string            `json:"avatarId,omitempty"`
	Country   string            `json:"country,omitempty"`
	Links     map[string]string `json:"links,omitempty"`
	Verified  bool              `json:"verified"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ArtistInput is the editable part of an artist profile.
type ArtistInput struct {
	Name     string            `json:"name" validate:"required,max=120"`
	Bio      string            `json:"bio,omitempty" validate:"max=2000"`
	Genres   []string          `json:"genres,omitempty" validate:"max=10,dive,max=40"`
	AvatarID string            `json:"avatarId,omitempty" validate:"omitempty,uuid"`
	Country  string            `json:"country,omitempty" validate:"omitempty,len=2"`
	Links    map[string]string `json:"links,omitempty" validate:"max=10,dive,url"`
}
