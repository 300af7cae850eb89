package repository

import (
	"context"
	"errors"
	"time"

	"ArtistStudio/model"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or belongs to someone else.
var ErrNotFound = errors.New("repository: record not found")

// UploadRepository 上传记录数据访问接口
type UploadRepository interface {
	Create(ctx context.Context, record *model.UploadRecord) error
	GetByID(ctx context.Context, id string) (*model.UploadRecord, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.UploadRecord, error)
	// Activate flips the active flag of a record owned by userID.
	Activate(ctx context.Context, id string, userID int64, metadata model.Metadata) error
	ListStale(ctx context.Context, before time.Time, limit int) ([]*model.UploadRecord, error)
	// DeleteInactive removes the record only while it is still inactive and
	// reports whether a row was deleted.
	DeleteInactive(ctx context.Context, id string) (bool, error)
}

// gormUploadRepository GORM 实现
type gormUploadRepository struct {
	db *gorm.DB
}

// NewGormUploadRepository 创建 GORM 上传记录仓库
func NewGormUploadRepository(db *gorm.DB) UploadRepository {
	return &gormUploadRepository{db: db}
}

// Create 创建上传记录
func (r *gormUploadRepository) Create(ctx context.Context, record *model.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID 根据ID获取上传记录
func (r *gormUploadRepository) GetByID(ctx context.Context, id string) (*model.UploadRecord, error) {
	var record model.UploadRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByUser 获取用户的上传记录，最新的在前
func (r *gormUploadRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.UploadRecord, error) {
	var records []*model.UploadRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, err
}

// Activate 激活上传记录
func (r *gormUploadRepository) Activate(ctx context.Context, id string, userID int64, metadata model.Metadata) error {
	updates := map[string]interface{}{
		"active":       true,
		"confirmed_at": time.Now(),
	}
	if len(metadata) > 0 {
		updates["metadata"] = metadata
	}
	res := r.db.WithContext(ctx).Model(&model.UploadRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStale 获取在 before 之前创建且仍未激活的记录
func (r *gormUploadRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*model.UploadRecord, error) {
	var records []*model.UploadRecord
	err := r.db.WithContext(ctx).
		Where("active = ? AND created_at < ?", false, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// DeleteInactive 删除仍未激活的上传记录，期间被确认的记录不会被删除
func (r *gormUploadRepository) DeleteInactive(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, false).Delete(&model.UploadRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
