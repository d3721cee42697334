package action

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SlugTaken reports whether another row of model already uses slug.
func SlugTaken(tx *gorm.DB, model any, slug string, exceptID uint64) (bool, error) {
	q := tx.Model(model).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return count > 0, nil
}

// Exists reports whether a row of model with id exists.
func Exists(tx *gorm.DB, model any, id uint64) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}

	return count > 0, nil
}

// Load fetches the row with id into dst, reporting false when it does not exist.
func Load(tx *gorm.DB, dst any, id uint64) (bool, error) {
	err := tx.First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to load record: %w", err)
	}

	return true, nil
}
