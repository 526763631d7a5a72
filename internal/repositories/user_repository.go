package repositories

import (
	"errors"

	"messaging_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	FindByIDs(db *gorm.DB, ids []string) ([]models.User, error)
	ExistsByUsernameOrEmail(db *gorm.DB, username, email string) (bool, error)
	Delete(db *gorm.DB, id string) error
	CountAll(db *gorm.DB) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByIDs returns the users that exist; callers compare lengths to detect misses.
func (r *UserRepositoryImpl) FindByIDs(db *gorm.DB, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) ExistsByUsernameOrEmail(db *gorm.DB, username, email string) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Count(&count).Error
	return count, err
}
