package repository

import (
	"context"
	"time"

	"agrimandi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	CreateFarmerProfile(ctx context.Context, profile *model.FarmerProfile) error
	CreateBuyerProfile(ctx context.Context, profile *model.BuyerProfile) error
	CreateTransporterProfile(ctx context.Context, profile *model.TransporterProfile) error
	FindBuyerProfile(ctx context.Context, userID uuid.UUID) (*model.BuyerProfile, error)
	FindBuyerByGSTIN(ctx context.Context, gstin string) (*model.BuyerProfile, error)

	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CreateFarmerProfile(ctx context.Context, profile *model.FarmerProfile) error {
	return GetDB(ctx, r.db).Create(profile).Error
}

func (r *userRepository) CreateBuyerProfile(ctx context.Context, profile *model.BuyerProfile) error {
	return GetDB(ctx, r.db).Create(profile).Error
}

func (r *userRepository) CreateTransporterProfile(ctx context.Context, profile *model.TransporterProfile) error {
	return GetDB(ctx, r.db).Create(profile).Error
}

func (r *userRepository) FindBuyerProfile(ctx context.Context, userID uuid.UUID) (*model.BuyerProfile, error) {
	var profile model.BuyerProfile
	if err := GetDB(ctx, r.db).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) FindBuyerByGSTIN(ctx context.Context, gstin string) (*model.BuyerProfile, error) {
	var profile model.BuyerProfile
	if err := GetDB(ctx, r.db).First(&profile, "gstin = ?", gstin).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *userRepository) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	if err := GetDB(ctx, r.db).First(&rt, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Delete(&model.RefreshToken{}, "token = ?", token).Error
}

func (r *userRepository) DeleteExpiredRefreshTokens(ctx context.Context) error {
	return GetDB(ctx, r.db).Delete(&model.RefreshToken{}, "expires_at < ?", time.Now()).Error
}
