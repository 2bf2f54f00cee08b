package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agrimandi/internal/model"
	"agrimandi/internal/repository"
	"agrimandi/pkg/apperr"
)

var (
	emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)
	gstinRegex = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

// --- DTOs ---

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2"`
	LastName  string `json:"last_name" binding:"required,min=2"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required,oneof=farmer buyer transporter"`
	Address   string `json:"address" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Pincode   string `json:"pincode" binding:"required"`

	// Role payload — exactly one of these should be filled, matching Role.
	Farmer      *FarmerProfileRequest      `json:"farmer"`
	Buyer       *BuyerProfileRequest       `json:"buyer"`
	Transporter *TransporterProfileRequest `json:"transporter"`
}

type FarmerProfileRequest struct {
	FarmName       string  `json:"farm_name"`
	FarmSizeAcres  float64 `json:"farm_size_acres"`
	GSTIN          string  `json:"gstin"`
	PrimaryCrops   string  `json:"primary_crops"`
	YearsOfFarming int     `json:"years_of_farming"`
}

type BuyerProfileRequest struct {
	ShopName     string `json:"shop_name" binding:"required"`
	BusinessType string `json:"business_type"`
	GSTIN        string `json:"gstin" binding:"required"`
}

type TransporterProfileRequest struct {
	CompanyName   string `json:"company_name"`
	LicenseNumber string `json:"license_number"`
	FleetSize     int    `json:"fleet_size"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	City      string `json:"city"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID string) (*UserResponse, error)
}

type authService struct {
	repo      repository.UserRepository
	txManager repository.TransactionManager
	jwtSecret []byte
}

func NewAuthService(repo repository.UserRepository, txManager repository.TransactionManager, jwtSecret []byte) AuthService {
	return &authService{repo: repo, txManager: txManager, jwtSecret: jwtSecret}
}

// --- Implementation ---

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperr.Ef(apperr.Invalid, "invalid role %q", req.Role)
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.E(apperr.Invalid, "invalid email format")
	}
	if !phoneRegex.MatchString(req.Phone) {
		return nil, apperr.E(apperr.Invalid, "phone must be a 10-digit number")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.E(apperr.Conflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if req.Role == model.RoleBuyer {
		if req.Buyer == nil {
			return nil, apperr.E(apperr.Invalid, "buyer profile is required for buyer accounts")
		}
		if !gstinRegex.MatchString(req.Buyer.GSTIN) {
			return nil, apperr.E(apperr.Invalid, "invalid GSTIN format")
		}
		if _, err := s.repo.FindBuyerByGSTIN(ctx, req.Buyer.GSTIN); err == nil {
			return nil, apperr.E(apperr.Conflict, "GSTIN already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check GSTIN: %w", err)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  string(hashedPassword),
		Role:      req.Role,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, user); createErr != nil {
			return fmt.Errorf("failed to create user: %w", createErr)
		}

		switch req.Role {
		case model.RoleFarmer:
			profile := &model.FarmerProfile{UserID: user.ID}
			if req.Farmer != nil {
				profile.FarmName = req.Farmer.FarmName
				profile.FarmSizeAcres = req.Farmer.FarmSizeAcres
				profile.GSTIN = req.Farmer.GSTIN
				profile.PrimaryCrops = req.Farmer.PrimaryCrops
				profile.YearsOfFarming = req.Farmer.YearsOfFarming
			}
			return s.repo.CreateFarmerProfile(txCtx, profile)
		case model.RoleBuyer:
			return s.repo.CreateBuyerProfile(txCtx, &model.BuyerProfile{
				UserID:       user.ID,
				ShopName:     req.Buyer.ShopName,
				BusinessType: req.Buyer.BusinessType,
				GSTIN:        req.Buyer.GSTIN,
			})
		case model.RoleTransporter:
			profile := &model.TransporterProfile{UserID: user.ID}
			if req.Transporter != nil {
				profile.CompanyName = req.Transporter.CompanyName
				profile.LicenseNumber = req.Transporter.LicenseNumber
				profile.FleetSize = req.Transporter.FleetSize
			}
			return s.repo.CreateTransporterProfile(txCtx, profile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapUserToResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.UnauthorizedErr("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.UnauthorizedErr("invalid email or password")
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.UnauthorizedErr("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperr.UnauthorizedErr("refresh token expired")
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Rotate: the old token is single use.
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "invalid user id", err)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return mapUserToResponse(user), nil
}

// --- Helpers ---

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken := uuid.NewString()
	if err := s.repo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func mapUserToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		City:      user.City,
		State:     user.State,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
