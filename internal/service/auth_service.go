package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"circuitrack/config"
	"circuitrack/internal/auth"
	"circuitrack/internal/domain"
	"circuitrack/internal/models"
	"circuitrack/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrInvalidRole  = errors.New("role must be BUYER or VENDOR")
)

type AuthService struct {
	cfg      *config.Config
	db       *gorm.DB
	userRepo *repository.UserRepository
	wallets  *WalletService
}

func NewAuthService(cfg *config.Config, db *gorm.DB, userRepo *repository.UserRepository, wallets *WalletService) *AuthService {
	return &AuthService{cfg: cfg, db: db, userRepo: userRepo, wallets: wallets}
}

type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	Role      string
	CompanyID *string
}

// Register creates the user and the user's wallet together.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, string, error) {
	role := strings.ToUpper(in.Role)
	if role == "" {
		role = domain.RoleBuyer
	}
	if role != domain.RoleBuyer && role != domain.RoleVendor {
		return nil, "", "", ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    in.CompanyID,
	}
	if err := s.createWithWallet(ctx, u); err != nil {
		return nil, "", "", err
	}
	access, refresh, err := s.issue(u)
	if err != nil {
		return u, "", "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) createWithWallet(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		w, err := s.wallets.ProvisionTx(ctx, tx, u.ID, s.cfg.Wallet.OpeningBalance)
		if err != nil {
			return fmt.Errorf("provision wallet: %w", err)
		}
		u.Wallet = w
		return nil
	})
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, refresh, err := s.issue(u)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return s.issue(u)
}

// SeedAdmin creates the configured admin account once. Admins get a wallet
// too so manual adjustments can be exercised against it.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.Admin.Email))
	if email == "" || s.cfg.Admin.Password == "" {
		return nil
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := &models.User{Email: email, FullName: "Administrator", PasswordHash: string(hash), Role: domain.RoleAdmin}
	if err := s.createWithWallet(ctx, u); err != nil {
		return err
	}
	log.Printf("[auth] seeded admin %s", email)
	return nil
}

func (s *AuthService) issue(u *models.User) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
