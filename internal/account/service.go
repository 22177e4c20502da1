// Package account manages users: registration, email activation, login
// and password resets. Activation creates the user's wallet.
package account

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"apexpay/internal/domain"
	"apexpay/internal/repository"
	"apexpay/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Config holds token lifetimes and link settings
type Config struct {
	JWTSecret  string
	SiteDomain string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	LinkTTL    time.Duration
	BcryptCost int
}

// Tokens is the pair returned by a successful login
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Service implements the account flows
type Service struct {
	store    repository.Store
	mailer   Mailer
	denylist *utils.TokenDenylist
	cfg      Config
}

func NewService(store repository.Store, mailer Mailer, denylist *utils.TokenDenylist, cfg Config) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.LinkTTL == 0 {
		cfg.LinkTTL = 72 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, mailer: mailer, denylist: denylist, cfg: cfg}
}

// RegisterInput is the data a new account starts with
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register stores an inactive user and mails the activation link
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      "user",
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	logrus.WithContext(ctx).WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")

	if err := s.sendActivation(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendActivation mails a fresh activation link to an inactive user
func (s *Service) ResendActivation(ctx context.Context, email string) error {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.IsActive {
		return domain.ErrAlreadyActive
	}
	return s.sendActivation(ctx, user)
}

// Activate confirms the email of the user encoded in uid and creates the wallet
func (s *Service) Activate(ctx context.Context, uid, token string) error {
	user, err := s.userFromLink(ctx, uid)
	if err != nil {
		return err
	}
	if user.IsActive {
		return domain.ErrAlreadyActive
	}
	if err := s.checkLinkToken(user, token, utils.PurposeActivation); err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		user.IsActive = true
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		return ensureWallet(ctx, tx, user.ID)
	})
	if err != nil {
		return err
	}
	logrus.WithContext(ctx).WithField("user_id", user.ID).Info("User activated")
	return nil
}

// Login checks the credentials and issues an access and a refresh token
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *Tokens, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrInvalidCredentials
	} else if err != nil {
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, domain.ErrInactiveUser
	}

	tokens, err := s.issue(user.ID)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithContext(ctx).WithField("user_id", user.ID).Info("User logged in")
	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.ParseJWT(refreshToken, utils.PurposeRefresh, s.cfg.JWTSecret)
	if err != nil || s.denylist.IsRevoked(ctx, claims.ID) {
		return "", domain.ErrInvalidToken
	}
	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	if !user.IsActive {
		return "", domain.ErrInactiveUser
	}
	return utils.GenerateJWT(user.ID, utils.PurposeAccess, "", s.cfg.AccessTTL, s.cfg.JWTSecret)
}

// Logout revokes the presented access token and, when given, the refresh token
func (s *Service) Logout(ctx context.Context, access *utils.Claims, refreshToken string) error {
	if err := s.revoke(ctx, access); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := utils.ParseJWT(refreshToken, utils.PurposeRefresh, s.cfg.JWTSecret)
	if err != nil || access == nil || claims.UserID != access.UserID {
		return domain.ErrInvalidToken
	}
	return s.revoke(ctx, claims)
}

// RequestPasswordReset mails a reset link to an active user
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if !user.IsActive {
		return domain.ErrInactiveUser
	}
	link, err := s.link(user, utils.PurposeReset, "reset-password-confirm")
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Reset Your Password",
		Body: fmt.Sprintf("Hi, %s %s!\n\nClick below to reset your password:\n\n%s\n\n",
			user.FirstName, user.LastName, link),
	})
}

// ConfirmPasswordReset sets a new password. The link stops working once used.
func (s *Service) ConfirmPasswordReset(ctx context.Context, uid, token, password string) error {
	user, err := s.userFromLink(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.checkLinkToken(user, token, utils.PurposeReset); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hash)
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}
	logrus.WithContext(ctx).WithField("user_id", user.ID).Info("Password reset")
	return nil
}

// Profile returns the user with its wallet attached when one exists
func (s *Service) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.store.Wallets().GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		user.Wallet = wallet
	}
	return user, nil
}

// EnsureAdmin creates or promotes the bootstrap admin account
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByEmail(ctx, email)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user = &domain.User{Email: email, Password: string(hash), Role: domain.RoleAdmin, IsActive: true}
			if err := tx.Users().Create(ctx, user); err != nil {
				return err
			}
		case err != nil:
			return err
		case user.Role != domain.RoleAdmin || !user.IsActive:
			user.Role = domain.RoleAdmin
			user.IsActive = true
			if err := tx.Users().Update(ctx, user); err != nil {
				return err
			}
		}
		return ensureWallet(ctx, tx, user.ID)
	})
}

func (s *Service) sendActivation(ctx context.Context, user *domain.User) error {
	link, err := s.link(user, utils.PurposeActivation, "confirm-email")
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Activate your account",
		Body: fmt.Sprintf("Hi, %s %s!\n\nPlease click the link below to activate your account:\n\n%s\n\nThank you for using our application!",
			user.FirstName, user.LastName, link),
	})
}

// link builds SITE_DOMAIN/api/v1/auth/<route>/<uid>/<token>
func (s *Service) link(user *domain.User, purpose, route string) (string, error) {
	token, err := utils.GenerateJWT(user.ID, purpose, stamp(user), s.cfg.LinkTTL, s.cfg.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return fmt.Sprintf("%s/api/v1/auth/%s/%s/%s", strings.TrimRight(s.cfg.SiteDomain, "/"), route, EncodeUID(user.ID), token), nil
}

func (s *Service) userFromLink(ctx context.Context, uid string) (*domain.User, error) {
	id, err := DecodeUID(uid)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Users().GetByID(ctx, id)
}

func (s *Service) checkLinkToken(user *domain.User, token, purpose string) error {
	claims, err := utils.ParseJWT(token, purpose, s.cfg.JWTSecret)
	if err != nil || claims.UserID != user.ID || claims.Stamp != stamp(user) {
		return domain.ErrInvalidToken
	}
	return nil
}

func (s *Service) issue(userID uint) (*Tokens, error) {
	access, err := utils.GenerateJWT(userID, utils.PurposeAccess, "", s.cfg.AccessTTL, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.GenerateJWT(userID, utils.PurposeRefresh, "", s.cfg.RefreshTTL, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &Tokens{Access: access, Refresh: refresh}, nil
}

func (s *Service) revoke(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func ensureWallet(ctx context.Context, tx repository.Store, userID uint) error {
	_, err := tx.Wallets().GetByUserID(ctx, userID)
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return tx.Wallets().Create(ctx, &domain.Wallet{UserID: userID})
}

// stamp fingerprints the account state a one-shot link was issued against.
// Activating or changing the password invalidates outstanding links.
func stamp(user *domain.User) string {
	sum := sha256.Sum256([]byte(user.Password + "|" + strconv.FormatBool(user.IsActive)))
	return hex.EncodeToString(sum[:8])
}

// EncodeUID renders a user id the way links carry it
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID parses a link uid back into a user id
func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
