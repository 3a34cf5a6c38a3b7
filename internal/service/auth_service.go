package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/models"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

type Auth interface {
	Register(username, password string) (*RegisterResult, error)
	Login(username, password string) (*models.Session, error)
	Logout() error
	Current() (*models.Session, error)
	ChangePassword(oldPassword, newPassword string) error
}

// RegisterResult данные для приветственного сообщения CLI.
type RegisterResult struct {
	UserID          int
	Username        string
	StartingBalance float64
	BaseCurrency    string
}

// AuthService регистрация, вход и сессионный слот. Сессия одна на
// процесс и хранится на диске подписанным токеном.
type AuthService struct {
	userRepo        jsonfile.UserRepository
	portfolioRepo   jsonfile.PortfolioRepository
	sessionStore    jsonfile.SessionStore
	sessionSecret   []byte
	sessionExpiry   time.Duration
	baseCurrency    string
	startingBalance float64
	log             *slog.Logger
}

func NewAuthService(
	userRepo jsonfile.UserRepository,
	portfolioRepo jsonfile.PortfolioRepository,
	sessionStore jsonfile.SessionStore,
	sessionSecret string,
	sessionExpiry time.Duration,
	baseCurrency string,
	startingBalance float64,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		portfolioRepo:   portfolioRepo,
		sessionStore:    sessionStore,
		sessionSecret:   []byte(sessionSecret),
		sessionExpiry:   sessionExpiry,
		baseCurrency:    baseCurrency,
		startingBalance: startingBalance,
		log:             log,
	}
}

// Register создает пользователя и его портфель со стартовым балансом в
// базовой валюте. Имя должно быть уникальным, id назначается монотонно.
func (s *AuthService) Register(username, password string) (result *RegisterResult, err error) {
	const op = "service.Register"
	defer func() {
		logAction(s.log, "register", &models.Session{Username: username}, err)
	}()

	user, err := models.NewUser(0, username, password)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(user)
	if err != nil {
		if errors.Is(err, custom_err.ErrUsernameTaken) {
			return nil, fmt.Errorf("%w: %q", custom_err.ErrUsernameTaken, username)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	portfolio := models.NewPortfolio(created.UserID)
	if _, err := portfolio.AddCurrency(s.baseCurrency, s.startingBalance); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.portfolioRepo.Create(portfolio); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("пользователь зарегистрирован",
		slog.Int("user_id", created.UserID),
		slog.String("username", created.Username))

	return &RegisterResult{
		UserID:          created.UserID,
		Username:        created.Username,
		StartingBalance: s.startingBalance,
		BaseCurrency:    s.baseCurrency,
	}, nil
}

// Login проверяет пароль и занимает сессионный слот.
func (s *AuthService) Login(username, password string) (sess *models.Session, err error) {
	const op = "service.Login"
	defer func() {
		logAction(s.log, "login", &models.Session{Username: username}, err)
	}()

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, custom_err.ErrUserNotFound) {
			return nil, custom_err.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.VerifyPassword(password) {
		return nil, custom_err.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session := &models.Session{
		UserID:   user.UserID,
		Username: user.Username,
		Token:    token,
	}
	if err := s.sessionStore.Save(session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("пользователь вошел в систему",
		slog.Int("user_id", user.UserID),
		slog.String("username", user.Username))

	return session, nil
}

// Logout освобождает сессионный слот.
func (s *AuthService) Logout() (err error) {
	const op = "service.Logout"

	sess, _ := s.Current()
	defer func() {
		logAction(s.log, "logout", sess, err)
	}()

	if sess == nil {
		return custom_err.ErrNotAuthenticated
	}

	if err := s.sessionStore.Clear(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Current возвращает текущую сессию, валидируя подпись и срок токена.
// Отсутствие сессии — ErrNotAuthenticated.
func (s *AuthService) Current() (*models.Session, error) {
	const op = "service.Current"

	session, err := s.sessionStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session == nil {
		return nil, custom_err.ErrNotAuthenticated
	}

	claims, err := s.validateToken(session.Token)
	if err != nil {
		// битый или истекший токен не должен навсегда занимать слот
		_ = s.sessionStore.Clear()
		return nil, err
	}

	return &models.Session{
		UserID:   claims.UserID,
		Username: claims.Username,
		Token:    session.Token,
	}, nil
}

// ChangePassword меняет пароль текущего пользователя: новая соль, новый хэш.
func (s *AuthService) ChangePassword(oldPassword, newPassword string) (err error) {
	const op = "service.ChangePassword"

	sess, err := s.Current()
	defer func() {
		logAction(s.log, "change-password", sess, err)
	}()
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(sess.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !user.VerifyPassword(oldPassword) {
		return custom_err.ErrInvalidCredentials
	}

	if err := user.ChangePassword(newPassword); err != nil {
		return err
	}

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := models.SessionClaims{
		UserID:   user.UserID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.sessionSecret)
}

func (s *AuthService) validateToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.sessionSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, custom_err.ErrInvalidToken
	}

	if claims.UserID == 0 || claims.Username == "" {
		return nil, custom_err.ErrInvalidToken
	}

	return claims, nil
}
