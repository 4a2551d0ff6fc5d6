package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var validate = validator.New()

// TokenIssuer выпускает токен доступа для пользователя
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type UserService struct {
	userRepo   UserRepository
	issuer     TokenIssuer
	bcryptCost int
	logger     *zap.Logger
}

func NewUserService(userRepo UserRepository, issuer TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
}

// WithBcryptCost меняет стоимость хеширования (в тестах используется минимальная)
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Signup регистрирует пользователя и возвращает токен
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, "", InvalidArgument("name is required")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, "", InvalidArgument("invalid email")
	}
	if len(password) < minPasswordLength {
		return nil, "", InvalidArgument("password must be at least 6 characters")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", storageErr("check existing user", err)
	}
	if existing != nil {
		return nil, "", Conflict("user exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", Internal("hash password", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", Conflict("user exists")
		}
		return nil, "", storageErr("create user", err)
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", Internal("issue token", err)
	}

	s.logger.Info("New user registered",
		zap.Stringer("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return user, token, nil
}

// Login проверяет пароль и возвращает токен
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", storageErr("get user", err)
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", Unauthenticated("invalid credentials")
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", Internal("issue token", err)
	}

	return user, token, nil
}

// Me получает пользователя по ID
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, Unauthenticated("user no longer exists")
	}
	return user, nil
}

// LinkTelegram привязывает Telegram чат; nil отвязывает
func (s *UserService) LinkTelegram(ctx context.Context, userID uuid.UUID, chatID *int64) (*model.User, error) {
	if err := s.userRepo.SetTelegramChatID(ctx, userID, chatID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, storageErr("link telegram", err)
	}

	s.logger.Info("Telegram chat linked",
		zap.Stringer("user_id", userID),
		zap.Bool("linked", chatID != nil),
	)

	return s.Me(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
