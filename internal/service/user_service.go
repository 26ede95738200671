package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/apperror"
	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

// UserService coordina registro y autenticación de usuarios.
type UserService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	limiter RateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, limiter RateLimiter) *UserService {
	if limiter == nil {
		limiter = NewMemoryRateLimiter(10*time.Minute, 10)
	}
	return &UserService{
		logger:  logger,
		users:   users,
		limiter: limiter,
	}
}

type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Signup crea la cuenta y devuelve el usuario persistido. Un email duplicado
// falla siempre; la unicidad la garantiza el índice del storage, no una
// lectura previa, así que dos signups concurrentes nunca tienen éxito ambos.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	email := strings.TrimSpace(input.Email)
	displayName := strings.TrimSpace(input.DisplayName)

	// bcrypt solo procesa los primeros 72 bytes; en vez de truncar en
	// silencio o dejar escapar el error crudo, se rechaza como falla de
	// validación con detalle de campo.
	digest, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return domain.User{}, apperror.Validation([]apperror.FieldError{
				{Field: "password", Message: "Password must be at most 72 bytes"},
			})
		}
		return domain.User{}, err
	}

	user := domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordDigest: string(digest),
		DisplayName:    displayName,
		EmailVerified:  false,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, apperror.EmailAlreadyExists()
		}
		return domain.User{}, err
	}

	return user, nil
}

// Authenticate valida email y contraseña. Email desconocido y contraseña
// incorrecta devuelven la misma falla para no revelar qué cuentas existen.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, apperror.InvalidCredentials()
	}

	if s.limiter != nil && !s.limiter.Allow(email) {
		return domain.User{}, apperror.TooManyRequests()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperror.InvalidCredentials()
		}
		return domain.User{}, err
	}
	if user.PasswordDigest == "" {
		return domain.User{}, apperror.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)); err != nil {
		return domain.User{}, apperror.InvalidCredentials()
	}
	return user, nil
}

// GetProfile busca el perfil del sujeto autenticado.
func (s *UserService) GetProfile(ctx context.Context, id string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperror.UserNotFound()
		}
		return domain.User{}, err
	}
	return user, nil
}
