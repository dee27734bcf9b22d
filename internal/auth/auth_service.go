package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (TokenResponse, error)
	Login(ctx context.Context, email, password string) (TokenResponse, error)
	GetMe(ctx context.Context, userID string) (*AuthResponse, error)
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type service struct {
	tx           database.Transactor
	repo         Repository
	employeeRepo employee.Repository
	outbox       kafka.OutboxRepository
	token        TokenConfig
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(
	tx database.Transactor,
	repo Repository,
	employeeRepo employee.Repository,
	token TokenConfig,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(tx, repo, employeeRepo, nil, token, logger...)
}

func NewServiceWithOutbox(
	tx database.Transactor,
	repo Repository,
	employeeRepo employee.Repository,
	outbox kafka.OutboxRepository,
	token TokenConfig,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if token.TTL <= 0 {
		token.TTL = DefaultTokenTTL
	}
	return &service{
		tx:           tx,
		repo:         repo,
		employeeRepo: employeeRepo,
		outbox:       outbox,
		token:        token,
		now:          time.Now,
		logger:       l,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (TokenResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	email := normalizeEmail(req.Email)

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return TokenResponse{}, autherrors.ErrInvalidRole
	}

	log.Debug("register requested", zap.String("email", email), zap.String("role", string(role)))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		log.Warn("register email already registered", zap.String("email", email))
		return TokenResponse{}, autherrors.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("register email lookup failed", zap.Error(err))
		return TokenResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenResponse{}, err
	}

	now := s.now().UTC()
	empl := &employee.Employee{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Role:      string(role),
		Balances:  employee.DefaultBalances(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	user := &User{
		ID:         uuid.New(),
		EmployeeID: empl.ID,
		Email:      email,
		Password:   string(hashed),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.employeeRepo.WithTx(tx).Create(ctx, empl); err != nil {
			log.Error("register employee persist failed", zap.Error(err))
			return employee.MapRepositoryError(err)
		}
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			log.Error("register user persist failed", zap.Error(err))
			if database.IsUniqueViolation(err, "") {
				return autherrors.ErrEmailAlreadyRegistered
			}
			return err
		}
		return s.enqueueRegistered(ctx, tx, empl)
	})
	if err != nil {
		if errors.Is(err, employeeerrors.ErrEmployeeAlreadyExists) {
			return TokenResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		return TokenResponse{}, err
	}

	user.Employee = empl
	token, err := s.generateToken(user)
	if err != nil {
		return TokenResponse{}, err
	}

	log.Info("register success",
		zap.String("user_id", user.ID.String()),
		zap.String("employee_id", empl.ID.String()),
		zap.String("role", string(role)),
	)
	return TokenResponse{User: toResponse(user), AccessToken: token}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	email = normalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("login user lookup failed", zap.Error(err))
			return TokenResponse{}, err
		}
		log.Warn("login unknown email", zap.String("email", email))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Warn("login wrong password", zap.String("user_id", user.ID.String()))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}
	if user.Employee == nil {
		log.Error("login user without employee", zap.String("user_id", user.ID.String()))
		return TokenResponse{}, autherrors.ErrUserNotFound
	}

	token, err := s.generateToken(user)
	if err != nil {
		return TokenResponse{}, err
	}

	log.Info("login success", zap.String("user_id", user.ID.String()))
	return TokenResponse{User: toResponse(user), AccessToken: token}, nil
}

func (s *service) GetMe(ctx context.Context, userID string) (*AuthResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, autherrors.ErrInvalidToken
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, err
	}

	resp := toResponse(u)
	return &resp, nil
}

func (s *service) enqueueRegistered(ctx context.Context, tx *gorm.DB, empl *employee.Employee) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	payload, err := json.Marshal(events.EmployeeRegisteredEvent{
		EventType:  events.EventEmployeeRegistered,
		RequestID:  rid,
		EmployeeID: empl.ID.String(),
		Role:       empl.Role,
		OccurredAt: empl.CreatedAt,
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "employee",
		AggregateID:   empl.ID.String(),
		EventType:     events.EventEmployeeRegistered,
		Topic:         events.EmployeeLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) generateToken(user *User) (string, error) {
	role := string(domain.RoleEmployee)
	if user.Employee != nil {
		role = user.Employee.Role
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id":     user.ID.String(),
		"employee_id": user.EmployeeID.String(),
		"role":        role,
		"iat":         now.Unix(),
		"exp":         now.Add(s.token.TTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.token.Secret))
	if err != nil {
		s.logger.Error("sign token failed", zap.Error(err))
		return "", autherrors.ErrTokenGenerationFailed
	}
	return token, nil
}

func toResponse(u *User) AuthResponse {
	resp := AuthResponse{
		ID:         u.ID.String(),
		EmployeeID: u.EmployeeID.String(),
		Email:      u.Email,
	}
	if u.Employee != nil {
		resp.Name = u.Employee.Name
		resp.Role = u.Employee.Role
		resp.Balances = make(map[string]int, len(employee.Categories))
		for c, days := range u.Employee.Balances.Map() {
			resp.Balances[string(c)] = days
		}
	}
	return resp
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
