package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/user"
)

var (
	ErrUserNotFound   = errors.New("user not registered")
	ErrCodeInvalid    = errors.New("verification code is invalid or expired")
	ErrDispatchFailed = errors.New("failed to dispatch verification code")
	// ErrCodeIssueFailed — пользователь создан, но код не выпущен.
	// Регистрацию это не откатывает: код можно запросить заново через login.
	ErrCodeIssueFailed = errors.New("failed to issue verification code")
)

type Service interface {
	// Register создаёт пользователя и шлёт ему код подтверждения.
	Register(ctx context.Context, name, email, password string) (*user.User, error)
	// IssueCode выпускает и отправляет новый код для существующего пользователя.
	IssueCode(ctx context.Context, email string) error
	// VerifyCode гасит код и возвращает подтверждённую личность.
	VerifyCode(ctx context.Context, email, code string) (*user.User, error)
	// Login объединяет IssueCode и VerifyCode: без кода — выпуск,
	// с кодом — проверка.
	Login(ctx context.Context, email, code string) (*user.User, error)
}

type service struct {
	repo     Repository
	users    user.Service
	notifier Notifier
	codeTTL  time.Duration
}

func NewService(repo Repository, users user.Service, notifier Notifier, codeTTL time.Duration) Service {
	return &service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		codeTTL:  codeTTL,
	}
}

func (s *service) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	u := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: password,
		Role:         user.RoleUser,
	}

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return nil, user.ErrEmailExists
		}
		return nil, fmt.Errorf("service: failed to register user: %w", err)
	}

	if err := s.issueCodeFor(ctx, created); err != nil {
		// Пользователь уже создан; сбой выпуска или доставки кода не
		// откатывает регистрацию, иначе повтор упрётся в занятый email.
		if errors.Is(err, ErrDispatchFailed) {
			return created, err
		}
		log.Error().Err(err).Int64("user_id", created.ID).Msg("service: user registered but code issue failed")
		return created, ErrCodeIssueFailed
	}

	return created, nil
}

func (s *service) IssueCode(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("service: failed to look up user for code issue: %w", err)
	}

	return s.issueCodeFor(ctx, u)
}

func (s *service) issueCodeFor(ctx context.Context, u *user.User) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("service: failed to generate verification code: %w", err)
	}

	if _, err := s.repo.InsertCode(ctx, u.ID, code); err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("service: failed to persist verification code")
		return fmt.Errorf("service: failed to persist verification code: %w", err)
	}

	text := fmt.Sprintf("Ваш код подтверждения: %s", code)
	html := fmt.Sprintf("<p>Ваш код подтверждения: %s</p>", code)
	if err := s.notifier.Send(ctx, u.Email, "Код подтверждения", text, html); err != nil {
		// Код уже выпущен и действителен: пользователь мог получить его
		// другим каналом, поэтому выпуск не откатываем.
		log.Warn().Err(err).Int64("user_id", u.ID).Msg("service: code issued but dispatch failed")
		return ErrDispatchFailed
	}

	log.Info().Int64("user_id", u.ID).Msg("service: verification code issued")
	return nil
}

func (s *service) VerifyCode(ctx context.Context, email, code string) (*user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Не раскрываем наружу, существует ли адрес: HTTP-слой
			// отвечает на ErrUserNotFound и ErrCodeInvalid одинаково.
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("service: failed to look up user for verification: %w", err)
	}

	err = s.repo.ConsumeCode(ctx, u.ID, code, s.codeTTL)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			log.Warn().Int64("user_id", u.ID).Msg("service: verification failed")
			return nil, ErrCodeInvalid
		}
		return nil, fmt.Errorf("service: failed to consume verification code: %w", err)
	}

	log.Info().Int64("user_id", u.ID).Msg("service: user verified")
	return u, nil
}

func (s *service) Login(ctx context.Context, email, code string) (*user.User, error) {
	if code == "" {
		if err := s.IssueCode(ctx, email); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return s.VerifyCode(ctx, email, code)
}

// generateCode возвращает шестизначный код из криптографического
// источника случайности.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
