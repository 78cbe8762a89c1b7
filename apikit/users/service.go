package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/logger"
	"codeberg.org/algorave/apikit/internal/queue"
)

// bcrypt only hashes this many bytes of a password
const maxPasswordBytes = 72

// compared against when the email is unknown so both login failures cost one bcrypt run
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("apikit-dummy-password"), bcrypt.MinCost)

// creates the service; a nil publisher disables events
func NewService(store Store, tokens TokenIssuer, publisher queue.Publisher) *Service {
	return &Service{
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// sets the bcrypt cost used for new passwords
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// creates an account and signs the user in
func (s *Service) Register(ctx context.Context, reg Registration) (*Session, error) {
	if len(reg.Password) > maxPasswordBytes {
		fields := apperrors.FieldErrors{}.Add("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
		return nil, apperrors.Validation(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.Create(ctx, normalizeEmail(reg.Email), reg.Name, string(hash))
	if errors.Is(err, ErrEmailTaken) {
		return nil, apperrors.New(KindUserExists, "")
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.TopicUserRegistered, RegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		RegisteredAt: user.CreatedAt,
	})

	return s.session(user)
}

// verifies credentials and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, hash, err := s.store.FindCredentials(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password)) //nolint:errcheck,gosec // equalizes timing
		return nil, apperrors.New(KindInvalidCredentials, "")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, apperrors.New(KindInvalidCredentials, "")
	}

	return s.session(user)
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if !apperrors.IsValidUUID(id) {
		return nil, apperrors.NotFound("user")
	}

	user, err := s.store.FindByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}

	return user, err
}

// returns one page of users and the total count
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	return s.store.List(ctx, limit, offset)
}

// updates the profile of id; only the owner may do so
func (s *Service) UpdateProfile(ctx context.Context, actorID, id string, update ProfileUpdate) (*User, error) {
	if err := authorize(actorID, id); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateProfile(ctx, id, update.Name, update.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}

	return user, err
}

// deletes the account id; only the owner may do so
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := authorize(actorID, id); err != nil {
		return err
	}

	err := s.store.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("user")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, queue.TopicUserDeleted, DeletedEvent{UserID: id, DeletedAt: s.now().UTC()})
	return nil
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Session{
		User:      user,
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.Expiry()).UTC(),
	}, nil
}

// events are best-effort; a broker outage never fails the request
func (s *Service) publish(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}

	if err := queue.PublishJSON(ctx, s.publisher, topic, event); err != nil {
		logger.FromContext(ctx).Error("failed to publish event", "topic", topic, "error", err)
	}
}

func authorize(actorID, id string) error {
	if !apperrors.IsValidUUID(id) {
		return apperrors.NotFound("user")
	}

	if actorID != id {
		return apperrors.Forbidden("you can only modify your own account")
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
