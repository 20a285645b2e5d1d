package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/ports/auth"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = apperr.New(apperr.KindValidation, "invalid input")
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "email already registered")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")
	ErrWrongPassword      = apperr.New(apperr.KindValidation, "current password is incorrect")
	ErrNotFound           = apperr.New(apperr.KindNotFound, "user not found")
	ErrStaffNotFound      = apperr.New(apperr.KindNotFound, "staff member not found")
	ErrAdminProtected     = apperr.New(apperr.KindForbidden, "admin accounts cannot be deleted")
	ErrTokensUnavailable  = errors.New("token issuer not configured")
)

const (
	minPasswordLen = 6
	// bcrypt ignora/rechaza más de 72 bytes
	maxPasswordLen = 72
)

type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens auth.TokenIssuer
	log    logger.Logger
	now    func() time.Time
}

// NewService: tokens puede ser nil (modo dev con headers de debug); Login falla en ese caso.
func NewService(repo Repository, hasher PasswordHasher, tokens auth.TokenIssuer, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log.With(map[string]any{"module": "users"}),
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
}

// Register crea una cuenta customer. El rol nunca viene del cliente.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	return s.create(ctx, auth.RoleCustomer, in, "", "")
}

type StaffInput struct {
	RegisterInput
	Specialization string
	Bio            string
}

// CreateStaff es sólo para admin (el handler lo valida con policy).
func (s *Service) CreateStaff(ctx context.Context, in StaffInput) (User, error) {
	u, err := s.create(ctx, auth.RoleStaff, in.RegisterInput, in.Specialization, in.Bio)
	if err != nil {
		return User{}, err
	}
	s.log.Info("staff created", map[string]any{"user_id": u.ID})
	return u, nil
}

func (s *Service) create(ctx context.Context, role auth.Role, in RegisterInput, specialization, bio string) (User, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return User{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return User{}, ErrInvalidInput.With("name is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, apperr.Internal(err)
	}

	now := s.now()
	u := User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Name:           name,
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		Specialization: strings.TrimSpace(specialization),
		Bio:            strings.TrimSpace(bio),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login devuelve el usuario y un token de sesión.
// Email desconocido y password incorrecta dan el mismo error.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", err
	}

	ok, err := s.hasher.Compare(u.PasswordHash, password)
	if err != nil {
		return User{}, "", apperr.Internal(err)
	}
	if !ok {
		return User{}, "", ErrInvalidCredentials
	}

	if s.tokens == nil {
		return User{}, "", apperr.Internal(ErrTokensUnavailable)
	}
	token, err := s.tokens.Issue(ctx, auth.Claims{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return User{}, "", apperr.Internal(err)
	}
	return u, token, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// ProfilePatch: nil = no tocar. Email y rol no se editan por acá.
type ProfilePatch struct {
	Name    *string
	Phone   *string
	Address *string
	Bio     *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfilePatch) (User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if err := applyProfile(&u, p); err != nil {
		return User{}, err
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(u.PasswordHash, current)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return ErrWrongPassword
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperr.Internal(err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	return s.repo.Update(ctx, u)
}

type StaffPatch struct {
	ProfilePatch
	Specialization *string
}

func (s *Service) UpdateStaff(ctx context.Context, id string, p StaffPatch) (User, error) {
	u, err := s.GetStaff(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := applyProfile(&u, p.ProfilePatch); err != nil {
		return User{}, err
	}
	if p.Specialization != nil {
		u.Specialization = strings.TrimSpace(*p.Specialization)
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// DeleteStaff borra una cuenta de staff. Admin nunca se borra por esta vía.
func (s *Service) DeleteStaff(ctx context.Context, id string) error {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return ErrStaffNotFound
	}
	if err != nil {
		return err
	}

	switch u.Role {
	case auth.RoleAdmin:
		return ErrAdminProtected
	case auth.RoleStaff:
	default:
		return ErrStaffNotFound
	}

	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	s.log.Info("staff deleted", map[string]any{"user_id": u.ID})
	return nil
}

func (s *Service) GetStaff(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrStaffNotFound
	}
	if err != nil {
		return User{}, err
	}
	if !u.IsStaff() {
		return User{}, ErrStaffNotFound
	}
	return u, nil
}

// ListStaff devuelve todo el staff (sin paginar: es una lista corta para el form de reservas).
func (s *Service) ListStaff(ctx context.Context) ([]User, error) {
	items, _, err := s.repo.List(ctx, ListFilter{Role: auth.RoleStaff})
	return items, err
}

func (s *Service) ListUsers(ctx context.Context, role auth.Role, p pagination.Params) (pagination.Page[User], error) {
	if role != "" && !role.Valid() {
		return pagination.Page[User]{}, ErrInvalidInput.With("unknown role")
	}
	p = p.Normalize()
	items, total, err := s.repo.List(ctx, ListFilter{Role: role, Offset: p.Offset(), Limit: p.Limit})
	if err != nil {
		return pagination.Page[User]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// EnsureAdmin crea la cuenta admin inicial si no existe. Idempotente.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (User, error) {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	u, err := s.create(ctx, auth.RoleAdmin, RegisterInput{Email: email, Password: password, Name: "Administrator"}, "", "")
	if err != nil {
		return User{}, err
	}
	s.log.Info("admin account bootstrapped", map[string]any{"user_id": u.ID, "email": u.Email})
	return u, nil
}

func applyProfile(u *User, p ProfilePatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrInvalidInput.With("name cannot be empty")
		}
		u.Name = name
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		u.Address = strings.TrimSpace(*p.Address)
	}
	if p.Bio != nil {
		u.Bio = strings.TrimSpace(*p.Bio)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidInput.With("email is invalid")
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLen {
		return ErrInvalidInput.With("password must be at least 6 characters")
	}
	if len(p) > maxPasswordLen {
		return ErrInvalidInput.With("password is too long")
	}
	return nil
}
