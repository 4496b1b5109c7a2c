package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/auth"
	"github.com/abed-obaah/royal-backend/pkg/config"
	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwtCfg := config.JWTConfig{Secret: "test-secret", Issuer: "royal", ExpirationMinutes: 30}
	passwordCfg := config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	svc, err := NewService(NewRepository(conn), jwtCfg, passwordCfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     " Fan@Example.COM ",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Mensah",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "fan@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != enums.UserRoleUser {
		t.Fatalf("expected default role user, got %s", user.Role)
	}

	result, err := svc.Login(ctx, LoginInput{Email: "fan@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if result.User.LastLoginAt == nil {
		t.Fatal("expected login recorded")
	}

	claims, err := auth.ParseAccessToken(config.JWTConfig{Secret: "test-secret", Issuer: "royal", ExpirationMinutes: 30}, result.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleUser {
		t.Fatal("token claims do not match the user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	input := RegisterInput{Email: "fan@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Mensah"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, input); pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "correct-horse", FirstName: "A", LastName: "B"}},
		{"short password", RegisterInput{Email: "fan@example.com", Password: "short", FirstName: "A", LastName: "B"}},
		{"missing name", RegisterInput{Email: "fan@example.com", Password: "correct-horse"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.input); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "fan@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Mensah"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "fan@example.com", Password: "wrong"}); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct-horse"}); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}

	if err := conn.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "fan@example.com", Password: "correct-horse"}); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for deactivated user, got %v", err)
	}
}
