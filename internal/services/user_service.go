package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FabricioLanche/campus-room/internal/auth"
	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

var (
	// ErrUserNotFound signals an id or handle that matches no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials signals a failed password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken signals a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

const usersCollection = "users"

// demoAccount describes one of the fixed accounts the demo data
// references by handle.
type demoAccount struct {
	name   string
	email  string
	handle string
	role   models.Role
}

var demoAccounts = []demoAccount{
	{name: "Carlos Mendoza", email: "carlos@campusroom.com", handle: "landlord-1", role: models.RoleLandlord},
	{name: "Josue Hernández", email: "josue@gmail.com", handle: "student-josue", role: models.RoleStudent},
	{name: "Ana García", email: "ana@gmail.com", handle: "student-ana", role: models.RoleStudent},
	{name: "Luis Pérez", email: "luis@gmail.com", handle: "student-luis", role: models.RoleStudent},
}

// IUserService manages accounts. Unknown emails logging in are
// registered on the fly as generic students, so login never fails on
// an unknown address.
type IUserService interface {
	EnsureDemoAccounts(ctx context.Context) error
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	BecomeLandlord(ctx context.Context, userID utils.SixID) (*models.User, error)
	FindUserByID(ctx context.Context, id utils.SixID) (*models.User, error)
	FindUserByHandle(ctx context.Context, handle string) (*models.User, error)
}

type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: db, cfg: cfg}
}

// EnsureDemoAccounts creates the fixed demo accounts that the seeded
// listings and the auto-reply landlord reference. Accounts that already
// exist are left as they are.
func (s *userService) EnsureDemoAccounts(ctx context.Context) error {
	collection := s.db.Collection(usersCollection)

	hash, err := auth.HashPassword(s.cfg.DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	now := time.Now().UTC()
	for _, account := range demoAccounts {
		count, err := collection.CountDocuments(ctx, bson.M{"email": account.email})
		if err != nil {
			return fmt.Errorf("database error checking demo account %s: %w", account.email, err)
		}
		if count > 0 {
			continue
		}

		user := &models.User{
			Base:         models.NewBase(),
			Name:         account.name,
			Email:        account.email,
			PasswordHash: hash,
			Role:         account.role,
			Handle:       account.handle,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := collection.InsertOne(ctx, user); err != nil {
			return fmt.Errorf("failed to create demo account %s: %w", account.email, err)
		}
	}
	return nil
}

// Register creates a new student account. Manual registration always
// yields a student; landlord status is gained through BecomeLandlord.
func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.findByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Base:         models.NewBase(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.Handle = "student-" + user.ID.String()

	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user %s: %w", email, err)
	}
	return user, nil
}

// Login authenticates by email and password. An email nobody has
// registered becomes a fresh generic student account with the given
// password, mirroring the walk-up demo flow.
func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return s.Register(ctx, "Estudiante Nuevo", email, password)
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// BecomeLandlord upgrades an account's role. The name and handle stay
// as they are so existing chats keep resolving.
func (s *userService) BecomeLandlord(ctx context.Context, userID utils.SixID) (*models.User, error) {
	update := bson.M{"$set": bson.M{"role": models.RoleLandlord, "updated_at": time.Now().UTC()}}
	result, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": userID, "deleted": false}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade user %s: %w", userID.String(), err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrUserNotFound
	}
	return s.FindUserByID(ctx, userID)
}

// FindUserByID retrieves an account by id, excluding soft-deleted ones.
func (s *userService) FindUserByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id, "deleted": false})
}

// FindUserByHandle retrieves an account by its chat handle.
func (s *userService) FindUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"handle": handle, "deleted": false})
}

func (s *userService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email, "deleted": false})
}

func (s *userService) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}
