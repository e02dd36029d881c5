package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"dost-atlas/models"
	"dost-atlas/utils/errors"
)

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.NewAPIError("INVALID_CREDENTIALS", "Invalid username or password", http.StatusUnauthorized)
	ErrUserExists         = errors.NewAPIError("CONFLICT", "Username or email already registered", http.StatusConflict)
)

// Register creates an operator account and returns its public id.
func (s *UserService) Register(ctx context.Context, username, email, password string) (string, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}

	user := models.User{
		PublicID:     uuid.New().String(),
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	res, err := s.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return "", ErrUserExists
	}
	if err != nil {
		return "", errors.Wrap(err, "DB_ERROR", "Failed to create user in database", http.StatusInternalServerError)
	}
	user.ID = hexID(res.InsertedID)

	s.cacheUser(ctx, user)
	s.logger.Info().Str("user", user.PublicID).Str("username", user.Username).Msg("operator registered")
	return user.PublicID, nil
}

// Login checks the password and returns a signed token for the operator.
func (s *UserService) Login(ctx context.Context, username, password string) (string, models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"username": strings.TrimSpace(username)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	tokenString, err := IssueToken(s.jwtSecret, user, time.Now())
	if err != nil {
		return "", models.User{}, errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}

	s.cacheUser(ctx, user)
	return tokenString, user, nil
}

// IssueToken signs an HS256 token carrying the operator's public id.
func IssueToken(secret string, user models.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":   user.PublicID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}
