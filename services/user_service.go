package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dost-atlas/models"
	"dost-atlas/utils/errors"
)

const userCacheTTL = 24 * time.Hour

var ErrUserNotFound = errors.NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)

// UserService stores dashboard operators and issues their tokens.
type UserService struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	jwtSecret   string
	logger      zerolog.Logger
}

func NewUserService(db *mongo.Database, redisClient *redis.Client, jwtSecret string, logger zerolog.Logger) *UserService {
	return &UserService{
		collection:  db.Collection("users"),
		redisClient: redisClient,
		jwtSecret:   jwtSecret,
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

// EnsureIndexes makes usernames and emails unique on their own.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "public_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to create user indexes", http.StatusInternalServerError)
	}
	return nil
}

// GetUser retrieves a user by public id from Redis or MongoDB.
func (s *UserService) GetUser(ctx context.Context, publicID string) (models.User, error) {
	var user models.User

	userJSON, err := s.redisClient.Get(ctx, userCacheKey(publicID)).Bytes()
	if err == nil {
		if err := json.Unmarshal(userJSON, &user); err == nil {
			return user, nil
		}
		s.logger.Warn().Str("user", publicID).Msg("user cache entry unreadable")
	}

	err = s.collection.FindOne(ctx, bson.M{"public_id": bson.M{"$eq": publicID}}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	s.cacheUser(ctx, user)
	return user, nil
}

func (s *UserService) cacheUser(ctx context.Context, user models.User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, userCacheKey(user.PublicID), data, userCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user", user.PublicID).Msg("user cache write failed")
	}
}

func userCacheKey(publicID string) string {
	return "user:" + publicID
}
