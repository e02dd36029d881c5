package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dost-atlas/models"
	"dost-atlas/utils/errors"
)

const (
	implementationsCollection = "implementations"
	projectsCollection        = "projects"

	listCacheTTL = 5 * time.Minute
)

var (
	ErrImplementationNotFound = errors.NewAPIError("NOT_FOUND", "Implementation record not found", http.StatusNotFound)
	ErrProjectNotFound        = errors.NewAPIError("NOT_FOUND", "Project record not found", http.StatusNotFound)
)

// ProjectPatch carries the fields of a partial project update. Nil fields are
// left unchanged.
type ProjectPatch struct {
	ProjectTitle *string
	Location     *string
	ProgramType  *string
	Coordinates  *models.Coordinates
}

func (p ProjectPatch) Empty() bool {
	return p.ProjectTitle == nil && p.Location == nil && p.ProgramType == nil && p.Coordinates == nil
}

// listCache is the slice of the Redis client the list cache needs.
type listCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RecordService persists implementation and project points in MongoDB and
// caches the full lists in Redis.
type RecordService struct {
	implementations *mongo.Collection
	projects        *mongo.Collection
	lists           listCache
	logger          zerolog.Logger
	now             func() time.Time
}

func NewRecordService(db *mongo.Database, redisClient *redis.Client, logger zerolog.Logger) *RecordService {
	s := &RecordService{
		implementations: db.Collection(implementationsCollection),
		projects:        db.Collection(projectsCollection),
		logger:          logger.With().Str("component", "records").Logger(),
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	if redisClient != nil {
		s.lists = redisClient
	}
	return s
}

// EnsureIndexes creates the createdAt indexes used by the list queries.
func (s *RecordService) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}
	for _, c := range []*mongo.Collection{s.implementations, s.projects} {
		if _, err := c.Indexes().CreateOne(ctx, model); err != nil {
			return errors.Wrap(err, "DB_ERROR", "Failed to create indexes", http.StatusInternalServerError)
		}
	}
	return nil
}

// ListImplementations returns every implementation, newest first.
func (s *RecordService) ListImplementations(ctx context.Context) ([]models.ImplementationPoint, error) {
	var out []models.ImplementationPoint
	if s.cached(ctx, implementationsCollection, &out) {
		return out, nil
	}
	if err := s.findAll(ctx, s.implementations, &out); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Error fetching implementations", http.StatusInternalServerError)
	}
	s.cache(ctx, implementationsCollection, out)
	return out, nil
}

func (s *RecordService) CreateImplementation(ctx context.Context, place string, coords models.Coordinates, implemented bool) (models.ImplementationPoint, error) {
	now := s.now()
	rec := models.ImplementationPoint{
		Place:       place,
		Coordinates: coords,
		Implemented: implemented,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := s.implementations.InsertOne(ctx, rec)
	if err != nil {
		return models.ImplementationPoint{}, errors.Wrap(err, "DB_ERROR", "Error creating implementation", http.StatusInternalServerError)
	}
	rec.ID = hexID(res.InsertedID)
	s.invalidate(ctx, implementationsCollection)
	return rec, nil
}

// SetImplemented updates the status flag of one implementation.
func (s *RecordService) SetImplemented(ctx context.Context, id string, implemented bool) (models.ImplementationPoint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ImplementationPoint{}, ErrImplementationNotFound
	}
	var rec models.ImplementationPoint
	err = s.implementations.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"implemented": implemented, "updatedAt": s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.ImplementationPoint{}, ErrImplementationNotFound
	}
	if err != nil {
		return models.ImplementationPoint{}, errors.Wrap(err, "DB_ERROR", "Error updating implementation", http.StatusInternalServerError)
	}
	s.invalidate(ctx, implementationsCollection)
	return rec, nil
}

// ListProjects returns every project, newest first.
func (s *RecordService) ListProjects(ctx context.Context) ([]models.ProjectPoint, error) {
	var out []models.ProjectPoint
	if s.cached(ctx, projectsCollection, &out) {
		return out, nil
	}
	if err := s.findAll(ctx, s.projects, &out); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Error fetching projects", http.StatusInternalServerError)
	}
	s.cache(ctx, projectsCollection, out)
	return out, nil
}

func (s *RecordService) GetProject(ctx context.Context, id string) (models.ProjectPoint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProjectPoint{}, ErrProjectNotFound
	}
	var rec models.ProjectPoint
	err = s.projects.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.ProjectPoint{}, ErrProjectNotFound
	}
	if err != nil {
		return models.ProjectPoint{}, errors.Wrap(err, "DB_ERROR", "Error fetching project", http.StatusInternalServerError)
	}
	return rec, nil
}

func (s *RecordService) CreateProject(ctx context.Context, title, location, programType string, coords models.Coordinates) (models.ProjectPoint, error) {
	now := s.now()
	rec := models.ProjectPoint{
		ProjectTitle: title,
		Location:     location,
		Coordinates:  coords,
		ProgramType:  programType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.projects.InsertOne(ctx, rec)
	if err != nil {
		return models.ProjectPoint{}, errors.Wrap(err, "DB_ERROR", "Error creating project", http.StatusInternalServerError)
	}
	rec.ID = hexID(res.InsertedID)
	s.invalidate(ctx, projectsCollection)
	return rec, nil
}

func (s *RecordService) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (models.ProjectPoint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProjectPoint{}, ErrProjectNotFound
	}
	set := bson.M{"updatedAt": s.now()}
	if patch.ProjectTitle != nil {
		set["projectTitle"] = *patch.ProjectTitle
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.ProgramType != nil {
		set["programType"] = *patch.ProgramType
	}
	if patch.Coordinates != nil {
		set["coordinates"] = *patch.Coordinates
	}

	var rec models.ProjectPoint
	err = s.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.ProjectPoint{}, ErrProjectNotFound
	}
	if err != nil {
		return models.ProjectPoint{}, errors.Wrap(err, "DB_ERROR", "Error updating project", http.StatusInternalServerError)
	}
	s.invalidate(ctx, projectsCollection)
	return rec, nil
}

// DeleteProject removes a project and returns the deleted record.
func (s *RecordService) DeleteProject(ctx context.Context, id string) (models.ProjectPoint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProjectPoint{}, ErrProjectNotFound
	}
	var rec models.ProjectPoint
	err = s.projects.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.ProjectPoint{}, ErrProjectNotFound
	}
	if err != nil {
		return models.ProjectPoint{}, errors.Wrap(err, "DB_ERROR", "Error deleting project", http.StatusInternalServerError)
	}
	s.invalidate(ctx, projectsCollection)
	return rec, nil
}

func (s *RecordService) findAll(ctx context.Context, c *mongo.Collection, out any) error {
	cursor, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// Cache failures are logged and otherwise ignored; Mongo stays authoritative.

func (s *RecordService) cached(ctx context.Context, collection string, out any) bool {
	if s.lists == nil {
		return false
	}
	data, err := s.lists.Get(ctx, listCacheKey(collection)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("collection", collection).Msg("list cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("list cache entry unreadable")
		return false
	}
	return true
}

func (s *RecordService) cache(ctx context.Context, collection string, records any) {
	if s.lists == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := s.lists.Set(ctx, listCacheKey(collection), data, listCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("list cache write failed")
	}
}

func (s *RecordService) invalidate(ctx context.Context, collection string) {
	if s.lists == nil {
		return
	}
	if err := s.lists.Del(ctx, listCacheKey(collection)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("list cache invalidation failed")
	}
}

func listCacheKey(collection string) string {
	return "records:" + collection
}

func hexID(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}
