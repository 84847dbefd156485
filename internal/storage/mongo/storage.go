package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
)

// Storage is a MongoDB-backed implementation of the storage interface
type Storage struct {
	client *mongo.Client
	db     *mongo.Database
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New connects to MongoDB and ensures the indexes exist
func New(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Storage{client: client, db: db}, nil
}

// Close disconnects the client
func (s *Storage) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Storage) users() *mongo.Collection {
	return s.db.Collection(usersCollection)
}

func (s *Storage) sessions() *mongo.Collection {
	return s.db.Collection(sessionsCollection)
}

func (s *Storage) matches() *mongo.Collection {
	return s.db.Collection(matchesCollection)
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	seq, err := nextSeq(ctx, s.db, usersCollection)
	if err != nil {
		return fmt.Errorf("failed to allocate user sequence: %w", err)
	}

	doc := toUserDoc(user)
	doc.Seq = seq
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrUserExists
		}
		return err
	}
	return nil
}

func (s *Storage) findUser(ctx context.Context, filter bson.M) (*userDoc, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	doc, err := s.findUser(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	doc, err := s.findUser(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	doc, err := s.findUser(ctx, bson.M{"username": username})
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	cursor, err := s.users().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.model())
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UserMutation) (*model.User, error) {
	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		current, err := s.findUser(ctx, bson.M{"_id": string(id)})
		if err != nil {
			return nil, err
		}
		updated := current.model()
		if err := fn(updated); err != nil {
			return nil, err
		}

		res, err := s.users().UpdateOne(ctx,
			bson.M{"_id": current.ID, "version": current.Version},
			bson.M{
				"$set": bson.M{
					"password_hash": updated.PasswordHash,
					"wins":          updated.Stats.Wins,
					"losses":        updated.Stats.Losses,
					"earnings":      updated.Stats.Earnings,
				},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			result := current.model()
			result.PasswordHash = updated.PasswordHash
			result.Stats = updated.Stats
			return result, nil
		}
	}
	return nil, model.ErrConflict
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	doc := toSessionDoc(session)
	_, err := s.sessions().ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var doc sessionDoc
	if err := s.sessions().FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return doc.model(), nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	_, err := s.sessions().DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

// Match operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	seq, err := nextSeq(ctx, s.db, matchesCollection)
	if err != nil {
		return fmt.Errorf("failed to allocate match sequence: %w", err)
	}

	doc := toMatchDoc(match)
	doc.Seq = seq
	if _, err := s.matches().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Storage) findMatch(ctx context.Context, filter bson.M, notFound error) (*matchDoc, error) {
	var doc matchDoc
	if err := s.matches().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	doc, err := s.findMatch(ctx, bson.M{"_id": string(id)}, model.ErrMatchNotFound)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *Storage) GetMatchByInviteCode(ctx context.Context, code model.InviteCode) (*model.Match, error) {
	doc, err := s.findMatch(ctx, bson.M{"invite_code": string(code)}, model.ErrInviteCodeNotFound)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	n, err := s.matches().CountDocuments(ctx, bson.M{"invite_code": string(code)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	cursor, err := s.matches().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []matchDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	matches := make([]*model.Match, 0, len(docs))
	for _, doc := range docs {
		matches = append(matches, doc.model())
	}
	return matches, nil
}

// UpdateMatch replaces the document only if its version is unchanged, retrying otherwise
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchMutation) (*model.Match, error) {
	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		current, err := s.findMatch(ctx, bson.M{"_id": string(id)}, model.ErrMatchNotFound)
		if err != nil {
			return nil, err
		}
		updated := current.model()
		if err := fn(updated); err != nil {
			return nil, err
		}
		updated.ID, updated.InviteCode = model.MatchID(current.ID), model.InviteCode(current.InviteCode)
		updated.Version = current.Version + 1

		doc := toMatchDoc(updated)
		doc.Seq = current.Seq
		res, err := s.matches().ReplaceOne(ctx, bson.M{"_id": current.ID, "version": current.Version}, doc)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return updated, nil
		}
	}
	return nil, model.ErrConflict
}
