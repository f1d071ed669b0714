package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainauth "livonto/internal/domain/auth"
	domainuser "livonto/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	doc := newUserDocument(user)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainuser.ErrEmailAlreadyUsed
		}
		return err
	}
	return nil
}

type userDocument struct {
	ID           string   `bson:"_id"`
	Email        string   `bson:"email"`
	Name         string   `bson:"name"`
	Phone        string   `bson:"phone,omitempty"`
	PasswordHash string   `bson:"password_hash"`
	Roles        []string `bson:"roles"`
	CreatedAt    int64    `bson:"created_at"`
	UpdatedAt    int64    `bson:"updated_at"`
}

func newUserDocument(u *domainuser.User) userDocument {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	return userDocument{
		ID:           string(u.ID),
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		CreatedAt:    u.CreatedAt.UnixMilli(),
		UpdatedAt:    u.UpdatedAt.UnixMilli(),
	}
}

func (d userDocument) toAggregate() *domainuser.User {
	roles := make([]domainuser.Role, 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	return &domainuser.User{
		ID:           domainuser.ID(d.ID),
		Email:        d.Email,
		Name:         d.Name,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		Roles:        roles,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
}

type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{col: db.Collection("sessions")}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	doc := newSessionDocument(session)
	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": doc.Token}, bson.M{"$set": doc}, opts)
	return err
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var doc sessionDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(token)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	session := doc.toAggregate()
	// The TTL monitor trails expiry by up to a minute, so expiry is
	// enforced at read time as well.
	if session.ExpiresAt.Before(time.Now().UTC()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": string(token)})
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"user_id": string(userID)})
	return err
}

type sessionDocument struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Roles     []string  `bson:"roles"`
	CreatedAt int64     `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func newSessionDocument(session *domainauth.Session) sessionDocument {
	roles := make([]string, 0, len(session.Roles))
	for _, role := range session.Roles {
		roles = append(roles, string(role))
	}
	return sessionDocument{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		Roles:     roles,
		CreatedAt: session.CreatedAt.UnixMilli(),
		ExpiresAt: session.ExpiresAt.UTC(),
	}
}

func (d sessionDocument) toAggregate() *domainauth.Session {
	roles := make([]domainuser.Role, 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	return &domainauth.Session{
		Token:     domainauth.Token(d.Token),
		UserID:    domainuser.ID(d.UserID),
		Roles:     roles,
		CreatedAt: timestampToTime(d.CreatedAt),
		ExpiresAt: d.ExpiresAt.UTC(),
	}
}
