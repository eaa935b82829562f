package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	collProfiles = "profiles"

	idxUsername   = "uniq_username"
	idxEmail      = "uniq_email"
	idxExternalID = "uniq_external_id"
)

var (
	ErrNotFound        = errors.New("profile not found")
	ErrVersionConflict = errors.New("profile version conflict")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already in use")
	ErrExternalIDTaken = errors.New("external auth id already linked")
	ErrDuplicate       = errors.New("duplicate key")
)

type Store struct {
	Client   *mongo.Client
	DB       *mongo.Database
	profiles *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{Client: cli, DB: db, profiles: db.Collection(collProfiles)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// emailCollation compares emails case-insensitively while the stored value keeps
// the case it was submitted with.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// EnsureIndexes creates the uniqueness constraints. They are sparse, so
// documents without the field never collide with each other.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(idxUsername),
		},
		{
			Keys:    bson.D{{Key: "personalInfo.email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(idxEmail).SetCollation(emailCollation),
		},
		{
			Keys:    bson.D{{Key: "externalAuthId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(idxExternalID),
		},
	})
	return err
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}

// dupErr maps an E11000 error to the sentinel of the index that fired.
func dupErr(err error) error {
	if err == nil || !IsDup(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, idxUsername):
		return ErrUsernameTaken
	case strings.Contains(msg, idxEmail):
		return ErrEmailTaken
	case strings.Contains(msg, idxExternalID):
		return ErrExternalIDTaken
	default:
		return ErrDuplicate
	}
}

func startSpan(ctx context.Context, op string, opts ...ddtrace.StartSpanOption) (ddtrace.Span, context.Context) {
	opts = append(opts, tracer.ServiceName("profile-mongo"), tracer.SpanType("mongodb"))
	return tracer.StartSpanFromContext(ctx, "mongo.profile."+op, opts...)
}

func finish(sp ddtrace.Span, err error) {
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		sp.Finish(tracer.WithError(err))
		return
	}
	sp.Finish()
}
