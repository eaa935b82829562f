package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/profile-service/internal/domain"
)

// publicProjection drops credential material on every read except FindCredentials.
var publicProjection = bson.M{"password": 0}

func (s *Store) findOne(ctx context.Context, op string, filter bson.M, projection any) (*domain.Profile, error) {
	sp, ctx := startSpan(ctx, op)
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var p domain.Profile
	err := s.profiles.FindOne(ctx, filter, opts).Decode(&p)
	finish(sp, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	return s.findOne(ctx, "find_by_id", bson.M{"_id": id}, publicProjection)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return s.findOne(ctx, "find_by_username", bson.M{"username": username}, publicProjection)
}

func (s *Store) FindByExternalID(ctx context.Context, uid string) (*domain.Profile, error) {
	return s.findOne(ctx, "find_by_external_id", bson.M{"externalAuthId": uid}, publicProjection)
}

// FindCredentials is the only read that returns the password hash.
func (s *Store) FindCredentials(ctx context.Context, username string) (*domain.Profile, error) {
	return s.findOne(ctx, "find_credentials", bson.M{"username": username}, nil)
}

// EmailInUse reports whether a profile other than except holds email, ignoring case.
func (s *Store) EmailInUse(ctx context.Context, email string, except primitive.ObjectID) (bool, error) {
	sp, ctx := startSpan(ctx, "email_in_use")
	n, err := s.profiles.CountDocuments(ctx,
		bson.M{"personalInfo.email": email, "_id": bson.M{"$ne": except}},
		options.Count().SetLimit(1).SetCollation(emailCollation))
	finish(sp, err)
	return n > 0, err
}

func (s *Store) Create(ctx context.Context, p *domain.Profile) error {
	sp, ctx := startSpan(ctx, "insert", tracer.Tag("provider", string(p.AuthProvider)))
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.profiles.InsertOne(ctx, p)
	finish(sp, err)
	return dupErr(err)
}

// ReplaceSection overwrites one embedded field, provided the stored version
// still equals version. The returned profile carries the bumped version.
func (s *Store) ReplaceSection(ctx context.Context, id primitive.ObjectID, version int64, field string, value any) (*domain.Profile, error) {
	return s.casUpdate(ctx, "replace_section", id, version, bson.M{field: value}, tracer.Tag("section", field))
}

// PatchSocials sets only the platforms present in patch.
func (s *Store) PatchSocials(ctx context.Context, id primitive.ObjectID, version int64, patch domain.SocialsPatch) (*domain.Profile, error) {
	set := bson.M{}
	for k, v := range patch.Fields() {
		set["socials."+k] = v
	}
	return s.casUpdate(ctx, "patch_socials", id, version, set)
}

func (s *Store) casUpdate(ctx context.Context, op string, id primitive.ObjectID, version int64, set bson.M, opts ...ddtrace.StartSpanOption) (*domain.Profile, error) {
	sp, ctx := startSpan(ctx, op, opts...)
	set["updatedAt"] = time.Now().UTC()
	res := s.profiles.FindOneAndUpdate(ctx,
		versionFilter(id, version),
		bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(publicProjection),
	)
	var p domain.Profile
	err := res.Decode(&p)
	finish(sp, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missingOrStale(ctx, id)
	}
	if err != nil {
		return nil, dupErr(err)
	}
	return &p, nil
}

// versionFilter also matches documents written before versioning existed.
func versionFilter(id primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": id, "version": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"_id": id, "version": version}
}

func (s *Store) missingOrStale(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.profiles.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (s *Store) List(ctx context.Context) ([]domain.Profile, error) {
	sp, ctx := startSpan(ctx, "list")
	cur, err := s.profiles.Find(ctx, bson.M{},
		options.Find().SetProjection(publicProjection).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		finish(sp, err)
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Profile{}
	err = cur.All(ctx, &out)
	finish(sp, err)
	return out, err
}
