// Package profile implements the section updaters: validate a payload,
// load the aggregate, replace exactly one section and persist it.
package profile

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/metrics"
	"github.com/tazhibayda/profile-service/internal/queue"
	"github.com/tazhibayda/profile-service/internal/repo"
	"github.com/tazhibayda/profile-service/internal/validate"
)

const (
	msgNotFound      = "User not found."
	msgBadHandle     = "Invalid profile id."
	msgEmailTaken    = "Email is already in use by another account."
	msgStaleWrite    = "Profile was modified by another request, reload and retry."
	msgUsernameTaken = "Username already exists"
)

type Repository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	EmailInUse(ctx context.Context, email string, except primitive.ObjectID) (bool, error)
	ReplaceSection(ctx context.Context, id primitive.ObjectID, version int64, field string, value any) (*domain.Profile, error)
	PatchSocials(ctx context.Context, id primitive.ObjectID, version int64, patch domain.SocialsPatch) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
}

type Service struct {
	repo   Repository
	v      *validate.Validator
	events *queue.Emitter
	log    *zap.Logger
}

func NewService(r Repository, v *validate.Validator, events *queue.Emitter, log *zap.Logger) *Service {
	if v == nil {
		v = validate.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: r, v: v, events: events, log: log}
}

// Update validates payload for section and replaces that section of the
// profile addressed by rawID. Nothing is read or written when validation fails.
func (s *Service) Update(ctx context.Context, section Section, rawID string, payload any) (*domain.Profile, error) {
	spec, ok := sections[section]
	if !ok {
		return nil, apperr.Internal(errors.New("unknown section " + string(section)))
	}
	span, ctx := tracer.StartSpanFromContext(ctx, "profile.update", tracer.Tag("section", string(section)))
	p, err := s.update(ctx, section, spec, rawID, payload)
	span.Finish(tracer.WithError(err))

	metrics.SectionUpdates.WithLabelValues(string(section), outcome(err)).Inc()
	if err != nil {
		if apperr.Status(err) >= 500 {
			applog.WithDD(ctx, s.log).Error("section update failed",
				zap.String("section", string(section)), zap.String("profile_id", rawID), zap.Error(err))
		}
		return nil, err
	}
	applog.WithDD(ctx, s.log).Info("section updated",
		zap.String("section", string(section)), zap.String("profile_id", rawID), zap.Int64("version", p.Version))
	return p, nil
}

func (s *Service) update(ctx context.Context, section Section, spec sectionSpec, rawID string, payload any) (*domain.Profile, error) {
	value, problems := spec.validate(s.v, payload)
	if len(problems) > 0 {
		return nil, apperr.Validation(problems...)
	}

	id, err := codec.ParseHandle(rawID)
	if err != nil {
		return nil, apperr.Validation(msgBadHandle)
	}
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cur == nil {
		return nil, apperr.NotFound(msgNotFound)
	}

	var updated *domain.Profile
	switch v := value.(type) {
	case domain.SocialsPatch:
		updated, err = s.repo.PatchSocials(ctx, id, cur.Version, v)
	case domain.PersonalInfo:
		inUse, lookupErr := s.repo.EmailInUse(ctx, v.Email, id)
		if lookupErr != nil {
			return nil, apperr.Internal(lookupErr)
		}
		if inUse {
			return nil, apperr.Conflict(msgEmailTaken)
		}
		updated, err = s.repo.ReplaceSection(ctx, id, cur.Version, string(section), &v)
	default:
		updated, err = s.repo.ReplaceSection(ctx, id, cur.Version, string(section), value)
	}
	if err != nil {
		return nil, storeError(err)
	}

	s.events.Emit(ctx, queue.KeySectionUpdated, queue.SectionUpdated{
		ProfileID: codec.RenderHandle(updated.ID),
		Section:   string(section),
		Version:   updated.Version,
	})
	return updated, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*domain.Profile, error) {
	id, err := codec.ParseHandle(rawID)
	if err != nil {
		return nil, apperr.Validation(msgBadHandle)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Profile, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(msgNotFound)
	case errors.Is(err, repo.ErrVersionConflict):
		return apperr.Conflict(msgStaleWrite)
	case errors.Is(err, repo.ErrEmailTaken):
		return apperr.Conflict(msgEmailTaken)
	case errors.Is(err, repo.ErrUsernameTaken):
		return apperr.Conflict(msgUsernameTaken)
	default:
		return apperr.Internal(err)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.From(err).Kind {
	case apperr.ErrValidation:
		return "invalid"
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrConflict:
		return "conflict"
	default:
		return "error"
	}
}
