package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/domain/event"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/user"
	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/tracing"
	"github.com/checkman123/OpenTelemetry/internal/validation"
)

const opAddUser = "AddUser"

type Service struct {
	repo   Repo
	pub    EventPublisher
	tracer trace.Tracer
}

func NewService(repo Repo, pub EventPublisher, tp trace.TracerProvider) *Service {
	return &Service{repo: repo, pub: pub, tracer: tp.Tracer(tracing.InstrumentationName)}
}

func (s *Service) AddUser(ctx context.Context, name, email string) (u domain.User, err error) {
	ctx, span := s.tracer.Start(ctx, opAddUser, trace.WithAttributes(tracing.OperationName.String(opAddUser)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	fields := logrus.Fields{"email": MaskEmail(email)}
	if err := validation.IsValidUser(name, email); err != nil {
		logging.LogWarnCtx(ctx, "rejected user", err, fields)
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	u, err = s.repo.Add(ctx, strings.TrimSpace(name), strings.TrimSpace(email))
	if err != nil {
		return domain.User{}, err
	}
	fields["user_id"] = u.ID.String()

	e, err := event.New(event.TypeUserCreated, u.ID, u.CreatedAt,
		event.Attr("name", u.Name),
		event.Attr("email", u.Email),
	)
	if err != nil {
		return domain.User{}, err
	}
	res, err := s.pub.Publish(ctx, e)
	if err != nil {
		logging.LogErrorCtx(ctx, "user stored but UserCreated was not published", err, fields)
		return domain.User{}, fmt.Errorf("publish %s: %w", event.TypeUserCreated, err)
	}

	fields["partition"] = res.Partition
	fields["offset"] = res.Offset
	logging.LogInfoCtx(ctx, "user created", fields)
	return u, nil
}

func (s *Service) User(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}
