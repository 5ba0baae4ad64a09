package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/veronicavalera/gritgirls/internal/listing/domain"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
)

// BikeAPI is the part of the listings API the form needs.
type BikeAPI interface {
	GetBike(ctx context.Context, id int) (*domain.Bike, error)
	CreateBike(ctx context.Context, token string, payload map[string]any) (*domain.Bike, error)
	UpdateBike(ctx context.Context, token string, id int, payload map[string]any) (*domain.Bike, error)
}

// PhotoSession is the photo list attached to the form.
type PhotoSession interface {
	Seed(urls []string)
	Flush(ctx context.Context, token string) ([]string, error)
}

// FormController drives one create or edit session of a listing form.
type FormController struct {
	bikes  BikeAPI
	photos PhotoSession
	log    *logger.Logger
	tracer trace.Tracer

	mode   domain.Mode
	bikeID int
}

// NewFormController starts in create mode. Load switches it to edit mode.
func NewFormController(bikes BikeAPI, photos PhotoSession, log *logger.Logger) *FormController {
	return &FormController{
		bikes:  bikes,
		photos: photos,
		log:    log.Named("listing"),
		tracer: otel.Tracer("github.com/veronicavalera/gritgirls/internal/listing"),
		mode:   domain.ModeCreate,
	}
}

func (c *FormController) Mode() domain.Mode { return c.mode }

func (c *FormController) BikeID() int { return c.bikeID }

// Load fetches bike id, seeds the photo session with its photos and
// returns the form prefilled from it.
func (c *FormController) Load(ctx context.Context, id int) (domain.Form, error) {
	bike, err := c.bikes.GetBike(ctx, id)
	if err != nil {
		c.log.Warn("failed to load listing", zap.Int("bike_id", id), zap.Error(err))
		return domain.Form{}, err
	}
	c.photos.Seed(bike.Photos)
	c.mode = domain.ModeEdit
	c.bikeID = bike.ID
	c.log.Debug("listing loaded for edit", zap.Int("bike_id", bike.ID), zap.Int("photos", len(bike.Photos)))
	return domain.FormFromBike(bike), nil
}

// Submit validates form, uploads pending photos and then creates or updates
// the listing. On any error the session is left as it is so the caller can
// fix the input and submit again.
func (c *FormController) Submit(ctx context.Context, token string, form domain.Form) (_ *domain.Bike, err error) {
	ctx, span := c.tracer.Start(ctx, "listing.Submit", trace.WithAttributes(
		attribute.String("listing.mode", c.mode.String()),
		attribute.Int("listing.bike_id", c.bikeID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrNotLoggedIn
	}
	if c.mode == domain.ModeEdit && c.bikeID == 0 {
		return nil, domain.ErrNoListingLoaded
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	photos, err := c.photos.Flush(ctx, token)
	if err != nil {
		return nil, err
	}
	payload := form.Payload(c.mode, photos)

	if c.mode == domain.ModeCreate {
		bike, err := c.bikes.CreateBike(ctx, token, payload)
		if err != nil {
			c.log.Error("failed to create listing", zap.Error(err))
			return nil, err
		}
		c.log.Info("listing created", zap.Int("bike_id", bike.ID), zap.Int("photos", len(photos)))
		return bike, nil
	}

	bike, err := c.bikes.UpdateBike(ctx, token, c.bikeID, payload)
	if err != nil {
		c.log.Error("failed to update listing", zap.Int("bike_id", c.bikeID), zap.Error(err))
		return nil, err
	}
	c.log.Info("listing updated", zap.Int("bike_id", bike.ID), zap.Int("photos", len(photos)))
	return bike, nil
}
