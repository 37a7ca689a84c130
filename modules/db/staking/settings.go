package staking

import (
	"context"
	"errors"

	a "ton-staking-manager/modules/aggregate"
	"ton-staking-manager/modules/db"

	"github.com/moznion/go-optional"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Settings holds the two operator flags read on every election cycle:
// the next-stake-size override and the skip-next-elections circuit
// breaker. Both live in a singleton document.
type Settings interface {
	a.Plugin
	NextStakeSize(ctx context.Context) (optional.Option[int64], error)
	// SetNextStakeSize stores the override; None clears it so the
	// configured default applies again.
	SetNextStakeSize(ctx context.Context, value optional.Option[int64]) error
	SkipNextElections(ctx context.Context) (bool, error)
	SetSkipNextElections(ctx context.Context, skip bool) error
}

type settingsDoc struct {
	NextStakeSize     *int64 `bson:"nextStakeSize,omitempty"`
	SkipNextElections bool   `bson:"skipNextElections,omitempty"`
}

type settings struct {
	*db.Collection
}

var _ Settings = &settings{}

func NewSettings(d *StakingDb) Settings {
	return &settings{db.NewCollection(d.DbInstance, "settings")}
}

func (s *settings) load(ctx context.Context) (settingsDoc, error) {
	res := s.FindOne(ctx, bson.M{})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return settingsDoc{}, nil
		}
		return settingsDoc{}, err
	}

	var doc settingsDoc
	if err := res.Decode(&doc); err != nil {
		return settingsDoc{}, err
	}
	return doc, nil
}

func (s *settings) set(ctx context.Context, update bson.M) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.UpdateOne(ctx, bson.M{}, bson.M{"$set": update}, opts)
	return err
}

func (s *settings) NextStakeSize(ctx context.Context) (optional.Option[int64], error) {
	doc, err := s.load(ctx)
	if err != nil {
		return optional.None[int64](), err
	}
	return optional.FromNillable(doc.NextStakeSize), nil
}

func (s *settings) SetNextStakeSize(ctx context.Context, value optional.Option[int64]) error {
	return s.set(ctx, bson.M{"nextStakeSize": value.UnwrapAsPtr()})
}

func (s *settings) SkipNextElections(ctx context.Context) (bool, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return doc.SkipNextElections, nil
}

func (s *settings) SetSkipNextElections(ctx context.Context, skip bool) error {
	return s.set(ctx, bson.M{"skipNextElections": skip})
}
