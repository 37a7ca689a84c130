package staking

import (
	"context"
	"errors"
	"fmt"

	a "ton-staking-manager/modules/aggregate"
	"ton-staking-manager/modules/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ElectionRecord is the per-round progress record. Stake is the
// cumulative nanotoken amount confirmed on chain for the round; it is
// only ever incremented (see AddStake), every other field is
// last-write-wins.
type ElectionRecord struct {
	Id           uint32   `bson:"id" json:"id"`
	ValidatorKey string   `bson:"validatorKey,omitempty" json:"validatorKey,omitempty"`
	ADNLKey      string   `bson:"adnlKey,omitempty" json:"adnlKey,omitempty"`
	KeySecrets   []string `bson:"keySecrets,omitempty" json:"keySecrets,omitempty"`
	PublicKey    string   `bson:"publicKey,omitempty" json:"publicKey,omitempty"`
	Signature    string   `bson:"signature,omitempty" json:"signature,omitempty"`
	Stake        int64    `bson:"stake,omitempty" json:"stake,omitempty"`
}

// Provisioned reports whether election keys exist for the round.
func (r ElectionRecord) Provisioned() bool {
	return r.ValidatorKey != "" && r.ADNLKey != ""
}

// Signed reports whether the election request was already signed.
func (r ElectionRecord) Signed() bool {
	return r.PublicKey != "" && r.Signature != ""
}

type Elections interface {
	a.Plugin
	// GetRecord returns the record for the given election id, or an
	// empty record carrying the id if none was stored yet.
	GetRecord(ctx context.Context, id uint32) (ElectionRecord, error)
	// AllRecords returns every stored record ordered by election id.
	AllRecords(ctx context.Context) ([]ElectionRecord, error)
	// UpsertRecord writes every set field of rec except Stake.
	UpsertRecord(ctx context.Context, rec ElectionRecord) error
	// AddStake increments the round's cumulative stake.
	AddStake(ctx context.Context, id uint32, amount int64) error
}

type elections struct {
	*db.Collection
}

var _ Elections = &elections{}

func NewElections(d *StakingDb) Elections {
	return &elections{db.NewCollection(d.DbInstance, "elections")}
}

func (e *elections) Init() error {
	if err := e.Collection.Init(); err != nil {
		return err
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := e.Indexes().CreateOne(context.Background(), indexModel)
	return err
}

func (e *elections) GetRecord(ctx context.Context, id uint32) (ElectionRecord, error) {
	res := e.FindOne(ctx, bson.M{"id": id})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ElectionRecord{Id: id}, nil
		}
		return ElectionRecord{}, err
	}

	var rec ElectionRecord
	if err := res.Decode(&rec); err != nil {
		return ElectionRecord{}, err
	}
	return rec, nil
}

func (e *elections) AllRecords(ctx context.Context) ([]ElectionRecord, error) {
	cursor, err := e.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var recs []ElectionRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (e *elections) UpsertRecord(ctx context.Context, rec ElectionRecord) error {
	if rec.Id == 0 {
		return fmt.Errorf("election record id is missing")
	}

	set := bson.M{"id": rec.Id}
	if rec.ValidatorKey != "" {
		set["validatorKey"] = rec.ValidatorKey
	}
	if rec.ADNLKey != "" {
		set["adnlKey"] = rec.ADNLKey
	}
	if len(rec.KeySecrets) > 0 {
		set["keySecrets"] = rec.KeySecrets
	}
	if rec.PublicKey != "" {
		set["publicKey"] = rec.PublicKey
	}
	if rec.Signature != "" {
		set["signature"] = rec.Signature
	}

	opts := options.Update().SetUpsert(true)
	_, err := e.UpdateOne(ctx, bson.M{"id": rec.Id}, bson.M{"$set": set}, opts)
	return err
}

func (e *elections) AddStake(ctx context.Context, id uint32, amount int64) error {
	opts := options.Update().SetUpsert(true)
	update := bson.M{
		"$set": bson.M{"id": id},
		"$inc": bson.M{"stake": amount},
	}
	_, err := e.UpdateOne(ctx, bson.M{"id": id}, update, opts)
	return err
}
