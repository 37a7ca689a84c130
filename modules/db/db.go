package db

import (
	"context"
	"time"

	"ton-staking-manager/lib/utils"
	a "ton-staking-manager/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Db interface {
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

type db struct {
	conf DbConfig
	*mongo.Client
}

var _ a.Plugin = &db{}
var _ Db = &db{}

const connectTimeout = 10 * time.Second

func New(conf DbConfig) *db {
	return &db{conf: conf}
}

func (db *db) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(db.conf.Get().DbURI))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	db.Client = client
	return nil
}

func (db *db) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (db *db) Stop() error {
	return db.Client.Disconnect(context.Background())
}
