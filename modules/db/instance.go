package db

import (
	"ton-staking-manager/lib/utils"
	a "ton-staking-manager/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
)

type DbInstance struct {
	db   Db
	conf DbConfig
	*mongo.Database
}

var _ a.Plugin = &DbInstance{}

func NewDbInstance(db Db, conf DbConfig) *DbInstance {
	return &DbInstance{db: db, conf: conf}
}

// Init implements aggregate.Plugin. Runs after the client connected, so
// the database handle can be resolved here.
func (d *DbInstance) Init() error {
	d.Database = d.db.Database(d.conf.Get().DbName)
	return nil
}

// Start implements aggregate.Plugin.
func (d *DbInstance) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (d *DbInstance) Stop() error {
	return nil
}
