package staking

import (
	"ton-staking-manager/modules/db"
)

// StakingDb scopes the manager's two collections (elections, settings)
// to one mongo database.
type StakingDb struct {
	*db.DbInstance
}

func New(d db.Db, conf db.DbConfig) *StakingDb {
	return &StakingDb{db.NewDbInstance(d, conf)}
}
