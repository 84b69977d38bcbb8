package db

import (
	"errors"
	"fmt"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

// NewSequenceStore opens the IDB that keeps account sequences. The mysql
// store shares the connection opened by Init.
func NewSequenceStore(cfg *config.Config) (IDB, error) {
	switch cfg.SequenceStore {
	case config.SequenceStoreMysql:
		if DB == nil {
			return nil, errors.New("mysql sequence store needs db.Init first")
		}
		return NewMysqlDBWithGorm(DB), nil
	case config.SequenceStoreLevelDB, "":
		return NewLevelDB(cfg.SequenceDBDir)
	default:
		return nil, fmt.Errorf("unknown sequence store %q", cfg.SequenceStore)
	}
}
