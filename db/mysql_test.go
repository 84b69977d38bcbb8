package db

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

// mysql tests need a throwaway database, configured by a sample config file.
func testDatabase(t *testing.T) config.Database {
	configFile := os.Getenv("ICS20_SUBMITTER_TEST_CONFIG")
	if configFile == "" {
		t.Skip("ICS20_SUBMITTER_TEST_CONFIG not set")
	}

	cfg, err := config.NewConfig(configFile)
	require.NoError(t, err)

	return cfg.Database
}

func TestMysqlDB_KV(t *testing.T) {
	cfg := testDatabase(t)
	require.NoError(t, Init(cfg))

	mysqlDB, err := NewMysqlDB(cfg)
	require.NoError(t, err)
	defer mysqlDB.Close()

	key := []byte(fmt.Sprintf("test/%d", time.Now().UnixNano()))
	ok, err := mysqlDB.Has(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mysqlDB.Put(key, []byte("1")))
	require.NoError(t, mysqlDB.Put(key, []byte("2")))
	val, err := mysqlDB.Get(key)
	require.NoError(t, err)
	require.Equal(t, "2", string(val))

	require.NoError(t, mysqlDB.Delete(key))
	_, err = mysqlDB.Get(key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransferRepository(t *testing.T) {
	cfg := testDatabase(t)
	require.NoError(t, Init(cfg))

	repository, err := NewTransferRepository()
	require.NoError(t, err)

	prefix := fmt.Sprintf("test-%d", time.Now().UnixNano())
	reqs := []*TransferRequest{
		{RequestId: prefix + "-a", SourcePort: "transfer", SourceChannel: "channel-0", PacketData: "{}"},
		{RequestId: prefix + "-b", SourcePort: "transfer", SourceChannel: "channel-0", PacketData: "{}"},
	}
	require.NoError(t, repository.InsertTransferRequests(reqs))
	// duplicates are skipped
	require.NoError(t, repository.InsertTransferRequests(reqs[:1]))

	require.NoError(t, repository.MarkSubmitted([]string{reqs[0].RequestId, reqs[1].RequestId}, "ABCD", 7))
	submitted, err := repository.GetSubmittedTransferRequests(0)
	require.NoError(t, err)

	var found int
	for _, req := range submitted {
		if req.TxHash == "ABCD" && req.AccountSeq == 7 {
			found++
		}
	}
	require.Equal(t, 2, found)

	require.NoError(t, repository.UpdateResult(reqs[1].RequestId, TransferResult{
		Status: StatusSuccess, TxHash: "ABCD", Height: 10, MsgIndex: 1, PacketSequence: 3,
	}))

	require.NoError(t, repository.UpdateLastCommittedHeight(10))
	height, err := repository.GetLastCommittedHeight()
	require.NoError(t, err)
	require.Equal(t, uint64(10), height)
}
