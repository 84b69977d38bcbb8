package db

import (
	"errors"

	"gorm.io/gorm"
)

const submitterLastCommittedHeightKey = "submitter/ics20-last-committed-height"

const (
	StatusPending = iota
	// StatusSubmitted means the tx was accepted by the node but its commit
	// was not observed yet.
	StatusSubmitted
	StatusSuccess
	StatusInvalid
	StatusFailed
)

const (
	BatchHandleTransferRequestsNum = 50
)

type ITransferRepository interface {
	InsertTransferRequests(reqs []*TransferRequest) error
	GetPendingTransferRequests(limit int) ([]*TransferRequest, error)
	GetSubmittedTransferRequests(limit int) ([]*TransferRequest, error)

	UpdateStatus(requestId string, status int, errMsg string) error
	MarkSubmitted(requestIds []string, txHash string, accountSeq uint64) error
	UpdateResult(requestId string, result TransferResult) error

	UpdateLastCommittedHeight(height uint64) error
	GetLastCommittedHeight() (uint64, error)
}

// TransferResult is the final state of a request once its tx committed.
type TransferResult struct {
	Status         int
	TxHash         string
	Height         int64
	MsgIndex       int
	PacketSequence uint64
	Error          string
}

type TransferRepository struct {
	db *gorm.DB

	lastCommittedHeightKey string
}

func NewTransferRepository() (ITransferRepository, error) {
	if DB == nil {
		return nil, errors.New("DB is not initialized yet")
	}

	return NewTransferRepositoryWithGorm(DB), nil
}

func NewTransferRepositoryWithGorm(db *gorm.DB) *TransferRepository {
	return &TransferRepository{
		db:                     db,
		lastCommittedHeightKey: submitterLastCommittedHeightKey,
	}
}

func (r *TransferRepository) InsertTransferRequests(reqs []*TransferRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	return r.db.Transaction(func(dbtx *gorm.DB) error {
		for _, req := range reqs {
			if ok, err := r.hasTransferRequest(dbtx, req.RequestId); err != nil {
				return err
			} else if ok {
				continue
			}

			if err := dbtx.Create(req).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *TransferRepository) GetPendingTransferRequests(limit int) ([]*TransferRequest, error) {
	return r.getByStatus(StatusPending, limit)
}

func (r *TransferRepository) GetSubmittedTransferRequests(limit int) ([]*TransferRequest, error) {
	return r.getByStatus(StatusSubmitted, limit)
}

func (r *TransferRepository) UpdateStatus(requestId string, status int, errMsg string) error {
	return r.db.Model(&TransferRequest{}).Where("request_id = ?", requestId).
		Updates(map[string]interface{}{"status": status, "error": errMsg}).Error
}

func (r *TransferRepository) MarkSubmitted(requestIds []string, txHash string, accountSeq uint64) error {
	return r.db.Transaction(func(dbtx *gorm.DB) error {
		for i, id := range requestIds {
			err := dbtx.Model(&TransferRequest{}).Where("request_id = ?", id).
				Updates(map[string]interface{}{
					"status":      StatusSubmitted,
					"tx_hash":     txHash,
					"msg_index":   i,
					"account_seq": accountSeq,
				}).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *TransferRepository) UpdateResult(requestId string, result TransferResult) error {
	return r.db.Model(&TransferRequest{}).Where("request_id = ?", requestId).
		Updates(map[string]interface{}{
			"status":          result.Status,
			"tx_hash":         result.TxHash,
			"height":          result.Height,
			"msg_index":       result.MsgIndex,
			"packet_sequence": result.PacketSequence,
			"error":           result.Error,
		}).Error
}

func (r *TransferRepository) UpdateLastCommittedHeight(height uint64) error {
	return SetUint64(r.db, r.lastCommittedHeightKey, height)
}

func (r *TransferRepository) GetLastCommittedHeight() (uint64, error) {
	return GetUint64(r.db, r.lastCommittedHeightKey)
}

func (r *TransferRepository) getByStatus(status int, limit int) ([]*TransferRequest, error) {
	if limit <= 0 {
		limit = BatchHandleTransferRequestsNum
	}

	var reqs []*TransferRequest
	err := r.db.Model(&TransferRequest{}).Where("status = ?", status).
		Order("id ASC").Limit(limit).Find(&reqs).Error
	if err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *TransferRepository) hasTransferRequest(dbtx *gorm.DB, requestId string) (bool, error) {
	var count int64
	result := dbtx.Model(&TransferRequest{}).Where("request_id = ?", requestId).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
