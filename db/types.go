package db

import "time"

type BaseTable struct {
	Id          int
	UpdatedTime time.Time `gorm:"autoUpdateTime"`
	CreatedTime time.Time `gorm:"autoCreateTime"`
}

type ConfigTable struct {
	Name  string `gorm:"uniqueIndex;size:128"`
	Value string

	BaseTable
}

func (ConfigTable) TableName() string {
	return "config"
}

// TransferRequest is one ICS-20 transfer waiting to be sent. PacketData holds
// the JSON packet data exactly as it was received.
type TransferRequest struct {
	RequestId     string `gorm:"uniqueIndex;size:128"`
	SourcePort    string
	SourceChannel string
	PacketData    string `gorm:"type:text"`
	TimeoutMinute uint64

	Status         int
	TxHash         string
	MsgIndex       int
	Height         int64
	AccountSeq     uint64
	PacketSequence uint64
	Error          string `gorm:"type:text"`

	BaseTable
}

func (TransferRequest) TableName() string {
	return "ics20_transfer_request"
}
