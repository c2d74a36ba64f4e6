package model

import (
	"time"

	"gorm.io/datatypes"
)

// BattleRecord is one finished battle.
type BattleRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID  string         `gorm:"uniqueIndex;size:36;not null" json:"battle_id"`
	Seed      int64          `gorm:"not null" json:"seed"`
	Format    int            `gorm:"default:1" json:"format"`
	Wild      bool           `gorm:"default:false" json:"wild"`
	Result    string         `gorm:"index:idx_battle_result;size:16;not null" json:"result"`
	Turns     int            `gorm:"not null" json:"turns"`
	Snapshot  datatypes.JSON `json:"snapshot"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	CreatedAt time.Time      `gorm:"index:idx_battle_created;autoCreateTime:milli" json:"created_at"`

	Actions []BattleAction `gorm:"foreignKey:BattleID;references:BattleID" json:"actions,omitempty"`
}

// BattleAction is one action log line of a battle.
type BattleAction struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID string `gorm:"index:idx_action_battle_seq,priority:1;size:36;not null" json:"battle_id"`
	Seq      int    `gorm:"index:idx_action_battle_seq,priority:2;not null" json:"seq"`
	Turn     int    `gorm:"not null" json:"turn"`
	Kind     string `gorm:"size:32;not null" json:"kind"`
	ActorID  int    `json:"actor_id"`
	MoveID   int    `json:"move_id"`
	TargetID int    `json:"target_id"`
	Amount   int    `json:"amount"`
	Outcome  string `gorm:"size:64" json:"outcome"`
	// Detail is the full event payload when it was captured.
	Detail datatypes.JSON `json:"detail"`
}
