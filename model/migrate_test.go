package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/kasuganosora/battlecore/model"
	"github.com/kasuganosora/battlecore/testutil"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec := &model.BattleRecord{
		BattleID:  "b-001",
		Seed:      42,
		Result:    "victory",
		Turns:     7,
		Snapshot:  datatypes.JSON(`{"turn":7}`),
		StartedAt: time.Now().Add(-time.Second),
		EndedAt:   time.Now(),
		Actions: []model.BattleAction{
			{Seq: 1, Kind: "battle_start"},
			{Seq: 2, Turn: 1, Kind: "move_used", ActorID: 1, MoveID: 3},
		},
	}
	require.NoError(t, db.Create(rec).Error)
	assert.Greater(t, rec.ID, int64(0))

	var found model.BattleRecord
	require.NoError(t, db.Preload("Actions").First(&found, rec.ID).Error)
	assert.Equal(t, "victory", found.Result)
	assert.JSONEq(t, `{"turn":7}`, string(found.Snapshot))
	require.Len(t, found.Actions, 2)
	assert.Equal(t, "b-001", found.Actions[1].BattleID)
	assert.Equal(t, 3, found.Actions[1].MoveID)

	dup := &model.BattleRecord{BattleID: "b-001", Result: "draw"}
	assert.Error(t, db.Create(dup).Error, "battle_id is unique")
}
