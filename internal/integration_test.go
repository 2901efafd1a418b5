package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fabric-inspection-backend/config"
	"fabric-inspection-backend/internal/db"
	"fabric-inspection-backend/internal/model"
	"fabric-inspection-backend/internal/qcerr"
	"fabric-inspection-backend/internal/store"
	"fabric-inspection-backend/internal/telemetry"
	"fabric-inspection-backend/internal/workflow"
)

// fakeGateway is a mutable stand-in for the device gateway. Tests flip its
// fields to simulate instruments connecting, disconnecting and measuring.
type fakeGateway struct {
	mu              sync.Mutex
	weightConnected bool
	meterConnected  bool
	weight          float64
	length          float64
}

func (g *fakeGateway) set(fn func(*fakeGateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

func (g *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/devices/status", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		resp := telemetry.StatusResponse{}
		resp.Data.WeightConnected = g.weightConnected
		resp.Data.MeterConnected = g.meterConnected
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/devices/value", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		resp := telemetry.ValueResponse{}
		switch r.URL.Query().Get("channel") {
		case "weight":
			resp.Data.Value = g.weight
		case "length":
			resp.Data.Value = g.length
		}
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

// TestRollLifecycle walks one roll through the whole workstation flow against
// a real (in-memory) database and a fake device gateway: scan miss, roll
// creation, polled and manual measurements, defect entry and removal, and the
// confirmed terminal transition.
func TestRollLifecycle(t *testing.T) {
	// --- Test Setup ---

	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	gateway := &fakeGateway{}
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	gormStore := store.NewGormStore(testDB)
	session := workflow.NewSession(gormStore, nil)

	telemetryCfg := &config.TelemetryConfig{
		Enabled: true,
		BaseURL: server.URL,
	}
	poller := telemetry.NewPoller(telemetryCfg, session)
	session.AttachPoller(poller)

	ctx := context.Background()
	var rollID int64

	t.Run("scan miss prefills the roll form", func(t *testing.T) {
		result, err := session.Resolve(ctx, "B-0001\r\n")
		require.NoError(t, err)
		assert.False(t, result.Found)
		assert.Equal(t, "B-0001", result.PrefillBarcode)

		state := session.State()
		assert.Equal(t, workflow.ViewInspection, state.View)
		assert.Equal(t, workflow.TabRollInfo, state.ActiveTab)
		assert.False(t, state.DefectsEnabled)
	})

	t.Run("creating the roll enables the defects tab", func(t *testing.T) {
		roll, err := session.CreateRoll(ctx, workflow.CreateRollInput{
			BarCode:      "B-0001",
			BatchNo:      "L-2025-117",
			FabricTypeID: 3,
			Color:        "indigo",
			Width:        150,
		}, "op-7")
		require.NoError(t, err)
		require.NotZero(t, roll.ID)
		rollID = roll.ID
		assert.Equal(t, model.RollStatusActive, roll.Status)

		state := session.State()
		assert.True(t, state.DefectsEnabled)
		assert.Equal(t, workflow.TabDefects, state.ActiveTab)
		assert.Equal(t, rollID, state.RollID)
	})

	t.Run("polled length reading merges into the roll", func(t *testing.T) {
		gateway.set(func(g *fakeGateway) {
			g.meterConnected = true
			g.length = 120.5
		})
		poller.PollConnectivity(ctx)
		poller.PollValues(ctx)

		reading := poller.Reading(telemetry.ChannelLength)
		assert.True(t, reading.Connected)
		assert.Equal(t, 120.5, reading.Value)
		assert.False(t, poller.Reading(telemetry.ChannelWeight).Connected)

		var stored model.FabricRoll
		require.NoError(t, testDB.First(&stored, rollID).Error)
		assert.Equal(t, 120.5, stored.Length)
		assert.Zero(t, stored.Weight, "the disconnected weight channel must not produce a value")
	})

	t.Run("manual weight entry wins while the scale is offline", func(t *testing.T) {
		roll, err := session.ApplyManual(ctx, telemetry.ChannelWeight, 12.4)
		require.NoError(t, err)
		assert.Equal(t, 12.4, roll.Weight)

		var stored model.FabricRoll
		require.NoError(t, testDB.First(&stored, rollID).Error)
		assert.Equal(t, 12.4, stored.Weight)
	})

	t.Run("defect at current position uses the live meter count", func(t *testing.T) {
		defects, err := session.AddDefectAtCurrentPosition(ctx, rollID, workflow.DefectInput{
			DefectCode: "HOLE",
			Width:      3,
			Severity:   model.SeverityHigh,
		})
		require.NoError(t, err)
		require.Len(t, defects, 1)
		assert.Equal(t, 120.5, defects[0].StartMeter)
		assert.InDelta(t, 120.6, defects[0].EndMeter, 1e-9)
	})

	t.Run("rejected defect input leaves the ledger unchanged", func(t *testing.T) {
		_, err := session.AddDefect(ctx, rollID, workflow.DefectInput{
			DefectCode: "STAIN",
			StartMeter: 12,
			EndMeter:   11,
			Width:      5,
			Severity:   model.SeverityLow,
		})
		var ve *qcerr.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "endMeter", ve.Field)

		var count int64
		testDB.Model(&model.FabricDefect{}).Where("fabric_roll_id = ?", rollID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("defect removal needs an explicit confirmation", func(t *testing.T) {
		defects, err := session.AddDefect(ctx, rollID, workflow.DefectInput{
			DefectCode: "STAIN",
			StartMeter: 40,
			EndMeter:   40.3,
			Width:      8,
			Severity:   model.SeverityLow,
		})
		require.NoError(t, err)
		require.Len(t, defects, 2)
		stainID := defects[1].ID

		_, err = session.RemoveDefect(ctx, stainID)
		var cf *qcerr.ConflictError
		require.True(t, errors.As(err, &cf))

		_, err = session.RequestDefectDelete(stainID)
		require.NoError(t, err)
		defects, err = session.RemoveDefect(ctx, stainID)
		require.NoError(t, err)
		assert.Len(t, defects, 1)
	})

	t.Run("finalization is a two-step confirmation", func(t *testing.T) {
		state, err := session.RequestFinalize(rollID, workflow.IntentComplete)
		require.NoError(t, err)
		assert.Equal(t, workflow.IntentComplete, state.PendingFinalize)

		// The roll stays active until the operator confirms.
		var stored model.FabricRoll
		require.NoError(t, testDB.First(&stored, rollID).Error)
		assert.Equal(t, model.RollStatusActive, stored.Status)

		state = session.CancelFinalize()
		assert.Equal(t, workflow.IntentNone, state.PendingFinalize)

		_, err = session.RequestFinalize(rollID, workflow.IntentComplete)
		require.NoError(t, err)
		roll, err := session.ConfirmFinalize(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.RollStatusCompleted, roll.Status)

		require.NoError(t, testDB.First(&stored, rollID).Error)
		assert.Equal(t, model.RollStatusCompleted, stored.Status)

		state = session.State()
		assert.Equal(t, workflow.ViewScan, state.View)
		assert.Zero(t, state.RollID)
		assert.False(t, state.DefectsEnabled)
	})

	t.Run("a terminal roll accepts no further changes", func(t *testing.T) {
		err := gormStore.CreateDefect(ctx, &model.FabricDefect{
			FabricRollID: rollID,
			DefectCode:   "HOLE",
			StartMeter:   1,
			EndMeter:     2,
			Width:        1,
			Severity:     model.SeverityLow,
		})
		var ve *qcerr.ValidationError
		require.True(t, errors.As(err, &ve), "defects on a completed roll must be refused")

		err = gormStore.FinalizeRoll(ctx, rollID, model.RollStatusRejected)
		require.True(t, errors.As(err, &ve), "a completed roll must not flip to rejected")

		var stored model.FabricRoll
		require.NoError(t, testDB.First(&stored, rollID).Error)
		assert.Equal(t, model.RollStatusCompleted, stored.Status)

		// Re-scanning the barcode still finds the roll for read-only review.
		result, err := session.Resolve(ctx, "B-0001")
		require.NoError(t, err)
		assert.True(t, result.Found)
		assert.Equal(t, model.RollStatusCompleted, result.Roll.Status)
		assert.Len(t, result.Defects, 1)
	})

	t.Run("defect code catalog is seeded", func(t *testing.T) {
		codes, err := gormStore.ListDefectCodes(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, codes)
	})
}
