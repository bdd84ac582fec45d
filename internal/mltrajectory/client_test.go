package mltrajectory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

func TestPredict_SuccessReturnsPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "t1", req.TenantID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(predictResponse{
			Predictions: map[string]models.TrajectoryPrediction{
				"c1": {NextRole: "Staff Engineer", NextRoleConfidence: 0.8},
			},
		})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
	preds, ok := client.Predict(context.Background(), models.TenantContext{TenantID: "t1"}, []string{"c1"})

	require.True(t, ok)
	require.Contains(t, preds, "c1")
	assert.Equal(t, "Staff Engineer", preds["c1"].NextRole)
	assert.Equal(t, "healthy", client.Health())
}

func TestPredict_TimeoutReturnsUnavailableNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: time.Millisecond}, nil, nil)
	preds, ok := client.Predict(context.Background(), models.TenantContext{TenantID: "t1"}, []string{"c1"})

	assert.False(t, ok)
	assert.Nil(t, preds)
}

func TestPredict_EmptyCandidateListIsNoOp(t *testing.T) {
	client := New(Config{BaseURL: "http://unused.invalid"}, nil, nil)
	preds, ok := client.Predict(context.Background(), models.TenantContext{TenantID: "t1"}, nil)
	assert.True(t, ok)
	assert.Nil(t, preds)
}

func TestPredict_NonOKStatusDegradesGracefully(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
	preds, ok := client.Predict(context.Background(), models.TenantContext{TenantID: "t1"}, []string{"c1"})
	assert.False(t, ok)
	assert.Nil(t, preds)
}
