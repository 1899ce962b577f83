package transfer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

func sampleRequest() domain.TransferRequest {
	return domain.TransferRequest{
		TransferID: "0b7c1c55-1a8e-4cfb-9a55-2a1f7f2f7d10",
		Token:      "wrap.near",
		Receiver:   "alice",
		Amount:     amount.MustParse("50000000000000000000000000"),
		Memo:       "kickstarter:0:deposit_refund:0b7c1c55",
	}
}

func TestRequestTransfer_SendsPayload(t *testing.T) {
	var got transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		assert.Equal(t, sampleRequest().TransferID, r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"transfer_id":"` + got.TransferID + `","status":"pending"}`))
	}))
	defer srv.Close()

	c := NewHTTPTransferClient(srv.URL+"/", 0)
	require.NoError(t, c.RequestTransfer(context.Background(), sampleRequest()))
	assert.Equal(t, "50000000000000000000000000", got.Amount)
	assert.Equal(t, "alice", got.Receiver)
	assert.Equal(t, "wrap.near", got.Token)
}

func TestRequestTransfer_ConflictIsAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewHTTPTransferClient(srv.URL, 0)
	assert.NoError(t, c.RequestTransfer(context.Background(), sampleRequest()))
}

func TestRequestTransfer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		rejected bool
		contains string
	}{
		{"client error", http.StatusUnprocessableEntity, `{"success":false,"error":"receiver not registered"}`, true, "receiver not registered"},
		{"server error", http.StatusBadGateway, `oops`, false, "502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewHTTPTransferClient(srv.URL, 0).RequestTransfer(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Equal(t, tt.rejected, errors.Is(err, ErrRejected))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRequestTransfer_MismatchedAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transfer_id":"someone-else"}`))
	}))
	defer srv.Close()

	err := NewHTTPTransferClient(srv.URL, 0).RequestTransfer(context.Background(), sampleRequest())
	assert.ErrorContains(t, err, "someone-else")
}
