package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contractreg/contractreg/internal/notify"
)

func TestWebhookNotifier_NotifyAll_DeliversToEachTeam(t *testing.T) {
	var delivered int32
	var lastPayload notify.Event

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&delivered, 1)
		_ = json.NewDecoder(r.Body).Decode(&lastPayload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := notify.NewWebhookNotifier(srv.URL, time.Second)
	events := []notify.Event{
		{Type: "proposal.opened", ProposalID: "p1", AssetID: "a1", ConsumerTeamID: "team-a", ChangeType: "major", OccurredAt: time.Now()},
		{Type: "proposal.opened", ProposalID: "p1", AssetID: "a1", ConsumerTeamID: "team-b", ChangeType: "major", OccurredAt: time.Now()},
	}

	err := n.NotifyAll(context.Background(), events)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&delivered))
}

func TestWebhookNotifier_NotifyAll_ReturnsErrorOnFailedDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := notify.NewWebhookNotifier(srv.URL, time.Second)
	err := n.NotifyAll(context.Background(), []notify.Event{
		{Type: "proposal.opened", ConsumerTeamID: "team-a"},
	})
	require.Error(t, err)
}

func TestNoopNotifier_NeverErrors(t *testing.T) {
	n := notify.NoopNotifier{}
	err := n.NotifyAll(context.Background(), []notify.Event{{ConsumerTeamID: "team-a"}})
	require.NoError(t, err)
}
