package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/quotes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quotes/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/quotes/{id}", "418")))
}

func TestRecordTransitionExposed(t *testing.T) {
	RecordTransition("quote", "accept")
	RecordTicket("created")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `eckbiz_lifecycle_transitions_total{action="accept",entity="quote"}`))
	assert.True(t, strings.Contains(body, `eckbiz_tickets_received_total{outcome="created"}`))
}
