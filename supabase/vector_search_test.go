package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSectionsFirstShapeAccepted(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/rpc/match_document_sections", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 7, "document_id": "d1", "content": "sectie", "metadata": {"page": 2}, "similarity": 0.42}]`))
	}))
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	hits, err := client.MatchSections(context.Background(), "tenant-a", []float32{0.1}, 10, 0.25)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "7", hits[0].ID)
	assert.Equal(t, "d1", hits[0].DocumentID)
	assert.Equal(t, 0.42, hits[0].Similarity)
	assert.Equal(t, "tenant-a", gotBody["p_organization_id"])
}

func TestMatchSectionsFallsBackToSecondShape(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		if _, ok := body["p_organization_id"]; ok {
			// old deployments reject the prefixed shape with a PGRST error
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"PGRST202","message":"function not found"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": "s1", "document_id": "d1", "content": "sectie", "metadata": null, "similarity": 0.3}]`))
	}))
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	hits, err := client.MatchSections(context.Background(), "tenant-a", []float32{0.1}, 10, 0.25)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].ID)
	require.Len(t, bodies, 2)
	assert.Equal(t, "tenant-a", bodies[1]["organization_id"])
}

func TestMatchSectionsAllShapesRejectedDegradesToEmpty(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"PGRST202"}`))
	}))
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	hits, err := client.MatchSections(context.Background(), "tenant-a", []float32{0.1}, 10, 0.25)

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, len(matchSectionShapes), calls)
}

func TestMatchSectionsServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	_, err := client.MatchSections(context.Background(), "tenant-a", []float32{0.1}, 10, 0.25)

	assert.Error(t, err)
}
