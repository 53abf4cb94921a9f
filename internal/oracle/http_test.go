package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/praevita/praevita/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPScorer_Score(t *testing.T) {
	ctx := context.Background()
	features := model.Features{
		Region:       "Coastal",
		District:     "Port Town",
		Year:         2025,
		Month:        3,
		CholeraCases: 100,
		TyphoidCases: 50,
	}

	t.Run("decodes the prediction pair", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string][]int{"prediction": {130, 60}})
		}))
		defer srv.Close()

		scorer, err := NewHTTPScorer(srv.URL)
		require.NoError(t, err)

		cholera, typhoid, err := scorer.Score(ctx, features)
		require.NoError(t, err)
		assert.Equal(t, 130, cholera)
		assert.Equal(t, 60, typhoid)

		assert.Equal(t, "/predict", gotPath)
		assert.Equal(t, "Port Town", gotBody["City"], "features must use the training column names")
		assert.Equal(t, float64(100), gotBody["Cholera_Cases"])
	})

	t.Run("server error surfaces with detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}))
		defer srv.Close()

		scorer, err := NewHTTPScorer(srv.URL)
		require.NoError(t, err)

		_, _, err = scorer.Score(ctx, features)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model crashed")
	})

	t.Run("rejects a malformed prediction vector", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string][]int{"prediction": {130}})
		}))
		defer srv.Close()

		scorer, err := NewHTTPScorer(srv.URL)
		require.NoError(t, err)

		_, _, err = scorer.Score(ctx, features)
		assert.Error(t, err)
	})

	t.Run("rejects negative projections", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string][]int{"prediction": {-2, 10}})
		}))
		defer srv.Close()

		scorer, err := NewHTTPScorer(srv.URL)
		require.NoError(t, err)

		_, _, err = scorer.Score(ctx, features)
		assert.Error(t, err)
	})

	t.Run("requires a base URL", func(t *testing.T) {
		_, err := NewHTTPScorer("")
		assert.Error(t, err)
	})
}

func TestStaticProvider(t *testing.T) {
	t.Run("unloaded provider fails Current", func(t *testing.T) {
		provider := NewStaticProvider(nil)
		_, err := provider.Current()
		assert.Error(t, err)
	})

	t.Run("Load swaps the scorer", func(t *testing.T) {
		provider := NewStaticProvider(nil)
		provider.Load(NewMockScorer())

		scorer, err := provider.Current()
		require.NoError(t, err)
		assert.NotNil(t, scorer)
	})
}
