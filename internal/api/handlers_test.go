package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/praevita/praevita/internal/llm"
	"github.com/praevita/praevita/internal/model"
	"github.com/praevita/praevita/internal/oracle"
	"github.com/praevita/praevita/internal/reconciler"
	"github.com/praevita/praevita/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadCSV = `Region,City,Year,Month,Rainfall_mm,Temperature_celsius,Sanitation_Index,Water_Quality_Index,Population_Density,Waste_Management_Score,Cholera_Cases,Typhoid_Cases
Coastal,Port Town,2025,3,180.5,29.1,0.55,0.48,3100,0.42,120,60
Coastal,Harbor City,2025,3,140.0,28.2,0.61,0.52,2700,0.51,80,45`

func testHandlers(t *testing.T, mockLLM *llm.MockClient) (*Handlers, *testutil.TestDB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	if mockLLM == nil {
		mockLLM = &llm.MockClient{}
	}

	provider := oracle.NewStaticProvider(oracle.NewMockScorer())
	return &Handlers{
		Store:       db.Storage,
		Provider:    provider,
		Synthesizer: llm.NewSynthesizerWithClient(llm.Config{RetryDelay: time.Millisecond}, mockLLM),
		Worker:      reconciler.NewWorker(reconciler.New(db.Storage, provider)),
	}, db
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestUpload(t *testing.T) {
	t.Run("accepts a valid multipart upload", func(t *testing.T) {
		handlers, db := testHandlers(t, nil)

		body, contentType := multipartUpload(t, "observations.csv", uploadCSV)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handlers.Upload(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp["inserted"])

		count, err := db.Storage.CountRecords(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("missing columns are a client error", func(t *testing.T) {
		handlers, db := testHandlers(t, nil)

		bad := strings.ReplaceAll(uploadCSV, "Cholera_Cases,", "")
		body, contentType := multipartUpload(t, "observations.csv", bad)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handlers.Upload(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeDetail(t, rec), "Cholera_Cases")

		count, err := db.Storage.CountRecords(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, count, "a rejected upload must not insert rows")
	})

	t.Run("malformed row is a client error", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		bad := strings.Replace(uploadCSV, "180.5", "wet", 1)
		body, contentType := multipartUpload(t, "observations.csv", bad)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handlers.Upload(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeDetail(t, rec), "Rainfall_mm")
	})

	t.Run("storage failure is a server error", func(t *testing.T) {
		handlers, db := testHandlers(t, nil)

		// A closed store fails the insert after the file has already
		// passed parse validation
		require.NoError(t, db.Storage.Close())

		body, contentType := multipartUpload(t, "observations.csv", uploadCSV)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handlers.Upload(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("missing file field is a client error", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()

		handlers.Upload(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPredict(t *testing.T) {
	features := model.Features{
		Region:       "Coastal",
		District:     "Port Town",
		Year:         2025,
		Month:        3,
		CholeraCases: 100,
		TyphoidCases: 50,
	}

	t.Run("returns the prediction pair", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		body, err := json.Marshal(features)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handlers.Predict(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp map[string][]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []int{110, 55}, resp["prediction"])
	})

	t.Run("no model loaded", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)
		handlers.Provider = oracle.NewStaticProvider(nil)

		body, err := json.Marshal(features)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handlers.Predict(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Model is not loaded properly.", decodeDetail(t, rec))
	})

	t.Run("invalid body", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("not json"))
		rec := httptest.NewRecorder()

		handlers.Predict(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListRecords(t *testing.T) {
	handlers, db := testHandlers(t, nil)
	ctx := context.Background()

	db.SeedRecords(ctx, []model.RecordInput{
		testutil.NewRecordInput("East", "Alpha", 2025, 1, nil),
	})
	pending, err := db.Storage.GetPendingRecords(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, db.Storage.SetPrediction(ctx, pending[0].ID, 70, 30))

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()

	handlers.ListRecords(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Alpha", records[0]["City"])
	assert.Equal(t, float64(70), records[0]["projected_cholera"])
}

func TestComprehensiveReport(t *testing.T) {
	t.Run("no predicted data is not found", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		rec := httptest.NewRecorder()

		handlers.ComprehensiveReport(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns the synthesized report", func(t *testing.T) {
		handlers, db := testHandlers(t, nil)
		ctx := context.Background()

		db.SeedRecords(ctx, []model.RecordInput{
			testutil.NewRecordInput("East", "Alpha", 2025, 1, nil),
		})
		pending, err := db.Storage.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		require.NoError(t, db.Storage.SetPrediction(ctx, pending[0].ID, 70, 30))

		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		rec := httptest.NewRecorder()

		handlers.ComprehensiveReport(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report model.StructuredReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.NotEmpty(t, report.RegionalData)
		assert.NotEmpty(t, report.Description)
	})

	t.Run("synthesis failure is a server error", func(t *testing.T) {
		handlers, db := testHandlers(t, &llm.MockClient{Err: errors.New("provider down")})
		ctx := context.Background()

		db.SeedRecords(ctx, []model.RecordInput{
			testutil.NewRecordInput("East", "Alpha", 2025, 1, nil),
		})
		pending, err := db.Storage.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		require.NoError(t, db.Storage.SetPrediction(ctx, pending[0].ID, 70, 30))

		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		rec := httptest.NewRecorder()

		handlers.ComprehensiveReport(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeDetail(t, rec), "provider down")
	})
}

func TestSingleReport(t *testing.T) {
	t.Run("synthesizes from the supplied observation", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		body := fmt.Sprintf(`{
			"Region": "Coastal", "City": "Port Town", "Year": 2025, "Month": 11,
			"Rainfall_mm": 180.5, "Temperature_celsius": 29.1,
			"Sanitation_Index": 0.55, "Water_Quality_Index": 0.48,
			"Population_Density": 3100, "Waste_Management_Score": 0.42,
			"Cholera_Cases": 100, "Typhoid_Cases": 50,
			"projected_cholera": %d, "projected_typhoid": %d
		}`, 180, 55)

		req := httptest.NewRequest(http.MethodPost, "/report/single", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handlers.SingleReport(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report model.StructuredReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.NotEmpty(t, report.RegionalData)
	})

	t.Run("negative projections are a client error", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		body := `{"Region": "R", "City": "D", "projected_cholera": -1, "projected_typhoid": 0}`
		req := httptest.NewRequest(http.MethodPost, "/report/single", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handlers.SingleReport(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	t.Run("reports model loaded", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)

		rec := httptest.NewRecorder()
		handlers.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var status map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "ok", status["status"])
		assert.Equal(t, true, status["model_loaded"])
	})

	t.Run("reports model missing", func(t *testing.T) {
		handlers, _ := testHandlers(t, nil)
		handlers.Provider = oracle.NewStaticProvider(nil)

		rec := httptest.NewRecorder()
		handlers.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var status map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, false, status["model_loaded"])
	})
}
