package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/ingest"
	"github.com/praevita/praevita/internal/llm"
	"github.com/praevita/praevita/internal/metrics"
	"github.com/praevita/praevita/internal/model"
	"github.com/praevita/praevita/internal/oracle"
	"github.com/praevita/praevita/internal/reconciler"
	"github.com/praevita/praevita/internal/report"
	"github.com/praevita/praevita/internal/service"
	"github.com/praevita/praevita/internal/storage"
)

// maxUploadBytes bounds how much of an upload is read into memory.
const maxUploadBytes = 32 << 20

// Handlers holds the dependencies the HTTP surface composes.
type Handlers struct {
	Store       service.Storage
	Provider    oracle.Provider
	Synthesizer *llm.Synthesizer
	Worker      *reconciler.Worker
}

// Upload ingests a tabular file, inserts the validated batch, and triggers
// a background reconciler run. The response does not wait for, or report
// on, the reconciliation outcome.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	content, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := ingest.FormatForFilename(filename)
	if declared := r.URL.Query().Get("format"); declared != "" {
		format = ingest.Format(declared)
	}

	inputs, err := ingest.Parse(content, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inserted, err := h.Store.InsertRecords(r.Context(), inputs)
	if err != nil {
		// The batch passed parse validation; anything but an input error
		// here is a storage failure
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	metrics.ObserveIngestion(inserted)

	if h.Worker != nil {
		h.Worker.Trigger()
	}

	writeJSON(w, http.StatusCreated, map[string]any{"inserted": inserted})
}

func readUpload(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, header, formErr := r.FormFile("file")
		if formErr != nil {
			return nil, "", errors.New("multipart upload is missing the 'file' field")
		}
		defer func() { _ = file.Close() }()

		content, readErr := io.ReadAll(file)
		if readErr != nil {
			return nil, "", readErr
		}
		return content, header.Filename, nil
	}

	// Non-multipart fallback: the raw body is the file
	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if len(content) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return content, "", nil
}

// Predict scores one observation synchronously against the loaded model.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var features model.Features
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	scorer, err := h.Provider.Current()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Model is not loaded properly.")
		return
	}

	cholera, typhoid, err := scorer.Score(r.Context(), features)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prediction": []int{cholera, typhoid}})
}

// ListRecords returns every stored row, pending and predicted, in store order.
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.GetAllRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]recordDTO, len(records))
	for i, record := range records {
		out[i] = toRecordDTO(record)
	}
	writeJSON(w, http.StatusOK, out)
}

// ComprehensiveReport synthesizes the executive summary over every
// predicted row.
func (h *Handlers) ComprehensiveReport(w http.ResponseWriter, r *http.Request) {
	payload, err := reportPayload(r, h.Store)
	if err != nil {
		if errors.Is(err, common.ErrNoData) {
			writeError(w, http.StatusNotFound, "No processed data found. Upload data and run predictions first.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.Synthesizer.Synthesize(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// singleReportRequest is one already-predicted observation supplied
// directly by the caller.
type singleReportRequest struct {
	model.Features
	ProjectedCholera int `json:"projected_cholera"`
	ProjectedTyphoid int `json:"projected_typhoid"`
}

// SingleReport synthesizes a report for one observation without reading
// the store.
func (h *Handlers) SingleReport(w http.ResponseWriter, r *http.Request) {
	var req singleReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ProjectedCholera < 0 || req.ProjectedTyphoid < 0 {
		writeError(w, http.StatusBadRequest, "projected case counts must be non-negative")
		return
	}

	row := model.FeatureRow{
		Region:            req.Region,
		District:          req.District,
		Year:              req.Year,
		Month:             req.Month,
		RainfallMM:        req.RainfallMM,
		TemperatureC:      req.TemperatureC,
		SanitationIndex:   req.SanitationIndex,
		WaterQualityIndex: req.WaterQualityIndex,
		PopulationDensity: req.PopulationDensity,
		WasteMgmtScore:    req.WasteMgmtScore,
		CholeraCases:      req.CholeraCases,
		TyphoidCases:      req.TyphoidCases,
	}

	payload := report.BuildSinglePrompt(row, req.ProjectedCholera, req.ProjectedTyphoid)

	result, err := h.Synthesizer.Synthesize(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health reports liveness and whether a model is currently loaded.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{"status": "ok", "model_loaded": true}
	if _, err := h.Provider.Current(); err != nil {
		status["model_loaded"] = false
	}
	writeJSON(w, http.StatusOK, status)
}

func reportPayload(r *http.Request, store service.Storage) (report.Payload, error) {
	return report.BuildComprehensivePrompt(r.Context(), store)
}

// recordDTO is the wire shape of a stored row, matching the original
// upload column names.
type recordDTO struct {
	ID                string    `json:"id"`
	Region            string    `json:"Region"`
	District          string    `json:"City"`
	Year              int       `json:"Year"`
	Month             int       `json:"Month"`
	RainfallMM        float64   `json:"Rainfall_mm"`
	TemperatureC      float64   `json:"Temperature_celsius"`
	SanitationIndex   float64   `json:"Sanitation_Index"`
	WaterQualityIndex float64   `json:"Water_Quality_Index"`
	PopulationDensity float64   `json:"Population_Density"`
	WasteMgmtScore    float64   `json:"Waste_Management_Score"`
	CholeraCases      int       `json:"Cholera_Cases"`
	TyphoidCases      int       `json:"Typhoid_Cases"`
	ProjectedCholera  *int      `json:"projected_cholera"`
	ProjectedTyphoid  *int      `json:"projected_typhoid"`
	CreatedAt         time.Time `json:"created_at"`
}

func toRecordDTO(r model.FeatureRow) recordDTO {
	return recordDTO{
		ID:                r.ID,
		Region:            r.Region,
		District:          r.District,
		Year:              r.Year,
		Month:             r.Month,
		RainfallMM:        r.RainfallMM,
		TemperatureC:      r.TemperatureC,
		SanitationIndex:   r.SanitationIndex,
		WaterQualityIndex: r.WaterQualityIndex,
		PopulationDensity: r.PopulationDensity,
		WasteMgmtScore:    r.WasteMgmtScore,
		CholeraCases:      r.CholeraCases,
		TyphoidCases:      r.TyphoidCases,
		ProjectedCholera:  r.ProjectedCholera,
		ProjectedTyphoid:  r.ProjectedTyphoid,
		CreatedAt:         r.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError renders the error envelope the original API used.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
