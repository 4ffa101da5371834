package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/entity"
	"github.com/kombinator/garant/internal/export"
	"github.com/kombinator/garant/internal/receipts"
)

// maxUploadBytes caps the multipart form we are willing to buffer. Receipt
// photos are phone-camera sized.
const maxUploadBytes = 10 << 20

// ReceiptsHandler exposes the record manager over HTTP.
type ReceiptsHandler struct {
	receipts      *receipts.Service
	exporter      *export.Service
	payloadSchema map[string]any
	logger        *zap.Logger
}

func NewReceiptsHandler(svc *receipts.Service, exporter *export.Service, logger *zap.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		receipts:      svc,
		exporter:      exporter,
		payloadSchema: buildReceiptPayloadSchema(),
		logger:        logger,
	}
}

func (h *ReceiptsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/receipts", h.List)
	r.Post("/receipts", h.Add)
	r.Delete("/receipts/{id}", h.Delete)
	r.Get("/receipts/export", h.Export)
}

type addReceiptPayload struct {
	ProductName            string `json:"product_name"`
	Category               string `json:"category"`
	WarrantyExpirationDate string `json:"warranty_expiration_date"`
}

type listResponse struct {
	Receipts []*entity.Receipt `json:"receipts"`
}

type groupedListResponse struct {
	Expired  []*entity.Receipt `json:"expired"`
	Expiring []*entity.Receipt `json:"expiring"`
	Active   []*entity.Receipt `json:"active"`
}

// List returns the caller's receipts newest first. With ?grouped=true the
// response is partitioned into expired/expiring/active instead.
func (h *ReceiptsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, common.ErrAuthRequired)
		return
	}

	recs, err := h.receipts.List(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	if grouped := r.URL.Query().Get("grouped"); grouped == "true" || grouped == "1" {
		expired, expiring, active := h.receipts.Partition(recs)
		respondJSON(w, http.StatusOK, groupedListResponse{
			Expired:  expired,
			Expiring: expiring,
			Active:   active,
		})
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Receipts: recs})
}

// Add creates a receipt from a multipart form: a "payload" JSON part with
// the record fields and an optional "image" file part. A plain JSON body is
// accepted for records without a photo.
func (h *ReceiptsHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, common.ErrAuthRequired)
		return
	}

	payloadBytes, image, err := h.readAddRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := validateJSONAgainstSchema(h.payloadSchema, payloadBytes); err != nil {
		respondError(w, fmt.Errorf("%w: %s", common.ErrValidation, err))
		return
	}
	var payload addReceiptPayload
	if err := unmarshalStrict(payloadBytes, &payload); err != nil {
		respondError(w, fmt.Errorf("%w: %s", common.ErrValidation, err))
		return
	}

	expiry, err := time.ParseInLocation("2006-01-02", payload.WarrantyExpirationDate, time.UTC)
	if err != nil {
		respondError(w, fmt.Errorf("%w: warranty_expiration_date must be a valid date", common.ErrValidation))
		return
	}

	rec, err := h.receipts.Add(r.Context(), userID, receipts.AddReceiptRequest{
		ProductName:        payload.ProductName,
		Category:           payload.Category,
		WarrantyExpiration: expiry,
		Image:              image,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (h *ReceiptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, common.ErrAuthRequired)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, fmt.Errorf("%w: id must be a UUID", common.ErrValidation))
		return
	}

	if err := h.receipts.Delete(r.Context(), userID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the caller's receipts as an XLSX workbook.
func (h *ReceiptsHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, common.ErrAuthRequired)
		return
	}

	data, err := h.exporter.ExportReceiptsXLSX(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	filename := "garant-racuni-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

// readAddRequest extracts the payload JSON and the optional image file from
// either a multipart form or a plain JSON body.
func (h *ReceiptsHandler) readAddRequest(r *http.Request) ([]byte, *receipts.ImageUpload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: reading request body", common.ErrValidation)
		}
		return body, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid multipart form", common.ErrValidation)
	}

	payload := r.FormValue("payload")
	if payload == "" {
		return nil, nil, fmt.Errorf("%w: payload part is required", common.ErrValidation)
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return []byte(payload), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading image part", common.ErrValidation)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading image part", common.ErrValidation)
	}
	h.logger.Debug("image part received",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(data)))

	return []byte(payload), &receipts.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
