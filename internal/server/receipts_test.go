package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/auth"
	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/entity"
	"github.com/kombinator/garant/internal/export"
	"github.com/kombinator/garant/internal/receipts"
	"github.com/kombinator/garant/internal/repository"
)

// stubReceiptRepo is an in-memory repository.ReceiptRepository.
type stubReceiptRepo struct {
	mu   sync.Mutex
	rows []*entity.Receipt
}

func (s *stubReceiptRepo) Create(_ context.Context, req *repository.CreateReceiptRequest) (*entity.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &entity.Receipt{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		ProductName:        req.ProductName,
		Category:           req.Category,
		WarrantyExpiration: req.WarrantyExpiration,
		ImagePath:          req.ImagePath,
		CreatedAt:          time.Now(),
	}
	s.rows = append(s.rows, rec)
	return rec, nil
}

func (s *stubReceiptRepo) List(_ context.Context, userID uuid.UUID) ([]*entity.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Receipt
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].UserID == userID {
			copied := *s.rows[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *stubReceiptRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*entity.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id && r.UserID == userID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *stubReceiptRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id && r.UserID == userID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

// stubBlobStore records uploads and presigns deterministic URLs.
type stubBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: make(map[string][]byte)}
}

func (s *stubBlobStore) Upload(_ context.Context, key, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *stubBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *stubBlobStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/signed/" + key, nil
}

func newTestRouter(t *testing.T, userID uuid.UUID) (http.Handler, *stubReceiptRepo, *stubBlobStore) {
	t.Helper()
	repo := &stubReceiptRepo{}
	blobs := newStubBlobStore()
	logger := zap.NewNop()

	svc := receipts.NewService(repo, blobs, time.Hour, logger)
	exporter := export.NewService(svc, logger)
	handler := NewReceiptsHandler(svc, exporter, logger)
	notifications := NewNotificationsHandler(svc)

	r := chi.NewRouter()
	// Stand-in for the session middleware: pin the principal directly.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithUserID(req.Context(), userID)))
		})
	})
	handler.RegisterRoutes(r)
	notifications.RegisterRoutes(r)
	return r, repo, blobs
}

func multipartAdd(t *testing.T, payload string, imageName string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("payload", payload))
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAddReceipt_MultipartWithImage(t *testing.T) {
	userID := uuid.New()
	router, repo, blobs := newTestRouter(t, userID)

	payload := `{"product_name":"Samsung Galaxy S24","category":"Elektronika","warranty_expiration_date":"2026-01-15"}`
	body, contentType := multipartAdd(t, payload, "racun.jpg", []byte{0xff, 0xd8})

	req := httptest.NewRequest(http.MethodPost, "/receipts", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var rec entity.Receipt
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "Samsung Galaxy S24", rec.ProductName)
	assert.Equal(t, userID, rec.UserID)
	require.NotNil(t, rec.ImagePath)
	assert.Contains(t, *rec.ImagePath, userID.String()+"/")

	assert.Len(t, repo.rows, 1)
	assert.Len(t, blobs.objects, 1)
}

func TestAddReceipt_PlainJSONWithoutImage(t *testing.T) {
	userID := uuid.New()
	router, repo, _ := newTestRouter(t, userID)

	payload := `{"product_name":"Kauč","category":"Namještaj","warranty_expiration_date":"2025-06-01"}`
	req := httptest.NewRequest(http.MethodPost, "/receipts", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, repo.rows, 1)
	assert.Nil(t, repo.rows[0].ImagePath)
}

func TestAddReceipt_SchemaViolation(t *testing.T) {
	router, repo, _ := newTestRouter(t, uuid.New())

	// missing category, bad date shape
	payload := `{"product_name":"TV","warranty_expiration_date":"15.01.2026"}`
	req := httptest.NewRequest(http.MethodPost, "/receipts", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, repo.rows)
}

func TestListReceipts_GroupedAndSigned(t *testing.T) {
	userID := uuid.New()
	router, repo, _ := newTestRouter(t, userID)

	key := userID.String() + "/img.jpg"
	today := time.Now().UTC().Truncate(24 * time.Hour)
	repo.rows = []*entity.Receipt{
		{ID: uuid.New(), UserID: userID, ProductName: "Stari TV", WarrantyExpiration: today.AddDate(0, 0, -40), ImagePath: &key},
		{ID: uuid.New(), UserID: userID, ProductName: "Novi laptop", WarrantyExpiration: today.AddDate(0, 0, 300)},
		{ID: uuid.New(), UserID: userID, ProductName: "Bicikl", WarrantyExpiration: today.AddDate(0, 0, 10)},
	}

	req := httptest.NewRequest(http.MethodGet, "/receipts?grouped=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got groupedListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got.Expired, 1)
	assert.Len(t, got.Expiring, 1)
	assert.Len(t, got.Active, 1)
	assert.Equal(t, "https://s3.test/signed/"+key, got.Expired[0].ImageURL)
	assert.Equal(t, "expired", got.Expired[0].Status)
}

func TestDeleteReceipt_ForeignIDIsNotFound(t *testing.T) {
	userID := uuid.New()
	router, repo, _ := newTestRouter(t, userID)

	otherOwner := uuid.New()
	foreign := &entity.Receipt{ID: uuid.New(), UserID: otherOwner, WarrantyExpiration: time.Now()}
	repo.rows = []*entity.Receipt{foreign}

	req := httptest.NewRequest(http.MethodDelete, "/receipts/"+foreign.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, repo.rows, 1)
}

func TestDeleteReceipt_RemovesBlobAndRow(t *testing.T) {
	userID := uuid.New()
	router, repo, blobs := newTestRouter(t, userID)

	key := userID.String() + "/img.jpg"
	blobs.objects[key] = []byte{1}
	rec := &entity.Receipt{ID: uuid.New(), UserID: userID, ImagePath: &key, WarrantyExpiration: time.Now()}
	repo.rows = []*entity.Receipt{rec}

	req := httptest.NewRequest(http.MethodDelete, "/receipts/"+rec.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, repo.rows)
	assert.Empty(t, blobs.objects)
}

func TestNotifications_OnlyExpiringSorted(t *testing.T) {
	userID := uuid.New()
	router, repo, _ := newTestRouter(t, userID)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	repo.rows = []*entity.Receipt{
		{ID: uuid.New(), UserID: userID, ProductName: "Isteklo", WarrantyExpiration: today.AddDate(0, 0, -3)},
		{ID: uuid.New(), UserID: userID, ProductName: "Uskoro", WarrantyExpiration: today.AddDate(0, 0, 20)},
		{ID: uuid.New(), UserID: userID, ProductName: "Vrlo uskoro", WarrantyExpiration: today.AddDate(0, 0, 4)},
		{ID: uuid.New(), UserID: userID, ProductName: "Daleko", WarrantyExpiration: today.AddDate(0, 0, 120)},
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got notificationsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "Vrlo uskoro", got.Notifications[0].ProductName)
	assert.Equal(t, "Uskoro", got.Notifications[1].ProductName)
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	// A real auth service backed by an in-memory session store; no token
	// in the request means 401 before any handler runs.
	svc := auth.NewService(nil, noSessions{}, time.Hour, zap.NewNop())

	r := chi.NewRouter()
	r.Use(Authenticated(svc))
	r.Get("/receipts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/receipts", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

type noSessions struct{}

func (noSessions) Save(context.Context, string, uuid.UUID, time.Duration) error { return nil }
func (noSessions) Lookup(context.Context, string) (uuid.UUID, bool)             { return uuid.Nil, false }
func (noSessions) Delete(context.Context, string) error                         { return nil }
