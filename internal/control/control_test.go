package control

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"transflow/internal/database"
	"transflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain opens an in-memory database so handleHealthz's database.HealthCheck
// call has a real connection to ping, matching how cmd/server wires it.
func TestMain(m *testing.M) {
	if err := database.Initialize(":memory:"); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = database.Close()
	os.Exit(code)
}

type fakeStore struct {
	active     []models.Job
	userJobs   []models.Job
	lastUserID int64
	job        *models.Job
	cancelled  bool
}

func (f *fakeStore) ListUserReadyOrActive(userID int64) ([]models.Job, error) {
	f.lastUserID = userID
	return f.userJobs, nil
}
func (f *fakeStore) ListActive() ([]models.Job, error) { return f.active, nil }
func (f *fakeStore) Get(id uint) (*models.Job, error)  { return f.job, nil }
func (f *fakeStore) Cancel(id uint) (bool, error)      { return f.cancelled, nil }

func TestHealthzRequiresNoAuth(t *testing.T) {
	s := New(&fakeStore{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueueRequiresBearerToken(t *testing.T) {
	s := New(&fakeStore{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueWithValidTokenSucceeds(t *testing.T) {
	store := &fakeStore{active: []models.Job{{ID: 1}}}
	s := New(store, "secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzReportsErrorWhenDatabaseUnreachable(t *testing.T) {
	require.NoError(t, database.Close())
	defer func() { require.NoError(t, database.Initialize(":memory:")) }()

	s := New(&fakeStore{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQueueWithUserIDFiltersByUser(t *testing.T) {
	store := &fakeStore{userJobs: []models.Job{{ID: 5}}}
	s := New(store, "secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue?user_id=42", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), store.lastUserID)
	assert.Contains(t, rec.Body.String(), `"id":5`)
}

func TestCancelJob(t *testing.T) {
	store := &fakeStore{cancelled: true}
	s := New(store, "secret")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/7/cancel", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cancelled":true`)
}
