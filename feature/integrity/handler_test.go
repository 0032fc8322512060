package integrity

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"hardware-manager/core/client"
	"hardware-manager/core/models"
	"hardware-manager/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, lister fakeLister) (*fiber.App, *mocks.Client) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	svc := NewService(lister, mockClient, testStorage, nil, zap.NewNop())
	NewHandler(svc).RegisterRoutes(app)
	return app, mockClient
}

func get(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestHandleStorageCheck(t *testing.T) {
	app, mockClient := setupTestApp(t, fakeLister{})

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	ch := make(chan minio.ObjectInfo)
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	status, body := get(t, app, "/integrity/storage")
	assert.Equal(t, 200, status)
	assert.Equal(t, "checked", body["status"])
	assert.NotEmpty(t, body["missing"])
}

func TestHandleStorageCheck_FixCreatesBucket(t *testing.T) {
	app, mockClient := setupTestApp(t, fakeLister{})

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)
	mockClient.On("MakeBucket", mock.Anything, "test-bucket", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
	mockClient.On("PutObject", mock.Anything, "test-bucket", "snapshots/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	status, body := get(t, app, "/integrity/storage?fix=true")
	assert.Equal(t, 200, status)
	assert.Equal(t, "fixed", body["status"])
	mockClient.AssertExpectations(t)
}

func TestHandleStorageCheck_MissingBucketWithoutFix(t *testing.T) {
	app, mockClient := setupTestApp(t, fakeLister{})
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)

	status, body := get(t, app, "/integrity/storage")
	assert.Equal(t, 500, status)
	assert.Contains(t, body["error"], "does not exist")
}

func TestHandleRemoteCheck(t *testing.T) {
	app, _ := setupTestApp(t, fakeLister{sets: []models.HardwareSet{{Name: "HWSet1", Available: 70, Capacity: 100}}})

	status, body := get(t, app, "/integrity/remote")
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["reachable"])
	assert.Equal(t, "ok", body["status"])
}

func TestHandleRemoteCheck_Rejected(t *testing.T) {
	app, _ := setupTestApp(t, fakeLister{err: &client.APIError{StatusCode: 500, Message: "boom"}})

	status, _ := get(t, app, "/integrity/remote")
	assert.Equal(t, 502, status)
}

func TestHandleSessionCheck_NoDatabase(t *testing.T) {
	app, _ := setupTestApp(t, fakeLister{})

	status, body := get(t, app, "/integrity/session")
	assert.Equal(t, 500, status)
	assert.Contains(t, body["error"], "nil")
}

func TestHandleIntegrityCheck(t *testing.T) {
	app, mockClient := setupTestApp(t, fakeLister{err: fmt.Errorf("%w: refused", client.ErrUnreachable)})

	// Fail BucketExists so the storage check reports an error.
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	status, body := get(t, app, "/integrity")
	assert.Equal(t, 200, status)

	remote := body["remote"].(map[string]any)
	assert.Equal(t, false, remote["reachable"])
	assert.Equal(t, "error", body["storage"].(map[string]any)["status"])
	assert.Equal(t, "error", body["session"].(map[string]any)["status"])
}

func TestLoader(t *testing.T) {
	feature := NewFeature(fakeLister{}, new(mocks.Client), testStorage, nil, zap.NewNop())

	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NotNil(t, feature.Service())
	assert.NoError(t, feature.Load(fiber.New()))
}
