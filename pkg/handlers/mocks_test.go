package handlers

import (
	"context"
	"io"

	"github.com/botslatam/admin-engine/pkg/models"
	"github.com/botslatam/admin-engine/pkg/services"
)

// mockUserService is a configurable mock for handler tests.
type mockUserService struct {
	user         *models.User
	users        []*models.User
	secret       string
	qr           []byte
	registerErr  error
	loginErr     error
	activateErr  error
	getErr       error
	listErr      error
	updateErr    error
	deleteErr    error
	capturedRole string
}

func (m *mockUserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.user, nil
}

func (m *mockUserService) Login(ctx context.Context, email, password, totpCode string) (*models.User, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.user, nil
}

func (m *mockUserService) Activate2FA(ctx context.Context, userID int64) (string, []byte, error) {
	if m.activateErr != nil {
		return "", nil, m.activateErr
	}
	return m.secret, m.qr, nil
}

func (m *mockUserService) Get(ctx context.Context, id int64) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserService) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.users, nil
}

func (m *mockUserService) Update(ctx context.Context, id int64, update services.UserUpdate, actorRole string) (*models.User, error) {
	m.capturedRole = actorRole
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.user, nil
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	return m.deleteErr
}

var _ services.UserService = (*mockUserService)(nil)

// mockUploadService is a configurable mock for handler tests.
type mockUploadService struct {
	preview    *models.PreviewData
	tables     map[string]models.TableDescriptor
	result     *models.IngestionResult
	descriptor *models.TableDescriptor

	previewErr error
	tablesErr  error
	insertErr  error
	createErr  error

	capturedFilename string
	capturedRequest  *services.InsertRequest
}

func (m *mockUploadService) Preview(ctx context.Context, filename string, size int64, r io.Reader) (*models.PreviewData, error) {
	m.capturedFilename = filename
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	return m.preview, nil
}

func (m *mockUploadService) Tables(ctx context.Context) (map[string]models.TableDescriptor, error) {
	if m.tablesErr != nil {
		return nil, m.tablesErr
	}
	return m.tables, nil
}

func (m *mockUploadService) Insert(ctx context.Context, req *services.InsertRequest) (*models.IngestionResult, error) {
	m.capturedRequest = req
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	return m.result, nil
}

func (m *mockUploadService) CreateTable(ctx context.Context, filename string, r io.Reader, tableName, displayName, description string) (*models.TableDescriptor, error) {
	m.capturedFilename = filename
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.descriptor, nil
}

var _ services.UploadService = (*mockUploadService)(nil)
