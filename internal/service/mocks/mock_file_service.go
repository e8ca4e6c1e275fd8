package mocks

import (
	"context"

	"fileshare/internal/model"
	"fileshare/internal/policy"
	"fileshare/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, actor *model.User, in service.UploadInput) (*model.File, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, actor *model.User, scope policy.Scope) ([]model.FileSummary, error) {
	args := m.Called(ctx, actor, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileSummary), args.Error(1)
}

func (m *MockFileService) SetAccessGrant(ctx context.Context, actor *model.User, id int64, granted bool) (*model.File, error) {
	args := m.Called(ctx, actor, id, granted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, actor *model.User, id int64) (*service.Download, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, actor *model.User, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
