package contract

import (
	"context"

	"github.com/huangsam/gitreport/schema"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of the Repository interface.
type MockRepository struct {
	mock.Mock
}

var _ Repository = &MockRepository{} // Compile-time check

// Path implements the Repository interface.
func (m *MockRepository) Path() string {
	return m.Called().String(0)
}

// ResolveRef implements the Repository interface.
func (m *MockRepository) ResolveRef(ctx context.Context, ref string) (string, error) {
	ret := m.Called(ctx, ref)
	return ret.String(0), ret.Error(1)
}

// ReadCommit implements the Repository interface.
func (m *MockRepository) ReadCommit(ctx context.Context, id string) (schema.Commit, error) {
	ret := m.Called(ctx, id)
	commit, _ := ret.Get(0).(schema.Commit)
	return commit, ret.Error(1)
}

// Diff implements the Repository interface.
func (m *MockRepository) Diff(ctx context.Context, commit schema.Commit) ([]schema.FileChange, error) {
	ret := m.Called(ctx, commit)
	changes, _ := ret.Get(0).([]schema.FileChange)
	return changes, ret.Error(1)
}

// ListFilesAtRef implements the Repository interface.
func (m *MockRepository) ListFilesAtRef(ctx context.Context, ref string) ([]schema.FileEntry, error) {
	ret := m.Called(ctx, ref)
	files, _ := ret.Get(0).([]schema.FileEntry)
	return files, ret.Error(1)
}

// Origin implements the Repository interface.
func (m *MockRepository) Origin() string {
	return m.Called().String(0)
}

// Close implements the Repository interface.
func (m *MockRepository) Close() error {
	return m.Called().Error(0)
}
