package database

import (
	"github.com/stretchr/testify/mock"
)

type MockFlatFinderRepository struct {
	mock.Mock
}

func (m *MockFlatFinderRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockFlatFinderRepository) CreateIdentity(email, passwordHash string) (Identity, error) {
	args := m.Called(email, passwordHash)
	return args.Get(0).(Identity), args.Error(1)
}
func (m *MockFlatFinderRepository) GetIdentityByEmail(email string) (Identity, error) {
	args := m.Called(email)
	return args.Get(0).(Identity), args.Error(1)
}
func (m *MockFlatFinderRepository) UpdateIdentityPassword(identityId int, passwordHash string) error {
	args := m.Called(identityId, passwordHash)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) DeleteIdentity(identityId int) error {
	args := m.Called(identityId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) CreateProfile(params CreateProfileParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockFlatFinderRepository) GetProfile(userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockFlatFinderRepository) UpdateProfile(params UpdateProfileParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockFlatFinderRepository) DeleteProfile(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) ListProfiles() ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockFlatFinderRepository) GrantAdmin(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) CreateFlat(params CreateFlatParams) (Flat, error) {
	args := m.Called(params)
	return args.Get(0).(Flat), args.Error(1)
}
func (m *MockFlatFinderRepository) GetFlatByExternalId(externalId string) (Flat, error) {
	args := m.Called(externalId)
	return args.Get(0).(Flat), args.Error(1)
}
func (m *MockFlatFinderRepository) ListFlats() ([]Flat, error) {
	args := m.Called()
	return args.Get(0).([]Flat), args.Error(1)
}
func (m *MockFlatFinderRepository) ListFlatsByOwner(ownerId int) ([]Flat, error) {
	args := m.Called(ownerId)
	return args.Get(0).([]Flat), args.Error(1)
}
func (m *MockFlatFinderRepository) ListFavoriteFlats(userId int) ([]Flat, error) {
	args := m.Called(userId)
	return args.Get(0).([]Flat), args.Error(1)
}
func (m *MockFlatFinderRepository) UpdateFlat(params UpdateFlatParams) (Flat, error) {
	args := m.Called(params)
	return args.Get(0).(Flat), args.Error(1)
}
func (m *MockFlatFinderRepository) DeleteFlat(flatId int) error {
	args := m.Called(flatId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) AddFavorite(flatId, userId int) error {
	args := m.Called(flatId, userId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) RemoveFavorite(flatId, userId int) error {
	args := m.Called(flatId, userId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockFlatFinderRepository) GetMessageByExternalId(externalId string) (Message, error) {
	args := m.Called(externalId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockFlatFinderRepository) ListInbox(recipientId int) ([]Message, error) {
	args := m.Called(recipientId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockFlatFinderRepository) ListSent(senderId int) ([]Message, error) {
	args := m.Called(senderId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockFlatFinderRepository) MarkMessageRead(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) DeleteMessage(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockFlatFinderRepository) UnreadCount(recipientId int) (int, error) {
	args := m.Called(recipientId)
	return args.Int(0), args.Error(1)
}
