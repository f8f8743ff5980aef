package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// MockDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindByRoleAndAvailability(ctx context.Context, role entity.Role, availability entity.Availability) ([]*entity.Agent, error) {
	args := m.Called(ctx, role, availability)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Agent), args.Error(1)
}

func (m *MockDirectory) FindByID(ctx context.Context, id string) (*entity.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Agent), args.Error(1)
}

func (m *MockDirectory) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Agent, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Agent), args.Error(1)
}

func setupCache(t *testing.T) (*AgentDirectoryCache, *MockDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	dir := new(MockDirectory)
	return NewAgentDirectoryCache(dir, client, 30*time.Second), dir, mr
}

var admins = []*entity.Agent{
	{ID: "admin-1", Role: entity.RoleAdmin, IsActive: true},
	{ID: "admin-2", Role: entity.RoleAdmin, IsActive: true},
}

func TestListByRole_HitsDatabaseOnce(t *testing.T) {
	c, dir, mr := setupCache(t)
	ctx := context.Background()
	dir.On("ListByRole", mock.Anything, entity.RoleAdmin).Return(admins, nil).Once()

	first, err := c.ListByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)
	second, err := c.ListByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, admins, first)
	assert.Equal(t, admins, second)
	assert.True(t, mr.Exists("leads:agents:role:admin"))
	assert.Equal(t, 30*time.Second, mr.TTL("leads:agents:role:admin"))
	dir.AssertExpectations(t)
}

func TestListByRole_InvalidateAndExpiry(t *testing.T) {
	c, dir, mr := setupCache(t)
	ctx := context.Background()
	dir.On("ListByRole", mock.Anything, entity.RoleAdmin).Return(admins, nil).Times(3)

	_, err := c.ListByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, entity.RoleAdmin))
	_, err = c.ListByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)
	_, err = c.ListByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)

	dir.AssertExpectations(t)
}

func TestListByRole_CorruptEntryIsReloaded(t *testing.T) {
	c, dir, mr := setupCache(t)
	require.NoError(t, mr.Set("leads:agents:role:admin", "{não é json"))
	dir.On("ListByRole", mock.Anything, entity.RoleAdmin).Return(admins, nil).Once()

	got, err := c.ListByRole(context.Background(), entity.RoleAdmin)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	dir.AssertExpectations(t)
}

func TestListByRole_RedisDownFallsBackToDatabase(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	dir := new(MockDirectory)
	dir.On("ListByRole", mock.Anything, entity.RoleAdmin).Return(admins, nil)
	c := NewAgentDirectoryCache(dir, client, time.Minute)

	got, err := c.ListByRole(context.Background(), entity.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, admins, got)
	dir.AssertNumberOfCalls(t, "ListByRole", 1)
}

func TestPassThroughLookups(t *testing.T) {
	c, dir, mr := setupCache(t)
	ctx := context.Background()
	seller := &entity.Agent{ID: "s-1", Role: entity.RoleSeller}
	dir.On("FindByID", mock.Anything, "s-1").Return(seller, nil)
	dir.On("FindByRoleAndAvailability", mock.Anything, entity.RoleSeller, entity.AvailabilityAvailable).
		Return([]*entity.Agent{seller}, nil)

	got, err := c.FindByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Same(t, seller, got)

	list, err := c.FindByRoleAndAvailability(ctx, entity.RoleSeller, entity.AvailabilityAvailable)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Empty(t, mr.Keys())
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "http://nope")
	assert.Error(t, err)
}
