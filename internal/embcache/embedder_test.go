package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return data, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	inner := new(MockEmbedder)
	store := newMemStore()
	cached := New(inner, store, nil, nil)

	ctx := context.Background()
	vec := []float32{0.1, 0.2, 0.3}
	inner.On("CreateEmbedding", ctx, "zoning laws").Return(vec, nil).Once()

	first, err := cached.CreateEmbedding(ctx, "zoning laws")
	require.NoError(t, err)
	assert.Equal(t, vec, first)

	// Second call is served from the cache; the inner embedder is not hit again.
	second, err := cached.CreateEmbedding(ctx, "zoning laws")
	require.NoError(t, err)
	assert.Equal(t, vec, second)
	inner.AssertExpectations(t)
}

func TestCachedEmbedder_DistinctTextsDistinctKeys(t *testing.T) {
	inner := new(MockEmbedder)
	store := newMemStore()
	cached := New(inner, store, nil, nil)

	ctx := context.Background()
	inner.On("CreateEmbedding", ctx, "zoning").Return([]float32{1}, nil).Once()
	inner.On("CreateEmbedding", ctx, "parking").Return([]float32{2}, nil).Once()

	a, err := cached.CreateEmbedding(ctx, "zoning")
	require.NoError(t, err)
	b, err := cached.CreateEmbedding(ctx, "parking")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, store.data, 2)
}

func TestCachedEmbedder_StoreGetFailureFallsThrough(t *testing.T) {
	inner := new(MockEmbedder)
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	cached := New(inner, store, nil, nil)

	ctx := context.Background()
	vec := []float32{0.5}
	inner.On("CreateEmbedding", ctx, "zoning").Return(vec, nil)

	got, err := cached.CreateEmbedding(ctx, "zoning")
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestCachedEmbedder_StoreSetFailureIsSilent(t *testing.T) {
	inner := new(MockEmbedder)
	store := newMemStore()
	store.setErr = errors.New("read-only replica")
	cached := New(inner, store, nil, nil)

	ctx := context.Background()
	inner.On("CreateEmbedding", ctx, "zoning").Return([]float32{0.5}, nil)

	_, err := cached.CreateEmbedding(ctx, "zoning")
	assert.NoError(t, err)
}

func TestCachedEmbedder_InnerErrorPropagates(t *testing.T) {
	inner := new(MockEmbedder)
	cached := New(inner, newMemStore(), nil, nil)

	ctx := context.Background()
	inner.On("CreateEmbedding", ctx, "zoning").Return(nil, errors.New("rate limited"))

	_, err := cached.CreateEmbedding(ctx, "zoning")
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75}

	got, err := bytesToVector(vectorToCacheBytes(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestBytesToVector_InvalidLength(t *testing.T) {
	_, err := bytesToVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
