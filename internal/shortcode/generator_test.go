package shortcode

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"
	"shorturl-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	mu    sync.Mutex
	calls int
	taken map[string]bool
	err   error
}

func (s *stubChecker) Exists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.taken[code], nil
}

// zeroReader 始终返回 0 字节，使生成结果固定为 "0000000"
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestGenerate_FormatAndAlphabet(t *testing.T) {
	g := NewGenerator(&stubChecker{}, nil, zap.NewNop().Sugar())

	for i := 0; i < 100; i++ {
		code, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		assert.True(t, Valid(code), "短码 %q 含有非 base62 字符", code)
	}
}

func TestGenerate_ExhaustedWhenEveryCodeTaken(t *testing.T) {
	checker := &stubChecker{taken: map[string]bool{"0000000": true}}
	g := NewGenerator(checker, zeroReader{}, zap.NewNop().Sugar())

	code, err := g.Generate(context.Background())
	assert.Empty(t, code)
	assert.ErrorIs(t, err, errs.ErrGenerationExhausted)
	assert.Equal(t, MaxAttempts, checker.calls)
}

func TestGenerate_StoreFailureIsNotTreatedAsFree(t *testing.T) {
	storeErr := errors.New("connection refused")
	checker := &stubChecker{err: storeErr}
	g := NewGenerator(checker, nil, zap.NewNop().Sugar())

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, errs.ErrGenerationExhausted)
	assert.ErrorIs(t, err, storeErr)
}

func TestGenerate_RandomSourceFailure(t *testing.T) {
	g := NewGenerator(&stubChecker{}, bytes.NewReader(nil), zap.NewNop().Sugar())

	_, err := g.Generate(context.Background())
	assert.Error(t, err)
}

func TestGenerate_UniqueUnderConcurrency(t *testing.T) {
	store := testutil.NewStore(t)
	owner := testutil.CreateUser(t, store, "alice")
	g := NewGenerator(store.Mappings(), nil, zap.NewNop().Sugar())

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	errCh := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				code, err := g.Generate(context.Background())
				if err != nil {
					errCh <- err
					continue
				}
				errCh <- store.Mappings().Insert(context.Background(), &model.URLMapping{
					ShortCode:   code,
					OriginalURL: "https://example.com",
					UserID:      owner.ID,
				})
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}
	mappings, err := store.Mappings().FindByOwner(context.Background(), owner.ID)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, m := range mappings {
		assert.False(t, seen[m.ShortCode], "短码重复: %s", m.ShortCode)
		seen[m.ShortCode] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
