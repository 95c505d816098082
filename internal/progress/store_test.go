package progress_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-portal/internal/db/dbtest"
	"github.com/mind-engage/mindengage-portal/internal/progress"
)

func stores(t *testing.T) map[string]progress.Store {
	return map[string]progress.Store{
		"memory": progress.NewMemoryStore(),
		"sql":    progress.NewSQLStore(dbtest.Open(t)),
	}
}

func TestStoreDefaultRecord(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			scope := progress.Scope{Kind: progress.KindCourse, Key: "cs-201"}
			r, err := st.Get(context.Background(), "s1", scope)
			require.NoError(t, err)
			assert.Equal(t, progress.NewRecord("s1", scope), r)
		})
	}
}

func TestStoreSaveAndRead(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			scope := progress.Scope{Kind: progress.KindSubject, Key: "physics"}
			r := progress.NewRecord("s1", scope)
			r.Easy = progress.TierStats{TotalQuestions: 5, CorrectAnswers: 4, Unlocked: true}
			r.Medium.Unlocked = true
			r.UpdatedAt = 1700000000
			require.NoError(t, st.Save(ctx, r))

			first, err := st.Get(ctx, "s1", scope)
			require.NoError(t, err)
			second, err := st.Get(ctx, "s1", scope)
			require.NoError(t, err)
			assert.Equal(t, r, first)
			assert.Equal(t, first, second)

			// last write wins
			r.Easy.TotalQuestions = 10
			require.NoError(t, st.Save(ctx, r))
			got, err := st.Get(ctx, "s1", scope)
			require.NoError(t, err)
			assert.Equal(t, 10, got.Easy.TotalQuestions)

			other := progress.NewRecord("s1", progress.Scope{Kind: progress.KindCourse, Key: "cs-201"})
			require.NoError(t, st.Save(ctx, other))
			list, err := st.List(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, progress.KindCourse, list[0].Scope.Kind)

			none, err := st.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStoreUnlockFlagsStaySet(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			scope := progress.Scope{Kind: progress.KindSubject, Key: "math101"}

			unlocked := progress.NewRecord("s1", scope)
			unlocked.Easy = progress.TierStats{TotalQuestions: 5, CorrectAnswers: 5, Unlocked: true}
			unlocked.Medium.Unlocked = true
			unlocked.Hard.Unlocked = true
			require.NoError(t, st.Save(ctx, unlocked))

			// a racing writer that read the record before the unlock
			stale := progress.NewRecord("s1", scope)
			stale.Easy = progress.TierStats{TotalQuestions: 7, CorrectAnswers: 6, Unlocked: true}
			require.NoError(t, st.Save(ctx, stale))

			got, err := st.Get(ctx, "s1", scope)
			require.NoError(t, err)
			assert.Equal(t, 7, got.Easy.TotalQuestions)
			assert.True(t, got.Medium.Unlocked)
			assert.True(t, got.Hard.Unlocked)
		})
	}
}
