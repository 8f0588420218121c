package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	docs  []Document
	err   error
	calls int
}

func (f *fakeSource) Documents(ctx context.Context) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Document(nil), f.docs...), nil
}

func newTestIndex(t *testing.T, source CorpusSource, opts Options) *Index {
	t.Helper()
	tokenizer, err := NewTokenizer()
	require.NoError(t, err)
	ix, err := NewIndex(source, tokenizer, opts, nil)
	require.NoError(t, err)
	return ix
}

func sleepDietCorpus() []Document {
	return []Document{
		{ID: 1, Title: "sleep and stress", Abstract: "sleep duration affects stress"},
		{ID: 2, Title: "diet habits", Abstract: "dietary habits and mood"},
	}
}

func TestTokenizer_DropsStopWordsAndShortTokens(t *testing.T) {
	tokenizer, err := NewTokenizer()
	require.NoError(t, err)

	tokens := tokenizer.Tokens("The Sleep and a Stress of X students")
	assert.Equal(t, []string{"sleep", "stress", "students"}, tokens)
}

func TestTerms_BuildsBigramsAfterStopWordRemoval(t *testing.T) {
	assert.Nil(t, terms(nil))
	assert.Equal(t, []string{"sleep"}, terms([]string{"sleep"}))
	assert.Equal(t,
		[]string{"sleep", "duration", "stress", "sleep duration", "duration stress"},
		terms([]string{"sleep", "duration", "stress"}))
}

func TestFit_EmptyCorpusFails(t *testing.T) {
	ix := newTestIndex(t, nil, Options{})

	assert.False(t, ix.Fit(nil))
	assert.Equal(t, StateUnfitted, ix.Status().State)
}

func TestFit_EmptyCorpusKeepsPreviousState(t *testing.T) {
	ix := newTestIndex(t, nil, Options{})
	require.True(t, ix.Fit(sleepDietCorpus()))
	before := ix.Status()

	assert.False(t, ix.Fit([]Document{}))
	after := ix.Status()
	assert.Equal(t, StateFitted, after.State)
	assert.Equal(t, before.Generation, after.Generation)
}

func TestSearch_ConcreteScenarioExcludesZeroScores(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{docs: sleepDietCorpus()}, Options{})

	results, err := ix.Search(context.Background(), "sleep stress", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(1), results[0].ID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearch_NoOverlapReturnsEmpty(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{docs: sleepDietCorpus()}, Options{})

	results, err := ix.Search(context.Background(), "quantum chromodynamics", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_VerbatimDocumentRanksFirst(t *testing.T) {
	corpus := []Document{
		{ID: 1, Title: "sleep and stress", Abstract: "sleep duration affects stress among students"},
		{ID: 2, Title: "diet habits", Abstract: "dietary habits and mood in university students"},
		{ID: 3, Title: "financial stress", Abstract: "financial stress predicts depression", Introduction: "money worries"},
		{ID: 4, Title: "academic pressure", Abstract: "academic pressure and cgpa"},
	}
	ix := newTestIndex(t, &fakeSource{docs: corpus}, Options{})

	for _, doc := range corpus {
		t.Run(doc.Title, func(t *testing.T) {
			results, err := ix.Search(context.Background(), doc.Text(), len(corpus))
			require.NoError(t, err)
			require.NotEmpty(t, results)

			var own float64
			for _, r := range results {
				if r.ID == doc.ID {
					own = r.Score
				}
			}
			assert.InDelta(t, results[0].Score, own, 1e-9)
			assert.InDelta(t, 1.0, own, 1e-9)
		})
	}
}

func TestSearch_TiesKeepCorpusOrder(t *testing.T) {
	corpus := []Document{
		{ID: 9, Title: "sleep quality"},
		{ID: 3, Title: "unrelated topic"},
		{ID: 5, Title: "sleep quality"},
		{ID: 1, Title: "sleep quality"},
	}
	ix := newTestIndex(t, nil, Options{})
	require.True(t, ix.Fit(corpus))

	results, err := ix.Search(context.Background(), "sleep quality", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []uint{9, 5, 1}, []uint{results[0].ID, results[1].ID, results[2].ID})
}

func TestSearch_IdenticalLongDocumentsKeepCorpusOrder(t *testing.T) {
	words := make([]string, 0, 180)
	for i := 0; i < 180; i++ {
		word := fmt.Sprintf("topic%03d", i)
		for r := 0; r <= i%4; r++ {
			words = append(words, word)
		}
	}
	text := strings.Join(words, " ")

	ids := []uint{11, 4, 27, 8, 15, 2}
	corpus := make([]Document, 0, len(ids)+1)
	for _, id := range ids {
		corpus = append(corpus, Document{ID: id, Title: "survey", Abstract: text})
	}
	corpus = append(corpus, Document{ID: 99, Title: "unrelated filler", Abstract: "topic000 nutrition"})

	for run := 0; run < 50; run++ {
		ix := newTestIndex(t, nil, Options{})
		require.True(t, ix.Fit(corpus))

		results, err := ix.Search(context.Background(), "survey "+text, len(ids))
		require.NoError(t, err)
		require.Len(t, results, len(ids))
		for i, r := range results {
			assert.Equal(t, ids[i], r.ID)
			assert.Equal(t, results[0].Score, r.Score)
		}
	}
}

func TestSparseVector_Dot(t *testing.T) {
	a := sparseVector{idx: []int{0, 3, 7}, val: []float64{1, 2, 3}}
	b := sparseVector{idx: []int{3, 5, 7, 9}, val: []float64{4, 1, 0.5, 2}}

	assert.InDelta(t, 9.5, a.dot(b), 1e-12)
	assert.Equal(t, a.dot(b), b.dot(a))
	assert.Zero(t, a.dot(sparseVector{}))
	assert.True(t, sparseVector{}.empty())
}

func TestSearch_RespectsLimit(t *testing.T) {
	corpus := []Document{
		{ID: 1, Title: "stress"},
		{ID: 2, Title: "stress stress"},
		{ID: 3, Title: "stress and sleep"},
	}
	ix := newTestIndex(t, nil, Options{})
	require.True(t, ix.Fit(corpus))

	results, err := ix.Search(context.Background(), "stress", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = ix.Search(context.Background(), "stress", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_UnseenQueryTermsAreDropped(t *testing.T) {
	ix := newTestIndex(t, nil, Options{})
	require.True(t, ix.Fit(sleepDietCorpus()))

	plain, err := ix.Search(context.Background(), "sleep", 5)
	require.NoError(t, err)
	noisy, err := ix.Search(context.Background(), "sleep quantum", 5)
	require.NoError(t, err)

	require.Len(t, plain, 1)
	require.Len(t, noisy, 1)
	assert.InDelta(t, plain[0].Score, noisy[0].Score, 1e-12)
}

func TestSearch_AutoFitOnFirstQuery(t *testing.T) {
	source := &fakeSource{docs: sleepDietCorpus()}
	ix := newTestIndex(t, source, Options{})
	assert.Equal(t, StateUnfitted, ix.Status().State)

	_, err := ix.Search(context.Background(), "sleep", 5)
	require.NoError(t, err)
	_, err = ix.Search(context.Background(), "diet", 5)
	require.NoError(t, err)

	assert.Equal(t, StateFitted, ix.Status().State)
	assert.Equal(t, 1, source.calls)
}

func TestSearch_AutoFitOnEmptyCorpusReturnsEmpty(t *testing.T) {
	source := &fakeSource{}
	ix := newTestIndex(t, source, Options{})

	results, err := ix.Search(context.Background(), "sleep", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, StateUnfitted, ix.Status().State)

	source.docs = sleepDietCorpus()
	results, err = ix.Search(context.Background(), "sleep", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, source.calls)
}

func TestSearch_SourceErrorIsReturned(t *testing.T) {
	ix := newTestIndex(t, &fakeSource{err: errors.New("db down")}, Options{})

	_, err := ix.Search(context.Background(), "sleep", 5)
	assert.Error(t, err)
	assert.Equal(t, StateUnfitted, ix.Status().State)
}

func TestRefit_ReplacesStateWholesale(t *testing.T) {
	source := &fakeSource{docs: sleepDietCorpus()}
	ix := newTestIndex(t, source, Options{CacheSize: 8})

	results, err := ix.Search(context.Background(), "mood", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(2), results[0].ID)

	source.docs = []Document{{ID: 7, Title: "mood disorders"}}
	ok, err := ix.Refit(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	results, err = ix.Search(context.Background(), "mood", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(7), results[0].ID)
	assert.Equal(t, 1, ix.Status().Documents)
}

func TestFit_VocabularyCap(t *testing.T) {
	ix := newTestIndex(t, nil, Options{MaxFeatures: 2})
	require.True(t, ix.Fit([]Document{
		{ID: 1, Title: "stress stress stress sleep sleep mood"},
		{ID: 2, Title: "stress sleep diet"},
	}))

	status := ix.Status()
	assert.Equal(t, 2, status.Vocabulary)

	// "diet" fell outside the vocabulary, so it cannot match anything.
	results, err := ix.Search(context.Background(), "diet", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_AbstractPreview(t *testing.T) {
	long := strings.Repeat("a", 295) + " stress words"
	ix := newTestIndex(t, nil, Options{})
	require.True(t, ix.Fit([]Document{
		{ID: 1, Title: "stress", Abstract: long},
		{ID: 2, Title: "stress too"},
	}))

	results, err := ix.Search(context.Background(), "stress", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[uint]Result{}
	for _, r := range results {
		byID[r.ID] = r
	}
	require.NotNil(t, byID[1].Abstract)
	assert.Equal(t, 303, len([]rune(*byID[1].Abstract)))
	assert.True(t, strings.HasSuffix(*byID[1].Abstract, "..."))
	assert.Nil(t, byID[2].Abstract)
}

func TestPreview(t *testing.T) {
	assert.Nil(t, Preview("   ", 300))
	assert.Equal(t, "short", *Preview("short", 300))
	assert.Equal(t, "ab...", *Preview("abc", 2))
	assert.Equal(t, "数据...", *Preview("数据分析", 2))
}

func TestSearch_ConcurrentReadersDuringRefit(t *testing.T) {
	source := &fakeSource{docs: sleepDietCorpus()}
	ix := newTestIndex(t, source, Options{CacheSize: 4})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				results, err := ix.Search(context.Background(), "sleep stress", 5)
				assert.NoError(t, err)
				assert.Len(t, results, 1)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := ix.Refit(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}
