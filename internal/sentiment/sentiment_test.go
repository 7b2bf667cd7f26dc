package sentiment

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvista/advisor-cli/internal/classify"
	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/pkg/reddit"
	"github.com/finvista/advisor-cli/pkg/youtube"
)

type fakeReddit struct {
	posts []reddit.Post
	err   error
}

func (f *fakeReddit) Search(context.Context, string, string, int) ([]reddit.Post, error) {
	return f.posts, f.err
}

type fakeYouTube struct {
	videos []youtube.Video
	err    error
}

func (f *fakeYouTube) Search(context.Context, string, int) ([]youtube.Video, error) {
	return f.videos, f.err
}

// toneByKeyword classifies bullish/bearish by a marker word in the text.
func toneByKeyword() classify.Classifier {
	return classify.Func(func(_ context.Context, text string, _ []string) (model.Distribution, error) {
		switch {
		case strings.Contains(text, "rally"):
			return model.Distribution{"positive": 0.9, "neutral": 0.1, "negative": 0}, nil
		case strings.Contains(text, "crash"):
			return model.Distribution{"positive": 0, "neutral": 0.1, "negative": 0.9}, nil
		default:
			return model.Distribution{"positive": 0.2, "neutral": 0.6, "negative": 0.2}, nil
		}
	})
}

func TestScore_BlendsPolarityAndBeta(t *testing.T) {
	rc := &fakeReddit{posts: []reddit.Post{
		{Title: "huge rally incoming"},
		{Title: "total crash expected"},
	}}
	s := New(toneByKeyword(), rc, nil, Options{})

	score, err := s.Score(context.Background(), "RELIANCE", 1.0)
	require.NoError(t, err)
	assert.False(t, score.BetaOnly)
	assert.Equal(t, 2, score.Items)
	// Polarities +0.9 and -0.9 cancel to 0.
	assert.InDelta(t, 0, score.MeanPolarity, 1e-9)
	// 0.5*(1/2) + 0.5*(1-0)/2 = 0.5.
	assert.InDelta(t, 0.5, score.Score, 1e-9)
}

func TestScore_BearishChatterRaisesRisk(t *testing.T) {
	bearish := &fakeReddit{posts: []reddit.Post{{Title: "crash"}, {Title: "another crash"}}}
	bullish := &fakeReddit{posts: []reddit.Post{{Title: "rally"}, {Title: "rally again"}}}

	low, err := New(toneByKeyword(), bullish, nil, Options{}).Score(context.Background(), "X", 1.0)
	require.NoError(t, err)
	high, err := New(toneByKeyword(), bearish, nil, Options{}).Score(context.Background(), "X", 1.0)
	require.NoError(t, err)

	assert.Greater(t, high.Score, low.Score)
}

func TestScore_CombinesBothSources(t *testing.T) {
	rc := &fakeReddit{posts: []reddit.Post{{Title: "rally"}}}
	yc := &fakeYouTube{videos: []youtube.Video{{Title: "crash analysis", Description: "why it fell"}}}

	score, err := New(toneByKeyword(), rc, yc, Options{}).Score(context.Background(), "TCS", 1.2)
	require.NoError(t, err)
	assert.Equal(t, 2, score.Items)
}

func TestScore_FailedSourceDegrades(t *testing.T) {
	rc := &fakeReddit{err: eris.New("reddit down")}
	yc := &fakeYouTube{videos: []youtube.Video{{Title: "rally"}}}

	score, err := New(toneByKeyword(), rc, yc, Options{}).Score(context.Background(), "TCS", 1.0)
	require.NoError(t, err)
	assert.False(t, score.BetaOnly)
	assert.Equal(t, 1, score.Items)
}

func TestScore_BetaOnlyWhenNoItems(t *testing.T) {
	rc := &fakeReddit{err: eris.New("reddit down")}
	yc := &fakeYouTube{err: eris.New("youtube down")}

	score, err := New(toneByKeyword(), rc, yc, Options{}).Score(context.Background(), "TCS", 1.5)
	require.NoError(t, err)
	assert.True(t, score.BetaOnly)
	assert.Zero(t, score.Items)
	// Beta-only risk is min(beta, 2)/2.
	assert.InDelta(t, 0.75, score.Score, 1e-9)
}

func TestScore_ClassifierFailuresDropItems(t *testing.T) {
	failing := classify.Func(func(context.Context, string, []string) (model.Distribution, error) {
		return nil, eris.New("classifier down")
	})
	rc := &fakeReddit{posts: []reddit.Post{{Title: "rally"}}}

	score, err := New(failing, rc, nil, Options{}).Score(context.Background(), "TCS", 1.0)
	require.NoError(t, err)
	assert.True(t, score.BetaOnly)
}

func TestScore_EmptyTicker(t *testing.T) {
	s := New(toneByKeyword(), &fakeReddit{}, nil, Options{})

	_, err := s.Score(context.Background(), "", 1.0)
	assert.Error(t, err)

	_, err = s.Score(context.Background(), "   ", 1.0)
	assert.Error(t, err)
}

func TestScore_BetaCapped(t *testing.T) {
	score, err := New(toneByKeyword(), &fakeReddit{}, nil, Options{}).Score(context.Background(), "WILD", 5.0)
	require.NoError(t, err)
	// min(5, 2)/2 = 1.
	assert.InDelta(t, 1.0, score.Score, 1e-9)
}

func TestScore_ClampedToUnitInterval(t *testing.T) {
	score, err := New(toneByKeyword(), &fakeReddit{posts: []reddit.Post{{Title: "crash"}}}, nil, Options{}).Score(context.Background(), "X", 3.0)
	require.NoError(t, err)
	assert.LessOrEqual(t, score.Score, 1.0)
	assert.GreaterOrEqual(t, score.Score, 0.0)

	neg, err := New(toneByKeyword(), &fakeReddit{}, nil, Options{}).Score(context.Background(), "X", -1.0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, neg.Score, 0.0)
}

func TestScore_WeightsRenormalized(t *testing.T) {
	rc := &fakeReddit{posts: []reddit.Post{{Title: "meh"}}}
	opts := Options{BetaWeight: 2, SentimentWeight: 2}

	score, err := New(toneByKeyword(), rc, nil, opts).Score(context.Background(), "X", 2.0)
	require.NoError(t, err)
	// 0.5*1 + 0.5*(1-0)/2 = 0.75.
	assert.InDelta(t, 0.75, score.Score, 1e-9)
}

func TestDescribe(t *testing.T) {
	s := &model.SentimentScore{Ticker: "TCS", Beta: 1.1, Score: 0.42, MeanPolarity: 0.3, Items: 7}
	assert.Contains(t, Describe(s), "TCS")
	assert.Contains(t, Describe(s), "0.420")

	s.BetaOnly = true
	assert.Contains(t, Describe(s), "no chatter")
}
