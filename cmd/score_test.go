package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnswerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "score"}
	cmd.Flags().String("answers", "", "")
	cmd.Flags().StringArray("answer", nil, "")
	return cmd
}

func TestCollectAnswers_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"age":"I'm 28","horizon":"20 years"}`), 0o644))

	cmd := newAnswerCmd()
	require.NoError(t, cmd.Flags().Set("answers", path))

	answers, err := collectAnswers(cmd)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"age": "I'm 28", "horizon": "20 years"}, answers)
}

func TestCollectAnswers_Inline(t *testing.T) {
	cmd := newAnswerCmd()
	require.NoError(t, cmd.Flags().Set("answer", "age=I'm 28"))
	require.NoError(t, cmd.Flags().Set("answer", "goal=retirement savings"))

	answers, err := collectAnswers(cmd)
	require.NoError(t, err)
	assert.Equal(t, "I'm 28", answers["age"])
	assert.Equal(t, "retirement savings", answers["goal"])
}

func TestCollectAnswers_InlineOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"age":"from file"}`), 0o644))

	cmd := newAnswerCmd()
	require.NoError(t, cmd.Flags().Set("answers", path))
	require.NoError(t, cmd.Flags().Set("answer", "age=inline wins"))

	answers, err := collectAnswers(cmd)
	require.NoError(t, err)
	assert.Equal(t, "inline wins", answers["age"])
}

func TestCollectAnswers_Malformed(t *testing.T) {
	cmd := newAnswerCmd()
	require.NoError(t, cmd.Flags().Set("answer", "no-separator"))

	_, err := collectAnswers(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id=text")
}

func TestCollectAnswers_Empty(t *testing.T) {
	_, err := collectAnswers(newAnswerCmd())
	assert.Error(t, err)
}

func TestCollectAnswers_MissingFile(t *testing.T) {
	cmd := newAnswerCmd()
	require.NoError(t, cmd.Flags().Set("answers", filepath.Join(t.TempDir(), "nope.json")))

	_, err := collectAnswers(cmd)
	assert.Error(t, err)
}
