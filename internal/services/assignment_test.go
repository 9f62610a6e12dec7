package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpStrategy(t *testing.T) {
	current := "dev@localhost"
	out := NoOpStrategy{}.Assign(context.Background(), "translation", &current)
	require.NotNil(t, out)
	assert.Equal(t, "dev@localhost", *out)

	assert.Nil(t, NoOpStrategy{}.Assign(context.Background(), "translation", nil))
}

func TestRoleLookupStrategy(t *testing.T) {
	ctx := context.Background()
	current := "dev@localhost"
	strategy := RoleLookupStrategy{
		Directory: StaticDirectory{Users: map[string]string{
			"native_speaker":      "translator@localhost",
			"cultural_consultant": "consultant@localhost",
		}},
	}

	t.Run("reassigns hinted steps", func(t *testing.T) {
		out := strategy.Assign(ctx, "translation", &current)
		require.NotNil(t, out)
		assert.Equal(t, "translator@localhost", *out)

		out = strategy.Assign(ctx, "cultural_adaptation", &current)
		require.NotNil(t, out)
		assert.Equal(t, "consultant@localhost", *out)
	})

	t.Run("keeps assignee for unhinted steps", func(t *testing.T) {
		out := strategy.Assign(ctx, "initial_draft", &current)
		require.NotNil(t, out)
		assert.Equal(t, "dev@localhost", *out)
	})

	t.Run("keeps assignee when directory has no candidate", func(t *testing.T) {
		// peer_review hints subject_matter_expert, which is not configured
		out := strategy.Assign(ctx, "peer_review", &current)
		require.NotNil(t, out)
		assert.Equal(t, "dev@localhost", *out)
	})
}

func TestRoleHintsCoverSpecialistSteps(t *testing.T) {
	assert.Equal(t, "native_speaker", RoleHints["translation"])
	assert.Equal(t, "native_speaker", RoleHints["translation_review"])
	assert.Equal(t, "subject_matter_expert", RoleHints["peer_review"])
	assert.Equal(t, "accessibility_specialist", RoleHints["accessibility_review"])
}
