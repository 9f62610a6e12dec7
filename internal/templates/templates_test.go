package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-cms/pkg/models"
)

func stepNames(tpl *Template) []string {
	names := make([]string, 0, len(tpl.Steps))
	for _, s := range tpl.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestBuildCreativeWriting(t *testing.T) {
	t.Run("publication without workshop", func(t *testing.T) {
		tpl, err := Build(models.KindCreativeWriting, models.TemplateOptions{
			TargetPublication: true,
		})
		require.NoError(t, err)
		assert.Equal(t, models.WorkflowTypeCreativeEditing, tpl.WorkflowType)
		assert.Equal(t, []string{
			"initial_draft",
			"creative_editing",
			"revision_integration",
			"publication_preparation",
		}, stepNames(tpl))
	})

	t.Run("workshop without publication", func(t *testing.T) {
		tpl, err := Build(models.KindCreativeWriting, models.TemplateOptions{
			RequiresPeerWorkshop: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"initial_draft",
			"creative_editing",
			"peer_workshop",
			"revision_integration",
		}, stepNames(tpl))
	})

	t.Run("no options", func(t *testing.T) {
		tpl, err := Build(models.KindCreativeWriting, models.TemplateOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"initial_draft",
			"creative_editing",
			"revision_integration",
		}, stepNames(tpl))
	})
}

func TestBuildTestimonial(t *testing.T) {
	tpl, err := Build(models.KindTestimonial, models.TemplateOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowTypeTestimonialCollection, tpl.WorkflowType)
	assert.Equal(t, []string{
		"relationship_mapping",
		"personalized_outreach",
		"testimonial_review",
		"testimonial_integration",
	}, stepNames(tpl))

	// options never change the testimonial shape
	withOpts, err := Build(models.KindTestimonial, models.TemplateOptions{
		RequiresPeerReview: true,
		TargetPublication:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, stepNames(tpl), stepNames(withOpts))
}

func TestBuildProjectShowcase(t *testing.T) {
	tpl, err := Build(models.KindProjectShowcase, models.TemplateOptions{RequiresPeerReview: true})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowTypeEducationalReview, tpl.WorkflowType)
	assert.Equal(t, []string{
		"project_documentation",
		"outcome_summary",
		"visual_asset_preparation",
		"peer_review",
		"showcase_approval",
	}, stepNames(tpl))

	without, err := Build(models.KindProjectShowcase, models.TemplateOptions{})
	require.NoError(t, err)
	assert.NotContains(t, stepNames(without), "peer_review")
	assert.Len(t, without.Steps, 4)
}

func TestBuildTeachingMaterials(t *testing.T) {
	tpl, err := Build(models.KindTeachingMaterials, models.TemplateOptions{RequiresPeerReview: true})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowTypeContentApproval, tpl.WorkflowType)
	assert.Contains(t, stepNames(tpl), "accessibility_review")
	assert.Contains(t, stepNames(tpl), "subject_matter_review")

	without, err := Build(models.KindTeachingMaterials, models.TemplateOptions{})
	require.NoError(t, err)
	assert.NotContains(t, stepNames(without), "subject_matter_review")
}

func TestBuildMultilingualSync(t *testing.T) {
	tpl, err := Build(models.KindMultilingualSync, models.TemplateOptions{RequiresCulturalAdaptation: true})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowTypeMultilingualSync, tpl.WorkflowType)
	assert.Equal(t, []string{
		"source_content_freeze",
		"translation",
		"cultural_adaptation",
		"translation_review",
		"sync_verification",
	}, stepNames(tpl))

	without, err := Build(models.KindMultilingualSync, models.TemplateOptions{})
	require.NoError(t, err)
	assert.NotContains(t, stepNames(without), "cultural_adaptation")
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := Build(models.WorkflowKind("newsletter"), models.TemplateOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown workflow kind")
}

func TestBuildIsDeterministic(t *testing.T) {
	opts := models.TemplateOptions{RequiresPeerWorkshop: true, TargetPublication: true}
	first, err := Build(models.KindCreativeWriting, opts)
	require.NoError(t, err)
	second, err := Build(models.KindCreativeWriting, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTemplatesCarryEstimatesAndChecklists(t *testing.T) {
	kinds := []models.WorkflowKind{
		models.KindProjectShowcase,
		models.KindTeachingMaterials,
		models.KindCreativeWriting,
		models.KindMultilingualSync,
		models.KindTestimonial,
	}
	for _, kind := range kinds {
		tpl, err := Build(kind, models.TemplateOptions{})
		require.NoError(t, err)
		for _, step := range tpl.Steps {
			assert.Greater(t, step.EstimatedHours, 0.0, "%s/%s", kind, step.Name)
			assert.NotEmpty(t, step.Checklist, "%s/%s", kind, step.Name)
			for _, item := range step.Checklist {
				assert.NotEmpty(t, item.ID)
				assert.NotEmpty(t, item.Text)
				assert.False(t, item.Completed)
			}
		}
	}
}
