// Package templates is the step template catalogue. Builders are pure:
// the same kind and options always produce the same ordered step list,
// so chains can be verified by literal comparison in tests.
package templates

import (
	"fmt"

	"portfolio-cms/pkg/models"
)

// StepDefinition describes one step of a chain before it is persisted.
type StepDefinition struct {
	Name           string
	Description    string
	EstimatedHours float64
	Checklist      models.Checklist
}

// Template pairs an ordered step list with the workflow type it produces.
type Template struct {
	WorkflowType models.WorkflowType
	Steps        []StepDefinition
}

// Build returns the template for the given kind and options. Unknown kinds
// are a validation error.
func Build(kind models.WorkflowKind, opts models.TemplateOptions) (*Template, error) {
	switch kind {
	case models.KindProjectShowcase:
		return projectShowcase(opts), nil
	case models.KindTeachingMaterials:
		return teachingMaterials(opts), nil
	case models.KindCreativeWriting:
		return creativeWriting(opts), nil
	case models.KindMultilingualSync:
		return multilingualSync(opts), nil
	case models.KindTestimonial:
		return testimonial(), nil
	default:
		return nil, fmt.Errorf("unknown workflow kind %q", kind)
	}
}

func checklist(items ...[2]string) models.Checklist {
	list := make(models.Checklist, 0, len(items))
	for _, it := range items {
		list = append(list, models.ChecklistItem{ID: it[0], Text: it[1]})
	}
	return list
}

func projectShowcase(opts models.TemplateOptions) *Template {
	steps := []StepDefinition{
		{
			Name:           "project_documentation",
			Description:    "Collect and structure the project's documentation and context",
			EstimatedHours: 4,
			Checklist: checklist(
				[2]string{"doc_goals", "Project goals and audience documented"},
				[2]string{"doc_stack", "Technology stack and constraints listed"},
				[2]string{"doc_timeline", "Timeline and milestones captured"},
			),
		},
		{
			Name:           "outcome_summary",
			Description:    "Write the learning-outcome and results summary",
			EstimatedHours: 3,
			Checklist: checklist(
				[2]string{"outcome_metrics", "Measurable outcomes identified"},
				[2]string{"outcome_narrative", "Narrative summary drafted"},
			),
		},
		{
			Name:           "visual_asset_preparation",
			Description:    "Prepare screenshots, diagrams and cover imagery",
			EstimatedHours: 2,
			Checklist: checklist(
				[2]string{"visual_screenshots", "Screenshots captured and cropped"},
				[2]string{"visual_alt_text", "Alt text written for every asset"},
			),
		},
	}
	if opts.RequiresPeerReview {
		steps = append(steps, StepDefinition{
			Name:           "peer_review",
			Description:    "Independent review by a subject matter expert",
			EstimatedHours: 2,
			Checklist: checklist(
				[2]string{"peer_accuracy", "Technical accuracy confirmed"},
				[2]string{"peer_feedback", "Reviewer feedback addressed"},
			),
		})
	}
	steps = append(steps, StepDefinition{
		Name:           "showcase_approval",
		Description:    "Final approval before the showcase goes live",
		EstimatedHours: 1,
		Checklist: checklist(
			[2]string{"approval_links", "All links verified"},
			[2]string{"approval_signoff", "Final sign-off recorded"},
		),
	})
	return &Template{WorkflowType: models.WorkflowTypeEducationalReview, Steps: steps}
}

func teachingMaterials(opts models.TemplateOptions) *Template {
	steps := []StepDefinition{
		{
			Name:           "material_inventory",
			Description:    "Inventory the material set under review",
			EstimatedHours: 2,
			Checklist: checklist(
				[2]string{"inventory_catalogued", "Every resource catalogued"},
				[2]string{"inventory_versions", "Latest versions confirmed"},
			),
		},
		{
			Name:           "pedagogical_review",
			Description:    "Review against learning objectives and level",
			EstimatedHours: 4,
			Checklist: checklist(
				[2]string{"pedagogy_objectives", "Learning objectives mapped"},
				[2]string{"pedagogy_level", "Difficulty matches target level"},
				[2]string{"pedagogy_sequence", "Material sequence validated"},
			),
		},
		{
			Name:           "accessibility_review",
			Description:    "Check accessibility of all material formats",
			EstimatedHours: 2,
			Checklist: checklist(
				[2]string{"a11y_contrast", "Contrast and typography checked"},
				[2]string{"a11y_captions", "Captions or transcripts present"},
			),
		},
	}
	if opts.RequiresPeerReview {
		steps = append(steps, StepDefinition{
			Name:           "subject_matter_review",
			Description:    "Domain expert validates correctness of content",
			EstimatedHours: 3,
			Checklist: checklist(
				[2]string{"sme_correctness", "Content correctness verified"},
				[2]string{"sme_currency", "References are current"},
			),
		})
	}
	steps = append(steps, StepDefinition{
		Name:           "publication_readiness",
		Description:    "Final readiness check before materials are published",
		EstimatedHours: 1,
		Checklist: checklist(
			[2]string{"ready_formats", "Export formats generated"},
			[2]string{"ready_signoff", "Sign-off recorded"},
		),
	})
	return &Template{WorkflowType: models.WorkflowTypeContentApproval, Steps: steps}
}

func creativeWriting(opts models.TemplateOptions) *Template {
	steps := []StepDefinition{
		{
			Name:           "initial_draft",
			Description:    "Complete the initial draft of the piece",
			EstimatedHours: 6,
			Checklist: checklist(
				[2]string{"draft_complete", "Draft covers the full outline"},
				[2]string{"draft_length", "Length within target range"},
			),
		},
		{
			Name:           "creative_editing",
			Description:    "Line and structural edit of the draft",
			EstimatedHours: 4,
			Checklist: checklist(
				[2]string{"edit_structure", "Structural edit complete"},
				[2]string{"edit_line", "Line edit complete"},
				[2]string{"edit_voice", "Voice consistent throughout"},
			),
		},
	}
	if opts.RequiresPeerWorkshop {
		steps = append(steps, StepDefinition{
			Name:           "peer_workshop",
			Description:    "Workshop the edited draft with peer writers",
			EstimatedHours: 3,
			Checklist: checklist(
				[2]string{"workshop_session", "Workshop session held"},
				[2]string{"workshop_notes", "Workshop notes collected"},
			),
		})
	}
	steps = append(steps, StepDefinition{
		Name:           "revision_integration",
		Description:    "Fold editing and workshop feedback into the text",
		EstimatedHours: 3,
		Checklist: checklist(
			[2]string{"revision_applied", "All accepted feedback applied"},
			[2]string{"revision_proofread", "Final proofread complete"},
		),
	})
	if opts.TargetPublication {
		steps = append(steps, StepDefinition{
			Name:           "publication_preparation",
			Description:    "Prepare the piece for its publication target",
			EstimatedHours: 2,
			Checklist: checklist(
				[2]string{"pub_guidelines", "Publication guidelines met"},
				[2]string{"pub_metadata", "Submission metadata prepared"},
			),
		})
	}
	return &Template{WorkflowType: models.WorkflowTypeCreativeEditing, Steps: steps}
}

func multilingualSync(opts models.TemplateOptions) *Template {
	steps := []StepDefinition{
		{
			Name:           "source_content_freeze",
			Description:    "Freeze the source-locale content for translation",
			EstimatedHours: 1,
			Checklist: checklist(
				[2]string{"freeze_version", "Source version pinned"},
				[2]string{"freeze_glossary", "Glossary terms extracted"},
			),
		},
		{
			Name:           "translation",
			Description:    "Translate the frozen content into the target locale",
			EstimatedHours: 6,
			Checklist: checklist(
				[2]string{"translation_body", "Body content translated"},
				[2]string{"translation_meta", "Titles and metadata translated"},
			),
		},
	}
	if opts.RequiresCulturalAdaptation {
		steps = append(steps, StepDefinition{
			Name:           "cultural_adaptation",
			Description:    "Adapt idioms, examples and references for the target culture",
			EstimatedHours: 3,
			Checklist: checklist(
				[2]string{"culture_idioms", "Idioms and examples localized"},
				[2]string{"culture_review", "Adaptation reviewed by consultant"},
			),
		})
	}
	steps = append(steps,
		StepDefinition{
			Name:           "translation_review",
			Description:    "Review translation quality against the source",
			EstimatedHours: 3,
			Checklist: checklist(
				[2]string{"review_accuracy", "Meaning preserved against source"},
				[2]string{"review_terminology", "Glossary terminology applied"},
			),
		},
		StepDefinition{
			Name:           "sync_verification",
			Description:    "Verify both locales render the same structure",
			EstimatedHours: 1,
			Checklist: checklist(
				[2]string{"sync_structure", "Section structure matches source"},
				[2]string{"sync_links", "Cross-locale links resolve"},
			),
		},
	)
	return &Template{WorkflowType: models.WorkflowTypeMultilingualSync, Steps: steps}
}

// testimonial has a fixed four-step shape with no optional steps.
func testimonial() *Template {
	return &Template{
		WorkflowType: models.WorkflowTypeTestimonialCollection,
		Steps: []StepDefinition{
			{
				Name:           "relationship_mapping",
				Description:    "Map candidates and their relationship to the work",
				EstimatedHours: 1,
				Checklist: checklist(
					[2]string{"map_candidates", "Candidate list drafted"},
					[2]string{"map_context", "Shared work context noted per candidate"},
				),
			},
			{
				Name:           "personalized_outreach",
				Description:    "Send personalized testimonial requests",
				EstimatedHours: 2,
				Checklist: checklist(
					[2]string{"outreach_drafts", "Personalized requests drafted"},
					[2]string{"outreach_sent", "Requests sent and logged"},
				),
			},
			{
				Name:           "testimonial_review",
				Description:    "Review received testimonials for fit and consent",
				EstimatedHours: 1,
				Checklist: checklist(
					[2]string{"review_consent", "Publication consent confirmed"},
					[2]string{"review_edits", "Requested edits agreed with author"},
				),
			},
			{
				Name:           "testimonial_integration",
				Description:    "Integrate approved testimonials into the site",
				EstimatedHours: 1,
				Checklist: checklist(
					[2]string{"integration_placed", "Testimonials placed on target pages"},
					[2]string{"integration_attribution", "Attribution and links verified"},
				),
			},
		},
	}
}
