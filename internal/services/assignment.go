package services

import "context"

// RoleHints maps step names that call for specialist attention to the role
// a candidate assignee should hold.
var RoleHints = map[string]string{
	"translation":           "native_speaker",
	"translation_review":    "native_speaker",
	"peer_review":           "subject_matter_expert",
	"subject_matter_review": "subject_matter_expert",
	"cultural_adaptation":   "cultural_consultant",
	"accessibility_review":  "accessibility_specialist",
}

// AssignmentStrategy decides who a step should be assigned to when it is
// activated. Implementations must return the current assignee when no
// better candidate is available.
type AssignmentStrategy interface {
	Assign(ctx context.Context, stepName string, current *string) *string
}

// NoOpStrategy keeps the current assignee. This is the single-operator
// deployment default.
type NoOpStrategy struct{}

// Assign returns the current assignee unchanged.
func (NoOpStrategy) Assign(_ context.Context, _ string, current *string) *string {
	return current
}

// UserDirectory resolves a role hint to an available user.
type UserDirectory interface {
	FindAvailable(ctx context.Context, roleHint string) (string, bool)
}

// StaticDirectory is a UserDirectory backed by a fixed role-to-user table,
// typically loaded from configuration.
type StaticDirectory struct {
	Users map[string]string
}

// FindAvailable returns the configured user for the role hint, if any.
func (d StaticDirectory) FindAvailable(_ context.Context, roleHint string) (string, bool) {
	user, ok := d.Users[roleHint]
	return user, ok
}

// RoleLookupStrategy consults a user directory for steps with a role hint
// and falls back to the current assignee otherwise.
type RoleLookupStrategy struct {
	Directory UserDirectory
}

// Assign reassigns the step to an available user matching its role hint,
// or leaves the assignee unchanged.
func (s RoleLookupStrategy) Assign(ctx context.Context, stepName string, current *string) *string {
	hint, ok := RoleHints[stepName]
	if !ok {
		return current
	}
	user, ok := s.Directory.FindAvailable(ctx, hint)
	if !ok {
		return current
	}
	return &user
}
