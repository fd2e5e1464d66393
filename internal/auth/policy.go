package auth

import (
	"github.com/dyslexiaaid/screening-service/internal/models"
)

// CanRegisterChild reports whether accounts of role may create child accounts.
func CanRegisterChild(role models.Role) bool {
	switch role {
	case models.RoleParent:
		return true
	case models.RoleChild, models.RoleIndependent:
		return false
	default:
		return false
	}
}

// CanActFor reports whether actor may select a subtype, take an evaluation
// or edit the profile of the given subject. Parents act for their own
// children; subjects act for themselves.
func CanActFor(actor *models.User, profile *models.Profile) bool {
	if actor == nil || profile == nil {
		return false
	}
	switch actor.Role {
	case models.RoleParent:
		return profile.ParentUserID != nil && *profile.ParentUserID == actor.ID
	case models.RoleChild, models.RoleIndependent:
		return profile.SubjectUserID == actor.ID
	default:
		return false
	}
}

// CanOpenLessons reports whether lesson content is available to the role.
// Unrecognised roles are denied here and in the checks above.
func CanOpenLessons(role models.Role) bool {
	switch role {
	case models.RoleParent:
		return false
	case models.RoleChild, models.RoleIndependent:
		return true
	default:
		return false
	}
}
