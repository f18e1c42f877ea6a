package service

import (
	"github.com/noah-isme/orgportal-api/internal/models"
)

// AccessService resolves the caller's effective rights on a document from
// the independent grant sources: public flag, departmental flag, ownership,
// and explicit access rows. Visibility is the union of all sources; no
// single source is authoritative.
type AccessService struct {
	adminDepartment string
}

// NewAccessService constructs the resolver. adminDepartment names the
// department whose members get the organization-wide comment carve-out.
func NewAccessService(adminDepartment string) *AccessService {
	if adminDepartment == "" {
		adminDepartment = "admin"
	}
	return &AccessService{adminDepartment: adminDepartment}
}

// CanView reports read visibility: true when any one grant source holds.
func (s *AccessService) CanView(doc *models.Document, grants []models.DocumentAccess, caller *models.Identity) bool {
	if doc == nil || caller == nil {
		return false
	}
	if doc.Public {
		return true
	}
	if doc.Departmental && doc.Department != nil && *doc.Department == caller.Department {
		return true
	}
	if doc.UploadedBy == caller.ID {
		return true
	}
	return s.grantLevel(grants, caller).Rank() >= models.AccessLevelView.Rank()
}

// Level computes the caller's maximum access level across all sources.
// Ownership implies manage; implicit public/departmental visibility alone
// caps at view.
func (s *AccessService) Level(doc *models.Document, grants []models.DocumentAccess, caller *models.Identity) models.AccessLevel {
	if doc == nil || caller == nil {
		return models.AccessLevelNone
	}
	if doc.UploadedBy == caller.ID {
		return models.AccessLevelManage
	}
	level := s.grantLevel(grants, caller)
	if level == models.AccessLevelNone {
		if doc.Public || (doc.Departmental && doc.Department != nil && *doc.Department == caller.Department) {
			return models.AccessLevelView
		}
	}
	return level
}

// CanEdit reports write permission: uploader identity or an explicit
// edit/manage grant. Plain public/departmental visibility does not qualify.
func (s *AccessService) CanEdit(doc *models.Document, grants []models.DocumentAccess, caller *models.Identity) bool {
	if doc == nil || caller == nil {
		return false
	}
	if doc.UploadedBy == caller.ID {
		return true
	}
	return s.grantLevel(grants, caller).Rank() >= models.AccessLevelEdit.Rank()
}

// CanComment is CanEdit plus the admin-department carve-out: members of the
// admin department may comment anywhere. This is a carried-over product
// convention that applies to the comment-write path only; every other
// privileged path checks role, not department.
func (s *AccessService) CanComment(doc *models.Document, grants []models.DocumentAccess, caller *models.Identity) bool {
	if doc == nil || caller == nil {
		return false
	}
	if caller.Department == s.adminDepartment {
		return true
	}
	return s.CanEdit(doc, grants, caller)
}

// CanModerate gates delete-level operations (delete comment, delete
// version): manage grant or document ownership. Edit is insufficient.
func (s *AccessService) CanModerate(doc *models.Document, grants []models.DocumentAccess, caller *models.Identity) bool {
	if doc == nil || caller == nil {
		return false
	}
	if doc.UploadedBy == caller.ID {
		return true
	}
	return s.grantLevel(grants, caller) == models.AccessLevelManage
}

// CanAdminister gates document-level destructive operations (delete,
// archive): ownership or the portal admin role.
func (s *AccessService) CanAdminister(doc *models.Document, caller *models.Identity) bool {
	if doc == nil || caller == nil {
		return false
	}
	return doc.UploadedBy == caller.ID || caller.Role == models.RoleAdmin
}

func (s *AccessService) grantLevel(grants []models.DocumentAccess, caller *models.Identity) models.AccessLevel {
	level := models.AccessLevelNone
	for _, grant := range grants {
		matched := false
		if grant.UserID != nil && *grant.UserID == caller.ID {
			matched = true
		}
		if grant.Department != nil && *grant.Department == caller.Department {
			matched = true
		}
		if matched && grant.AccessLevel.Rank() > level.Rank() {
			level = grant.AccessLevel
		}
	}
	return level
}
