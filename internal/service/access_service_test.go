package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/orgportal-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestAccessServiceCanViewUnion(t *testing.T) {
	resolver := NewAccessService("admin")
	caller := &models.Identity{ID: "u1", Department: "finance", Role: models.RoleEmployee}

	tests := []struct {
		name   string
		doc    models.Document
		grants []models.DocumentAccess
		want   bool
	}{
		{
			name: "public document visible to anyone",
			doc:  models.Document{Public: true, UploadedBy: "u9"},
			want: true,
		},
		{
			name: "departmental match",
			doc:  models.Document{Departmental: true, Department: strPtr("finance"), UploadedBy: "u9"},
			want: true,
		},
		{
			name: "departmental mismatch hidden",
			doc:  models.Document{Departmental: true, Department: strPtr("legal"), UploadedBy: "u9"},
			want: false,
		},
		{
			name: "ownership",
			doc:  models.Document{UploadedBy: "u1"},
			want: true,
		},
		{
			name:   "explicit user grant",
			doc:    models.Document{UploadedBy: "u9"},
			grants: []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelView}},
			want:   true,
		},
		{
			name:   "explicit department grant",
			doc:    models.Document{UploadedBy: "u9"},
			grants: []models.DocumentAccess{{Department: strPtr("finance"), AccessLevel: models.AccessLevelView}},
			want:   true,
		},
		{
			name:   "grant for someone else",
			doc:    models.Document{UploadedBy: "u9"},
			grants: []models.DocumentAccess{{UserID: strPtr("u2"), AccessLevel: models.AccessLevelManage}},
			want:   false,
		},
		{
			name: "no source at all",
			doc:  models.Document{UploadedBy: "u9"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.CanView(&tt.doc, tt.grants, caller))
		})
	}
}

func TestAccessServiceLevel(t *testing.T) {
	resolver := NewAccessService("admin")
	caller := &models.Identity{ID: "u1", Department: "finance"}

	owned := models.Document{UploadedBy: "u1"}
	assert.Equal(t, models.AccessLevelManage, resolver.Level(&owned, nil, caller))

	public := models.Document{Public: true, UploadedBy: "u9"}
	assert.Equal(t, models.AccessLevelView, resolver.Level(&public, nil, caller))

	granted := models.Document{UploadedBy: "u9"}
	grants := []models.DocumentAccess{
		{UserID: strPtr("u1"), AccessLevel: models.AccessLevelView},
		{Department: strPtr("finance"), AccessLevel: models.AccessLevelEdit},
	}
	// The highest matching grant wins.
	assert.Equal(t, models.AccessLevelEdit, resolver.Level(&granted, grants, caller))

	none := models.Document{UploadedBy: "u9"}
	assert.Equal(t, models.AccessLevelNone, resolver.Level(&none, nil, caller))
}

func TestAccessServiceCanEditStricterThanView(t *testing.T) {
	resolver := NewAccessService("admin")
	caller := &models.Identity{ID: "u1", Department: "finance"}

	// Public and departmental visibility never grant writes.
	public := models.Document{Public: true, UploadedBy: "u9"}
	assert.False(t, resolver.CanEdit(&public, nil, caller))

	departmental := models.Document{Departmental: true, Department: strPtr("finance"), UploadedBy: "u9"}
	assert.False(t, resolver.CanEdit(&departmental, nil, caller))

	viewGrant := []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelView}}
	assert.False(t, resolver.CanEdit(&departmental, viewGrant, caller))

	editGrant := []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelEdit}}
	assert.True(t, resolver.CanEdit(&departmental, editGrant, caller))

	owned := models.Document{UploadedBy: "u1"}
	assert.True(t, resolver.CanEdit(&owned, nil, caller))
}

func TestAccessServiceCanCommentAdminDepartmentCarveOut(t *testing.T) {
	resolver := NewAccessService("admin")

	doc := models.Document{UploadedBy: "u9"}
	adminDept := &models.Identity{ID: "u1", Department: "admin", Role: models.RoleEmployee}
	outsider := &models.Identity{ID: "u2", Department: "finance", Role: models.RoleEmployee}
	adminRole := &models.Identity{ID: "u3", Department: "finance", Role: models.RoleAdmin}

	// Membership in the admin department allows commenting anywhere,
	// independent of grants.
	assert.True(t, resolver.CanComment(&doc, nil, adminDept))
	assert.False(t, resolver.CanComment(&doc, nil, outsider))
	// The admin role alone does not extend to the comment path.
	assert.False(t, resolver.CanComment(&doc, nil, adminRole))
}

func TestAccessServiceCanModerate(t *testing.T) {
	resolver := NewAccessService("admin")
	caller := &models.Identity{ID: "u1", Department: "finance"}
	doc := models.Document{UploadedBy: "u9"}

	editGrant := []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelEdit}}
	assert.False(t, resolver.CanModerate(&doc, editGrant, caller))

	manageGrant := []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelManage}}
	assert.True(t, resolver.CanModerate(&doc, manageGrant, caller))

	owned := models.Document{UploadedBy: "u1"}
	assert.True(t, resolver.CanModerate(&owned, nil, caller))
}

func TestAccessServiceCanAdminister(t *testing.T) {
	resolver := NewAccessService("admin")
	doc := models.Document{UploadedBy: "u9"}

	assert.True(t, resolver.CanAdminister(&doc, &models.Identity{ID: "u9"}))
	assert.True(t, resolver.CanAdminister(&doc, &models.Identity{ID: "u1", Role: models.RoleAdmin}))
	assert.False(t, resolver.CanAdminister(&doc, &models.Identity{ID: "u1", Role: models.RoleManager}))
}
