package rbac

const (
	PermWorksheetGenerate  = "worksheet:generate"
	PermWorksheetView      = "worksheet:view"
	PermWorksheetScore     = "worksheet:score"
	PermWorksheetPublish   = "worksheet:publish"
	PermWorksheetDeleteOwn = "worksheet:delete_own"
	PermAttemptViewAll     = "attempt:view_all"
	PermUsageView          = "usage:view"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermWorksheetView,
		PermWorksheetScore,
	},
	"teacher": {
		"worksheet:*",
		PermUsageView,
	},
	"admin": {
		"*",
	},
}
