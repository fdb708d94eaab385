package config

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProjectNameLength = 255

	// MaxTaskTitleLength is the maximum length for task titles.
	MaxTaskTitleLength = 255

	// MaxTeamNameLength is the maximum length for team names.
	MaxTeamNameLength = 120

	// MaxDocumentNameLength is the maximum length for document names.
	MaxDocumentNameLength = 255

	// MaxDescriptionLength bounds free-text descriptions on projects,
	// tasks, teams and progress updates.
	MaxDescriptionLength = 5000

	// MaxCommentLength is the maximum length for a task comment.
	MaxCommentLength = 2000

	// MaxUploadBytes caps a single media upload (50MB).
	MaxUploadBytes = 50 << 20

	// MaxProgressAttachments caps images or audio notes per progress update.
	MaxProgressAttachments = 20
)
