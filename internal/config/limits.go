package config

const (
	// MaxPathLength is the maximum length of a file or folder path inside a repository.
	MaxPathLength = 1024

	// MaxBranchNameLength is the maximum length of a branch name.
	// Matches the git ref component limit used by most hosts.
	MaxBranchNameLength = 255

	// MaxFilesPerRequest bounds the selector of a bulk file deletion.
	MaxFilesPerRequest = 1000

	// MaxFileContentBytes is the largest file content accepted for indexing.
	MaxFileContentBytes = 5 << 20
)
