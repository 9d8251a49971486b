package handler

const (
	errInternalServer = "Internal server error"
	errTaskNotFound   = "Task not found"
	errNameConflict   = "Task with this name already exists"
)
