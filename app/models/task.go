package models

// Task represents a single checklist item.
type Task struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// CreateTaskRequest is the body accepted by POST /tasks.
type CreateTaskRequest struct {
	Name string `json:"name"`
}

// UpdateTaskRequest is the body accepted by PUT /tasks/{taskID}.
// Completed is a pointer so a missing field can be told apart from false.
type UpdateTaskRequest struct {
	Completed *bool `json:"completed"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClearResponse is returned by DELETE /tasks.
type ClearResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
